package notary

import "sync"

// PeerRegistry maps a peer daemon's RPC URL to its basic-auth credentials,
// since mergemine.Candidate only carries the bare endpoint string (spec §3
// "rpc_endpoint") while JSON-RPC calls need the configured user/password
// alongside it (spec §6).
type PeerRegistry struct {
	mu    sync.RWMutex
	peers map[string]Endpoint
}

// NewPeerRegistry constructs an empty peer registry.
func NewPeerRegistry() *PeerRegistry {
	return &PeerRegistry{peers: make(map[string]Endpoint)}
}

// Register records the credentials for one peer's RPC URL.
func (p *PeerRegistry) Register(ep Endpoint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.peers[ep.URL] = ep
}

func (p *PeerRegistry) resolve(url string) Endpoint {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if ep, ok := p.peers[url]; ok {
		return ep
	}
	return Endpoint{URL: url}
}

// ChildDispatcher implements submitter.ChildSubmitter by issuing
// submitblock over JSON-RPC to whichever endpoint the block submitter
// names (spec §4.G step 6).
type ChildDispatcher struct {
	rpc   *RPCClient
	peers *PeerRegistry
}

// NewChildDispatcher builds a ChildDispatcher sharing rpc and peers with
// the rest of the notary package.
func NewChildDispatcher(rpc *RPCClient, peers *PeerRegistry) *ChildDispatcher {
	return &ChildDispatcher{rpc: rpc, peers: peers}
}

// SubmitBlock dispatches rawBlockHex to the child daemon at endpoint.
func (d *ChildDispatcher) SubmitBlock(endpoint string, rawBlockHex string) (string, error) {
	var result string
	err := d.rpc.Call(d.peers.resolve(endpoint), "submitblock", []interface{}{rawBlockHex}, &result)
	return result, err
}
