// Package notary implements the JSON-RPC client used to reach peer daemons
// (spec §6) and the notary-liveness probe (spec §4.J). The transport is
// valyala/fasthttp, already part of the teacher's dependency graph, rather
// than net/http — pbaasd's RPC traffic is small requests at a steady poll
// cadence, exactly the shape fasthttp's connection-pooled client is built
// for, and the teacher never reaches for net/http directly for outbound
// calls either.
package notary

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/klaytn/pbaasd/log"
)

var logger = log.New("notary")

// RPCTimeout is the fixed timeout for every daemon RPC call (spec §6, §5
// "Timeouts on notary RPC calls are 15 seconds").
const RPCTimeout = 15 * time.Second

// RPCClient is a minimal JSON-RPC 1.0-style client, the shape every
// Bitcoin-derived daemon exposes (method name, positional params array).
type RPCClient struct {
	client *fasthttp.Client
}

// NewRPCClient builds an RPCClient with a fresh fasthttp.Client. A single
// instance is safe for concurrent use and should be shared across peers.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		client: &fasthttp.Client{
			MaxConnsPerHost: 16,
		},
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string { return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message) }

// Endpoint bundles the target URL and basic-auth credentials for one peer
// daemon (spec §6 "the endpoint (host:port, user/pass) is configured per
// peer chain").
type Endpoint struct {
	URL      string
	User     string
	Password string
}

// Call issues one JSON-RPC request against endpoint and decodes its result
// into out. Per spec §9's corrected reading of the original bug, error and
// result are both read from the same top-level decoded object rather than
// a double-unwrap.
func (c *RPCClient) Call(endpoint Endpoint, method string, params []interface{}, out interface{}) error {
	reqBody, err := json.Marshal(rpcRequest{JSONRPC: "1.0", ID: "pbaasd", Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("notary: encode request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(endpoint.URL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if endpoint.User != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(endpoint.User + ":" + endpoint.Password))
		req.Header.Set("Authorization", "Basic "+auth)
	}
	req.SetBody(reqBody)

	if err := c.client.DoTimeout(req, resp, RPCTimeout); err != nil {
		return fmt.Errorf("notary: %s: %w", method, err)
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("notary: %s: http status %d", method, resp.StatusCode())
	}

	var decoded rpcResponse
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return fmt.Errorf("notary: %s: decode response: %w", method, err)
	}
	if decoded.Error != nil {
		return decoded.Error
	}
	if out == nil || len(decoded.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(decoded.Result, out); err != nil {
		return fmt.Errorf("notary: %s: decode result: %w", method, err)
	}
	return nil
}
