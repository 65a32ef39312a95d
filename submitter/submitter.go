// Package submitter implements the block-submission loop of spec §4.G:
// drain the qualified-header queue, claim a matching registered candidate
// without ever holding the registry lock across an RPC call, reconstruct
// its block, and dispatch it to the child's daemon. Grounded on the
// teacher's work/worker.go "commit work, release lock, then do the slow
// part" shape (commitNewWork takes currentMu only for the snapshot, mining
// itself happens lock-free).
package submitter

import (
	"fmt"

	"github.com/klaytn/pbaasd/common"
	"github.com/klaytn/pbaasd/log"
	"github.com/klaytn/pbaasd/mergemine"
)

var logger = log.New("submitter")

// ChildSubmitter dispatches a reconstructed block to a child daemon. The
// concrete implementation (notary.ChildDispatcher) talks JSON-RPC over fasthttp;
// this interface keeps the submission algorithm itself free of transport
// detail, matching spec §5's rule that no coordinator lock is held across
// an RPC call.
type ChildSubmitter interface {
	SubmitBlock(endpoint string, rawBlockHex string) (string, error)
}

// Outcome records one submission attempt's result (spec §4.G step 6:
// "record the outcome (name, result) in the returned list").
type Outcome struct {
	ChainID   common.CurrencyID
	ChainName string
	Result    string
	Err       error
}

// SubmitQualifiedBlocks drains queue until no progress can be made,
// claiming and dispatching one candidate per solved header (spec §4.G).
func SubmitQualifiedBlocks(reg *mergemine.Registry, queue *mergemine.Queue, rpc ChildSubmitter) []Outcome {
	var outcomes []Outcome
	for {
		best, ok := queue.PopBest()
		if !ok {
			break
		}

		committed := best.Header.CommittedChainIDs()
		claimed, ok := reg.Claim(best.HashInt,
			func(id common.CurrencyID) bool { return committed.Has(id) },
			func(c *mergemine.Candidate) bool { return c.Coherent(best) },
		)
		if !ok {
			logger.Debug("submitter: solved header matches no registered candidate", "hash", best.HeaderHash)
			continue
		}

		rawBlock := claimed.Template.Reconstruct(best.RawHeader)
		if rawBlock == nil {
			outcomes = append(outcomes, Outcome{
				ChainID:   claimed.ChainID,
				ChainName: claimed.ChainName,
				Err:       fmt.Errorf("submitter: failed to reconstruct block for %s", claimed.ChainName),
			})
			continue
		}

		result, err := rpc.SubmitBlock(claimed.RPCEndpoint, fmt.Sprintf("%x", rawBlock))
		outcome := Outcome{ChainID: claimed.ChainID, ChainName: claimed.ChainName, Result: result, Err: err}
		if err != nil {
			logger.Warn("submitter: submitblock failed", "chain", claimed.ChainName, "err", err)
		} else {
			logger.Info("submitter: block submitted", "chain", claimed.ChainName, "result", result)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}
