// Package common holds the small fixed-size identifier types shared by every
// pbaasd package: chain addresses, transaction hashes, and 160-bit currency
// IDs. Kept dependency-free so every other package can import it without
// risk of an import cycle, mirroring how klaytn's own common package anchors
// the rest of that tree.
package common

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// AddressLength is the size in bytes of an Address.
const AddressLength = 20

// HashLength is the size in bytes of a Hash.
const HashLength = 32

// CurrencyIDLength is the size in bytes of a CurrencyID. PBaaS currency and
// chain identifiers are both 160-bit values, so CurrencyID and Address share
// a representation; they are kept as distinct types to avoid accidentally
// passing one where the other is expected.
const CurrencyIDLength = 20

// Address is a 160-bit account or chain identifier.
type Address [AddressLength]byte

// Hash is a 256-bit digest.
type Hash [HashLength]byte

// CurrencyID is a 160-bit currency or chain identifier, derived from
// (name, parent-id) at currency-definition time.
type CurrencyID [CurrencyIDLength]byte

// BytesToAddress right-aligns b into an Address, truncating from the left if
// b is longer than AddressLength.
func BytesToAddress(b []byte) Address {
	var a Address
	copyRightAligned(a[:], b)
	return a
}

// BytesToHash right-aligns b into a Hash.
func BytesToHash(b []byte) Hash {
	var h Hash
	copyRightAligned(h[:], b)
	return h
}

// BytesToCurrencyID right-aligns b into a CurrencyID.
func BytesToCurrencyID(b []byte) CurrencyID {
	var c CurrencyID
	copyRightAligned(c[:], b)
	return c
}

func copyRightAligned(dst, src []byte) {
	if len(src) > len(dst) {
		src = src[len(src)-len(dst):]
	}
	copy(dst[len(dst)-len(src):], src)
}

func (a Address) Bytes() []byte    { return a[:] }
func (h Hash) Bytes() []byte       { return h[:] }
func (c CurrencyID) Bytes() []byte { return c[:] }

func (a Address) IsZero() bool    { return a == Address{} }
func (h Hash) IsZero() bool       { return h == Hash{} }
func (c CurrencyID) IsZero() bool { return c == CurrencyID{} }

func (a Address) String() string    { return "0x" + hex.EncodeToString(a[:]) }
func (h Hash) String() string       { return "0x" + hex.EncodeToString(h[:]) }
func (c CurrencyID) String() string { return "0x" + hex.EncodeToString(c[:]) }

// Cmp orders two CurrencyIDs lexicographically; the ordering carries no
// chain-consensus meaning.
func (c CurrencyID) Cmp(o CurrencyID) int {
	return bytes.Compare(c[:], o[:])
}

// HexToAddress parses a 0x-prefixed or bare hex string into an Address.
func HexToAddress(s string) (Address, error) {
	b, err := decodeHex(s)
	if err != nil {
		return Address{}, err
	}
	return BytesToAddress(b), nil
}

// HexToHash parses a 0x-prefixed or bare hex string into a Hash.
func HexToHash(s string) (Hash, error) {
	b, err := decodeHex(s)
	if err != nil {
		return Hash{}, err
	}
	return BytesToHash(b), nil
}

func decodeHex(s string) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("common: invalid hex string %q: %w", s, err)
	}
	return b, nil
}
