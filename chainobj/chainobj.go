// Package chainobj implements the tagged-union commitment-blob codec of
// spec §4.A: a 32-bit array marker followed by a stream of one-byte-tagged
// objects. It never validates semantic correctness, only structure — callers
// own signature/proof verification. Grounded on the teacher's decode
// discipline in node/sc/main_event_handler.go (rlp.DecodeBytes, fallible
// decode returning an error rather than panicking); the wire shape itself is
// bespoke rather than RLP, since the spec defines its own marker and tag
// byte rather than reusing a length-prefixed list encoding.
package chainobj

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klaytn/pbaasd/common"
)

// Kind discriminates the eight object variants spec §4.A names.
type Kind byte

const (
	KindBlockHeaderAndProof Kind = iota + 1
	KindPartialTxProof
	KindBlockHeaderRef
	KindPriorBlocksCommitment
	KindProofRoot
	KindReserveTransfer
	KindCrossChainProof
	KindCompositeChainObject
)

func (k Kind) String() string {
	switch k {
	case KindBlockHeaderAndProof:
		return "BlockHeaderAndProof"
	case KindPartialTxProof:
		return "PartialTxProof"
	case KindBlockHeaderRef:
		return "BlockHeaderRef"
	case KindPriorBlocksCommitment:
		return "PriorBlocksCommitment"
	case KindProofRoot:
		return "ProofRoot"
	case KindReserveTransfer:
		return "ReserveTransfer"
	case KindCrossChainProof:
		return "CrossChainProof"
	case KindCompositeChainObject:
		return "CompositeChainObject"
	default:
		return fmt.Sprintf("Kind(%d)", byte(k))
	}
}

// objectArrayMarker is the 32-bit type marker (OPRETTYPE_OBJECTARR in the
// original wire format) written before any tagged object. Its exact value
// carries no meaning beyond "this OP_RETURN payload is a chain-object
// array"; any stable constant suffices since both encode and decode sides
// of this codec agree on it.
const objectArrayMarker uint32 = 0x00000001

var (
	errShortBlob   = errors.New("chainobj: blob shorter than marker")
	errBadMarker   = errors.New("chainobj: missing object-array marker")
	errUnknownKind = errors.New("chainobj: unknown object kind")
)

// Object is one decoded chain-object variant. Implementations are value
// types; there is no base-pointer/enum-tag split to manage, so every exit
// path releases its own memory for free (spec §9 "tagged-union codec").
type Object interface {
	Kind() Kind
	encodeBody() []byte
	Hash() common.Hash
}

// Encode serializes objs into an opaque commitment blob. It returns nil if
// objs is empty or if any object fails to encode — partial output is never
// published (spec §4.A).
func Encode(objs []Object) []byte {
	if len(objs) == 0 {
		return nil
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.BigEndian, objectArrayMarker); err != nil {
		return nil
	}
	for _, obj := range objs {
		body := obj.encodeBody()
		if body == nil {
			return nil
		}
		buf.WriteByte(byte(obj.Kind()))
		if err := binary.Write(buf, binary.BigEndian, uint32(len(body))); err != nil {
			return nil
		}
		buf.Write(body)
	}
	return buf.Bytes()
}

// Decode parses a commitment blob back into its object sequence. Any
// failure — bad marker, truncated stream, unknown kind, or trailing bytes
// after the last well-formed object — rejects the whole sequence and
// returns an error; no partial object set is ever returned (spec §4.A,
// testable property 7).
func Decode(blob []byte) ([]Object, error) {
	if len(blob) < 4 {
		return nil, errShortBlob
	}
	r := bufio.NewReader(bytes.NewReader(blob))
	var marker uint32
	if err := binary.Read(r, binary.BigEndian, &marker); err != nil {
		return nil, err
	}
	if marker != objectArrayMarker {
		return nil, errBadMarker
	}

	var out []Object
	for {
		kindByte, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		var length uint32
		if err := binary.Read(r, binary.BigEndian, &length); err != nil {
			return nil, fmt.Errorf("chainobj: truncated length for kind %d: %w", kindByte, err)
		}
		body := make([]byte, length)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("chainobj: truncated body for kind %d: %w", kindByte, err)
		}
		obj, err := decodeBody(Kind(kindByte), body)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

func decodeBody(kind Kind, body []byte) (Object, error) {
	switch kind {
	case KindProofRoot:
		return decodeProofRoot(body)
	case KindReserveTransfer:
		return decodeReserveTransfer(body)
	case KindBlockHeaderAndProof,
		KindPartialTxProof,
		KindBlockHeaderRef,
		KindPriorBlocksCommitment,
		KindCrossChainProof,
		KindCompositeChainObject:
		return &Opaque{kind: kind, body: append([]byte(nil), body...)}, nil
	default:
		return nil, fmt.Errorf("%w: %d", errUnknownKind, kind)
	}
}

// ProofRoot carries a 32-byte digest committed to directly; its Hash is the
// digest itself rather than a hash of its encoding (spec §4.A "Hash").
type ProofRoot struct {
	Digest common.Hash
}

func (p *ProofRoot) Kind() Kind         { return KindProofRoot }
func (p *ProofRoot) Hash() common.Hash  { return p.Digest }
func (p *ProofRoot) encodeBody() []byte { return p.Digest.Bytes() }

func decodeProofRoot(body []byte) (Object, error) {
	if len(body) != common.HashLength {
		return nil, fmt.Errorf("chainobj: proof-root body length %d, want %d", len(body), common.HashLength)
	}
	return &ProofRoot{Digest: common.BytesToHash(body)}, nil
}

// Opaque carries the kinds this codec does not interpret structurally
// beyond their kind tag and raw bytes: block headers, tx proofs, header
// references, prior-blocks commitments, cross-chain proofs, and composite
// objects. Their internal layout is owned by the host chain's block/proof
// formats, which are explicitly out of scope (spec §1).
type Opaque struct {
	kind Kind
	body []byte
}

func NewOpaque(kind Kind, body []byte) *Opaque {
	return &Opaque{kind: kind, body: append([]byte(nil), body...)}
}

func (o *Opaque) Kind() Kind         { return o.kind }
func (o *Opaque) Body() []byte       { return o.body }
func (o *Opaque) encodeBody() []byte { return o.body }

func (o *Opaque) Hash() common.Hash {
	return sha256Sum(append([]byte{byte(o.kind)}, o.body...))
}
