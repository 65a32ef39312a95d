package chainobj

import (
	"encoding/binary"
	"fmt"

	"github.com/klaytn/pbaasd/common"
	"github.com/klaytn/pbaasd/transfer"
)

// ReserveTransferObject embeds a reserve transfer inside a commitment blob
// (spec §4.H step 10). The aggregator itself does not encode the blob; it
// hands transfers to the hostchain.TxBuilder.
type ReserveTransferObject struct {
	Transfer *transfer.Transfer
}

func (r *ReserveTransferObject) Kind() Kind { return KindReserveTransfer }

func (r *ReserveTransferObject) Hash() common.Hash {
	return sha256Sum(r.encodeBody())
}

func (r *ReserveTransferObject) encodeBody() []byte {
	t := r.Transfer
	if t == nil {
		return nil
	}
	addr := []byte(t.DestAddress)
	if len(addr) > 0xffff {
		return nil
	}
	buf := make([]byte, 0, common.CurrencyIDLength*2+2+len(addr)+8+8+4+common.HashLength+4+8)
	buf = append(buf, t.SourceCurrencyID.Bytes()...)
	buf = append(buf, t.DestCurrencyID.Bytes()...)
	buf = appendUint16(buf, uint16(len(addr)))
	buf = append(buf, addr...)
	buf = appendUint64(buf, t.Amount)
	buf = appendUint64(buf, t.Fee)
	buf = appendUint32(buf, uint32(t.Flags))
	buf = append(buf, t.TxHash.Bytes()...)
	buf = appendUint32(buf, t.OutputIndex)
	buf = appendUint64(buf, t.UTXOValue)
	return buf
}

func decodeReserveTransfer(body []byte) (Object, error) {
	const fixedMin = common.CurrencyIDLength*2 + 2 + 8 + 8 + 4 + common.HashLength + 4 + 8
	if len(body) < fixedMin {
		return nil, fmt.Errorf("chainobj: reserve-transfer body too short: %d bytes", len(body))
	}
	off := 0
	src := common.BytesToCurrencyID(body[off : off+common.CurrencyIDLength])
	off += common.CurrencyIDLength
	dst := common.BytesToCurrencyID(body[off : off+common.CurrencyIDLength])
	off += common.CurrencyIDLength
	addrLen := int(binary.BigEndian.Uint16(body[off : off+2]))
	off += 2
	if off+addrLen > len(body) {
		return nil, fmt.Errorf("chainobj: reserve-transfer address length out of range")
	}
	addr := string(body[off : off+addrLen])
	off += addrLen
	if len(body)-off < 8+8+4+common.HashLength+4+8 {
		return nil, fmt.Errorf("chainobj: reserve-transfer body truncated after address")
	}
	amount := binary.BigEndian.Uint64(body[off : off+8])
	off += 8
	fee := binary.BigEndian.Uint64(body[off : off+8])
	off += 8
	flags := binary.BigEndian.Uint32(body[off : off+4])
	off += 4
	txHash := common.BytesToHash(body[off : off+common.HashLength])
	off += common.HashLength
	outIdx := binary.BigEndian.Uint32(body[off : off+4])
	off += 4
	utxoVal := binary.BigEndian.Uint64(body[off : off+8])

	return &ReserveTransferObject{Transfer: &transfer.Transfer{
		SourceCurrencyID: src,
		DestCurrencyID:   dst,
		DestAddress:      addr,
		Amount:           amount,
		Fee:              fee,
		Flags:            transfer.Flags(flags),
		TxHash:           txHash,
		OutputIndex:      outIdx,
		UTXOValue:        utxoVal,
	}}, nil
}

func appendUint16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}
