package recorder

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"fixharness/internal/model"
	"fixharness/internal/model/enum"

	"github.com/yanun0323/errors"
)

const (
	recordVersion      uint16 = 1
	recordHeaderSize          = 32
	recordChecksumSize        = 4
)

var (
	recordMagic = [4]byte{'F', 'X', 'J', '1'}
	crcTable    = crc32.MakeTable(crc32.Castagnoli)
)

var (
	ErrInvalidMagic            = errors.New("journal invalid magic")
	ErrUnsupportedRecordVer    = errors.New("journal unsupported record version")
	ErrInvalidRecordHeaderSize = errors.New("journal invalid header size")
	ErrChecksumMismatch        = errors.New("journal checksum mismatch")
	ErrPayloadTooLarge         = errors.New("journal payload too large")
	ErrClosed                  = errors.New("journal writer closed")
)

// maxPayloadLen bounds a single record. FIX messages stay far below it.
const maxPayloadLen = 1 << 20

// Layout, little endian:
//
//	0  magic      [4]byte
//	4  version    uint16
//	6  headerSize uint16
//	8  kind       uint16
//	10 flags      uint16
//	12 payloadLen uint32
//	16 seq        uint64
//	24 tsRecv     int64
func encodeHeader(dst []byte, header model.EventHeader, payloadLen int) {
	_ = dst[recordHeaderSize-1]
	copy(dst[0:4], recordMagic[:])
	binary.LittleEndian.PutUint16(dst[4:6], recordVersion)
	binary.LittleEndian.PutUint16(dst[6:8], uint16(recordHeaderSize))
	binary.LittleEndian.PutUint16(dst[8:10], uint16(header.Kind))
	binary.LittleEndian.PutUint16(dst[10:12], header.Flags)
	binary.LittleEndian.PutUint32(dst[12:16], uint32(payloadLen))
	binary.LittleEndian.PutUint64(dst[16:24], header.Seq)
	binary.LittleEndian.PutUint64(dst[24:32], uint64(header.TsRecv))
}

func checksum(header []byte, payload []byte) uint32 {
	crc := crc32.Update(0, crcTable, header)
	return crc32.Update(crc, crcTable, payload)
}

func decodeRecordHeader(src []byte) (model.EventHeader, uint32, error) {
	if len(src) < recordHeaderSize {
		return model.EventHeader{}, 0, ErrInvalidRecordHeaderSize
	}
	if !bytes.Equal(src[0:4], recordMagic[:]) {
		return model.EventHeader{}, 0, ErrInvalidMagic
	}
	if ver := binary.LittleEndian.Uint16(src[4:6]); ver != recordVersion {
		return model.EventHeader{}, 0, ErrUnsupportedRecordVer
	}
	if headerSize := binary.LittleEndian.Uint16(src[6:8]); headerSize != recordHeaderSize {
		return model.EventHeader{}, 0, ErrInvalidRecordHeaderSize
	}
	h := model.EventHeader{
		Kind:   enum.EventKind(binary.LittleEndian.Uint16(src[8:10])),
		Flags:  binary.LittleEndian.Uint16(src[10:12]),
		Seq:    binary.LittleEndian.Uint64(src[16:24]),
		TsRecv: int64(binary.LittleEndian.Uint64(src[24:32])),
	}
	return h, binary.LittleEndian.Uint32(src[12:16]), nil
}
