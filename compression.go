package tsprep

import (
	"bytes"

	"github.com/carbocation/pfx"
	"github.com/klauspost/compress/zstd"
)

// Compression indicates how (and whether) an input stream is compressed
type Compression uint32

const (
	CompressionDisabled Compression = iota
	CompressionGZIP
	CompressionZStandard
)

func (c Compression) String() string {
	switch c {
	case CompressionDisabled:
		return "CompressionDisabled"
	case CompressionGZIP:
		return "CompressionGZIP"
	case CompressionZStandard:
		return "CompressionZStandard"

	default:
		return "Illegal selection"
	}
}

var (
	magicGZIP      = []byte{0x1f, 0x8b}
	magicZStandard = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// DetectCompression looks at the first bytes of a stream. BGZF files are
// gzip members and are reported as CompressionGZIP.
func DetectCompression(head []byte) Compression {
	switch {
	case bytes.HasPrefix(head, magicGZIP):
		return CompressionGZIP
	case bytes.HasPrefix(head, magicZStandard):
		return CompressionZStandard
	}
	return CompressionDisabled
}

// Both are safe for concurrent use through EncodeAll / DecodeAll.
var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// CompressZStandard compresses src, appending to dst[:0] so that a buffer can
// be reused between calls.
func CompressZStandard(dst, src []byte) []byte {
	return zstdEncoder.EncodeAll(src, dst[:0])
}

// DecompressZStandard decompresses src into dst. If you have a buffer to use,
// you can pass it to prevent allocation. If it is too small, or if nil is
// passed, a new buffer will be allocated and returned.
func DecompressZStandard(dst, src []byte) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(src, dst[:0])
	if err != nil {
		return nil, pfx.Err(err)
	}
	return out, nil
}
