// Package zstd wraps klauspost/compress for the compressed record streams.
package zstd

import (
	"errors"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Extension is appended to compressed stream files.
const Extension = ".zst"

var ErrDecompress = errors.New("failed to decompress data")

var encoder, _ = zstd.NewWriter(nil) //nolint:gochecknoglobals

// Compress a buffer in one shot.
func Compress(src []byte) []byte {
	return encoder.EncodeAll(src, make([]byte, 0, len(src)))
}

// NewReader returns a streaming decoder. Closing it releases the decoder but not the source.
func NewReader(source io.Reader) (io.ReadCloser, error) {
	reader, errReader := zstd.NewReader(source)
	if errReader != nil {
		return nil, errors.Join(errReader, ErrDecompress)
	}

	return reader.IOReadCloser(), nil
}
