// database/blob.go
package database

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic starts every zstd frame. Rows written before compression was
// introduced hold plain text and are returned unchanged.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	codecOnce sync.Once
	codecErr  error
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
)

func initCodec() error {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil)
		if codecErr != nil {
			return
		}
		decoder, codecErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
	return codecErr
}

// CompressBlob zstd-compresses a track or profile for storage.
func CompressBlob(text string) ([]byte, error) {
	if err := initCodec(); err != nil {
		return nil, fmt.Errorf("failed to init zstd: %w", err)
	}
	return encoder.EncodeAll([]byte(text), nil), nil
}

// DecompressBlob reverses CompressBlob.
func DecompressBlob(data []byte) (string, error) {
	if !bytes.HasPrefix(data, zstdMagic) {
		return string(data), nil
	}
	if err := initCodec(); err != nil {
		return "", fmt.Errorf("failed to init zstd: %w", err)
	}
	out, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decompress blob: %w", err)
	}
	return string(out), nil
}
