package readfiles

import (
	"fmt"
	"os"
	"strings"

	"github.com/DataDog/zstd"
)

const zstdExt = ".zst"

// ReadMaybeCompressed returns the contents of fileName, decompressing files
// that end in .zst.
func ReadMaybeCompressed(fileName string) (b []byte, err error) {
	var (
		raw []byte
	)
	if raw, err = os.ReadFile(fileName); err != nil {
		return
	}
	if !strings.HasSuffix(fileName, zstdExt) {
		return raw, nil
	}
	if b, err = zstd.Decompress(nil, raw); err != nil {
		err = fmt.Errorf("unable to decompress %s: %w", fileName, err)
	}
	return
}

// WriteMaybeCompressed writes b to fileName, compressing it when the name ends
// in .zst.
func WriteMaybeCompressed(fileName string, b []byte) (err error) {
	if strings.HasSuffix(fileName, zstdExt) {
		if b, err = zstd.CompressLevel(nil, b, zstd.DefaultCompression); err != nil {
			return fmt.Errorf("unable to compress %s: %w", fileName, err)
		}
	}
	return os.WriteFile(fileName, b, 0644)
}
