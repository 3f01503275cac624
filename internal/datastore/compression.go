package datastore

import (
	"strings"

	"github.com/parquet-go/parquet-go"
)

// compressionOption maps a configured codec name to a parquet writer option.
// Unknown names fall back to zstd.
func compressionOption(codec string) parquet.WriterOption {
	switch strings.ToLower(codec) {
	case "none", "uncompressed":
		return parquet.Compression(&parquet.Uncompressed)
	case "snappy":
		return parquet.Compression(&parquet.Snappy)
	case "gzip":
		return parquet.Compression(&parquet.Gzip)
	default:
		return parquet.Compression(&parquet.Zstd)
	}
}
