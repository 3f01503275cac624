package config

// StorageConfig defines where findings and discovery history are written.
// Both stores are disabled unless Enabled is set.
type StorageConfig struct {
	Enabled          bool   `json:"enabled" yaml:"enabled"`
	CompressionCodec string `json:"compression_codec,omitempty" yaml:"compression_codec,omitempty" validate:"omitempty,oneof=zstd snappy gzip none"`
	ParquetBasePath  string `json:"parquet_base_path,omitempty" yaml:"parquet_base_path,omitempty" validate:"required_if=Enabled true"`
	SQLiteDBPath     string `json:"sqlite_db_path,omitempty" yaml:"sqlite_db_path,omitempty" validate:"required_if=Enabled true"`
}

// NewDefaultStorageConfig creates default storage configuration
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Enabled:          false,
		CompressionCodec: DefaultStorageCompressionCodec,
		ParquetBasePath:  DefaultStorageParquetBasePath,
		SQLiteDBPath:     DefaultStorageSQLiteDBPath,
	}
}
