package datastore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/aleister1102/jsenum/internal/common/errorwrapper"
	"github.com/aleister1102/jsenum/internal/config"
	"github.com/aleister1102/jsenum/internal/models"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

const (
	secretsDirName   = "secrets"
	readBatchSize    = 100
	parquetExtension = ".parquet"
)

// SecretsStore writes the findings of each run to its own Parquet file.
type SecretsStore struct {
	config config.StorageConfig
	logger zerolog.Logger
}

// NewSecretsStore creates a new SecretsStore.
func NewSecretsStore(cfg config.StorageConfig, logger zerolog.Logger) (*SecretsStore, error) {
	if cfg.ParquetBasePath == "" {
		return nil, errorwrapper.NewValidationError("parquet_base_path", cfg.ParquetBasePath, "ParquetBasePath is not configured for secrets")
	}
	return &SecretsStore{
		config: cfg,
		logger: logger.With().Str("module", "SecretsStore").Logger(),
	}, nil
}

// FilePath returns the Parquet file used for runID.
func (ss *SecretsStore) FilePath(runID string) string {
	return filepath.Join(ss.config.ParquetBasePath, secretsDirName, runID+parquetExtension)
}

// StoreFindings writes findings for runID and returns the file path. Nothing
// is written for an empty slice.
func (ss *SecretsStore) StoreFindings(ctx context.Context, runID string, findings []models.Finding) (string, error) {
	if len(findings) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", errorwrapper.WrapError(err, "store secret findings")
	}

	filePath := ss.FilePath(runID)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", errorwrapper.WrapError(err, "failed to create secrets Parquet directory: "+filepath.Dir(filePath))
	}

	file, err := os.Create(filePath)
	if err != nil {
		return "", errorwrapper.WrapError(err, "failed to create secret findings parquet file: "+filePath)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[models.Finding](file, compressionOption(ss.config.CompressionCodec))
	if _, err := writer.Write(findings); err != nil {
		_ = writer.Close()
		return "", errorwrapper.WrapError(err, "failed to write secret findings to parquet file")
	}
	if err := writer.Close(); err != nil {
		return "", errorwrapper.WrapError(err, "failed to close secret findings parquet writer")
	}

	ss.logger.Info().Str("file_path", filePath).Int("records_written", len(findings)).Msg("Wrote secret findings to Parquet file")
	return filePath, nil
}

// LoadFindings reads every finding stored for runID. A run without a file
// yields an empty slice.
func (ss *SecretsStore) LoadFindings(ctx context.Context, runID string) ([]models.Finding, error) {
	filePath := ss.FilePath(runID)

	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.Finding{}, nil
		}
		return nil, errorwrapper.WrapError(err, "failed to open secret findings parquet file for reading: "+filePath)
	}
	defer file.Close()

	reader := parquet.NewGenericReader[models.Finding](file)
	defer reader.Close()

	findings := make([]models.Finding, 0, reader.NumRows())
	batch := make([]models.Finding, readBatchSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, errorwrapper.WrapError(err, "load secret findings")
		}
		n, err := reader.Read(batch)
		findings = append(findings, batch[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errorwrapper.WrapError(err, "failed to read secret findings from parquet file")
		}
	}

	ss.logger.Debug().Int("records_read", len(findings)).Str("file_path", filePath).Msg("Loaded secret findings")
	return findings, nil
}
