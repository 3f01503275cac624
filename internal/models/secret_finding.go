package models

import "time"

// Finding is a single pattern match inside a fetched script.
// Tags are for Parquet storage.
type Finding struct {
	ServiceName string    `parquet:"service_name" json:"service_name"`
	SecretValue string    `parquet:"secret_value" json:"secret_value"`
	SourceURL   string    `parquet:"source_url" json:"source_url"`
	LineNumber  int       `parquet:"line_number" json:"line_number"`
	ContextLine string    `parquet:"context_line" json:"context_line"`
	FoundAt     time.Time `parquet:"found_at,timestamp(millisecond)" json:"found_at"`
}
