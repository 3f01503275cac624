package config

// ReporterConfig defines configuration for the end-of-run markdown report
type ReporterConfig struct {
	OutputPath  string `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	ReportTitle string `json:"report_title,omitempty" yaml:"report_title,omitempty"`
	// GenerateEmptyReport writes the report even when no secret was found.
	GenerateEmptyReport bool `json:"generate_empty_report" yaml:"generate_empty_report"`
}

// NewDefaultReporterConfig creates default reporter configuration
func NewDefaultReporterConfig() ReporterConfig {
	return ReporterConfig{
		OutputPath:          "",
		ReportTitle:         DefaultReporterTitle,
		GenerateEmptyReport: true,
	}
}
