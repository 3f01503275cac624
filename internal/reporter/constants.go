package reporter

const (
	DirPermissions  = 0755
	FilePermissions = 0644

	// Markdown table cells are cut to these lengths.
	maxSecretCellLength  = 80
	maxContextCellLength = 120

	timestampLayout = "2006-01-02 15:04:05 MST"
)
