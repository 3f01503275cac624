package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// WriterFactory creates writers based on format
type WriterFactory struct {
	stderr io.Writer
	isTTY  bool
}

// NewWriterFactory creates a new writer factory bound to stderr
func NewWriterFactory() *WriterFactory {
	fd := os.Stderr.Fd()
	return &WriterFactory{
		stderr: os.Stderr,
		isTTY:  isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

// CreateConsoleWriter creates a console writer. Colour is only used on a terminal.
func (wf *WriterFactory) CreateConsoleWriter(format LogFormat) io.Writer {
	return wf.wrap(wf.stderr, format, !wf.isTTY)
}

// CreateFileWriter creates a file writer with rotation
func (wf *WriterFactory) CreateFileWriter(config LoggerConfig) io.Writer {
	finalPath := buildLogPath(config)

	if err := os.MkdirAll(filepath.Dir(finalPath), 0755); err != nil {
		finalPath = config.FilePath
	}

	rotating := &lumberjack.Logger{
		Filename:   finalPath,
		MaxSize:    config.MaxSizeMB,
		LocalTime:  true,
		MaxBackups: config.MaxBackups,
	}

	return wf.wrap(rotating, config.Format, true)
}

func (wf *WriterFactory) wrap(out io.Writer, format LogFormat, noColor bool) io.Writer {
	switch format {
	case FormatJSON:
		return out
	case FormatText:
		return zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    true,
			TimeFormat: time.RFC3339,
			PartsOrder: []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName},
		}
	default:
		return zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    noColor,
			TimeFormat: time.TimeOnly,
		}
	}
}

// buildLogPath nests the log file under runs/<id> when a run ID is set
func buildLogPath(config LoggerConfig) string {
	if config.RunID == "" {
		return config.FilePath
	}
	baseDir := filepath.Dir(config.FilePath)
	return filepath.Join(baseDir, "runs", config.RunID, filepath.Base(config.FilePath))
}
