package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Tee writes every log entry to both the console and a per-day log file
// under dir. The file for a given day is appended to across runs, and files
// older than the retention window are removed on startup.
type Tee struct {
	logger *zap.Logger
	file   *os.File
}

// NewTee opens (or creates) dir/YYYYMMDD.log for the current day in loc and
// returns a Tee logging at levelStr to stdout and the file. Retention keeps
// today plus retentionDays previous days.
func NewTee(dir, levelStr string, retentionDays int, loc *time.Location) (*Tee, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}

	now := time.Now().In(loc)
	cleanupOldLogs(dir, retentionDays, now)

	path := filepath.Join(dir, now.Format("20060102")+".log")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	level := zapcore.InfoLevel
	switch levelStr {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stdout),
		level,
	)
	fileCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(file),
		level,
	)

	return &Tee{
		logger: zap.New(zapcore.NewTee(consoleCore, fileCore)),
		file:   file,
	}, nil
}

// Logger returns the tee as the shared Logger interface.
func (t *Tee) Logger() Logger {
	return &zapWrapper{l: t.logger}
}

// Zap returns the underlying zap logger.
func (t *Tee) Zap() *zap.Logger {
	return t.logger
}

// Close flushes buffered entries and closes the log file.
func (t *Tee) Close() error {
	_ = t.logger.Sync()
	return t.file.Close()
}

// cleanupOldLogs removes dir/*.log files whose YYYYMMDD name prefix falls
// before today minus retentionDays. The boundary is aligned to midnight so
// the decision does not depend on the time of day the run starts.
func cleanupOldLogs(dir string, retentionDays int, now time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	cutoff := today.AddDate(0, 0, -retentionDays)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".log") || len(name) < 8 {
			continue
		}
		fileDate, err := time.ParseInLocation("20060102", name[:8], now.Location())
		if err != nil {
			continue
		}
		if fileDate.Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, name))
		}
	}
}
