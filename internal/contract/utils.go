package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/catiq/schema"
)

// Confidence label constants.
const (
	HighValue     = "High"     // High value
	ModerateValue = "Moderate" // Moderate value
	LowValue      = "Low"      // Low value
)

// Color variables for console output.
var (
	RiskColor  = color.New(color.FgRed, color.Bold) // RiskColor represents standard danger.
	WatchColor = color.New(color.FgYellow)          // WatchColor represents standard caution, not bold.
	InfoColor  = color.New(color.FgCyan)            // InfoColor represents informational signal.
)

// GetSeverityLabel returns the plain text label of a severity.
// This is the core logic used for CSV, JSON, and table printing.
func GetSeverityLabel(s schema.Severity) string {
	switch s {
	case schema.RiskSeverity:
		return "Risk"
	case schema.WatchSeverity:
		return "Watch"
	default:
		return "Info"
	}
}

// GetColorSeverityLabel returns a colored severity label for console output (table).
func GetColorSeverityLabel(s schema.Severity) string {
	text := GetSeverityLabel(s)
	switch s {
	case schema.RiskSeverity:
		return RiskColor.Sprint(text)
	case schema.WatchSeverity:
		return WatchColor.Sprint(text)
	default:
		return InfoColor.Sprint(text)
	}
}

// GetConfidenceLabel buckets a confidence in [0,1].
func GetConfidenceLabel(confidence float64) string {
	switch {
	case confidence >= 0.75:
		return HighValue
	case confidence >= 0.5:
		return ModerateValue
	default:
		return LowValue
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for snapshot cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".catiq_cache.db"
	}
	return filepath.Join(homeDir, ".catiq_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for answer history storage.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".catiq_history.db"
	}
	return filepath.Join(homeDir, ".catiq_history.db")
}

// TruncateText truncates text to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so the "..." suffix leaves room for content.
func TruncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
