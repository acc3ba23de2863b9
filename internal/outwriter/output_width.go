package outwriter

import (
	"os"

	"github.com/huangsam/catiq/internal/contract"
	"golang.org/x/term"
)

// terminalWidth returns the --width override, the detected terminal width,
// or 80 when neither is available.
func terminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detected, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detected <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detected
}

// maxColumnWidth returns the room left for one free-text column after the
// fixed columns of a table take reserved characters.
func maxColumnWidth(cfg *contract.Config, reserved int) int {
	// Borders, separators and padding
	available := terminalWidth(cfg) - reserved - 12
	if available < 20 {
		return 20
	}
	if available > 90 {
		return 90
	}
	return available
}
