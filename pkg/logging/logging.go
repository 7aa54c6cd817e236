package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// L is the process logger used before configuration is loaded.
var L = log.NewWithOptions(os.Stderr, log.Options{Prefix: "flashlend"})

// New returns a logger writing to w at the named level ("debug", "info",
// "warn", "error").
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          "flashlend",
		ReportTimestamp: true,
	}), nil
}
