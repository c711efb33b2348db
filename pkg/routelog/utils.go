package routelog

import (
	"fmt"
	"os"
)

// newWriter opens filepath in append mode, falling back to stdout when the
// path is empty or cannot be opened.
func newWriter(filepath string) *os.File {
	if filepath == "" {
		return os.Stdout
	}
	f, err := os.OpenFile(filepath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v, using stdout\n", filepath, err)
		return os.Stdout
	}
	return f
}
