//go:build !windows

package notify

import (
	"fmt"
	"os"
)

// Alert reports a startup failure on stderr.
func Alert(title, message string) {
	logAlert(title, message)
	fmt.Fprintf(os.Stderr, "%s: %s\n", title, message)
}
