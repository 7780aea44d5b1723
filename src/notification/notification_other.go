//go:build !windows

package notification

import (
	"fmt"
	"os"
)

func showBlocking(title, message string) error {
	_, err := fmt.Fprintf(os.Stderr, "%s: %s\n", title, message)
	return err
}
