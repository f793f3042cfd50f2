package tui

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

// errorText turns a failed local action into status bar text. Filesystem
// errors are reduced to their cause so long paths don't fill the bar.
func errorText(action string, err error) string {
	var pe *fs.PathError
	switch {
	case err == nil:
		return action
	case errors.As(err, &pe):
		return fmt.Sprintf("%s: %v", action, pe.Err)
	case errors.Is(err, context.Canceled):
		return action + ": cancelled"
	}
	return fmt.Sprintf("%s: %v", action, err)
}
