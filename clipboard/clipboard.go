// Package clipboard provides clipboard operations for copying story text and
// image sources out of the workbench.
package clipboard

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/fwojciec/csvstory"
)

// ErrUnsupported is returned when no clipboard utility is available.
var ErrUnsupported = errors.New("clipboard unsupported on this system")

// Ensure both implementations satisfy the Clipboard interface.
var (
	_ csvstory.Clipboard = (*System)(nil)
	_ csvstory.Clipboard = (*PBCopy)(nil)
)

// System implements Clipboard using the platform clipboard utilities
// (xclip, xsel or wl-copy on Linux, pbcopy on macOS, the Win32 API on Windows).
type System struct{}

// NewSystem returns a clipboard backed by the platform utilities.
func NewSystem() *System {
	return &System{}
}

// Copy writes content to the system clipboard.
func (s *System) Copy(content string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	if err := clipboard.WriteAll(content); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}

// PBCopy implements Clipboard using macOS pbcopy command.
type PBCopy struct{}

// NewPBCopy returns a new PBCopy clipboard.
func NewPBCopy() *PBCopy {
	return &PBCopy{}
}

// Copy writes content to the system clipboard using pbcopy.
func (p *PBCopy) Copy(content string) error {
	cmd := exec.Command("pbcopy")
	cmd.Stdin = strings.NewReader(content)
	return cmd.Run()
}

// New returns the preferred clipboard for the running platform.
func New() csvstory.Clipboard {
	if runtime.GOOS == "darwin" {
		return NewPBCopy()
	}
	return NewSystem()
}
