package clipboard

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/atotto/clipboard"
	"github.com/illarion/lockpass/internal/secret"
)

var ErrUnavailable = errors.New("clipboard unavailable")

// Port places secrets on the system clipboard.
type Port interface {
	Copy(text *secret.Buffer) error
	PasteShortcutDescription() string
}

// System is the OS clipboard.
type System struct {
	write func(string) error
	goos  string
}

// NewSystem returns the OS clipboard.
func NewSystem() *System {
	return &System{write: clipboard.WriteAll, goos: runtime.GOOS}
}

// Copy hands text to the clipboard. The clipboard keeps its own copy, which
// this process cannot erase.
func (s *System) Copy(text *secret.Buffer) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	if err := s.write(text.String()); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// PasteShortcutDescription names the paste key combination of this OS.
func (s *System) PasteShortcutDescription() string {
	return pasteShortcut(s.goos)
}

func pasteShortcut(goos string) string {
	if goos == "darwin" {
		return "Cmd+V"
	}
	return "Ctrl+V"
}

// Disabled is used when the clipboard is turned off in the config.
type Disabled struct{}

func (Disabled) Copy(*secret.Buffer) error {
	return ErrUnavailable
}

func (Disabled) PasteShortcutDescription() string {
	return pasteShortcut(runtime.GOOS)
}
