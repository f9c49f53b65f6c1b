// Package opener opens files with the operating system's default
// application.
package opener

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	argerr "github.com/Aman-CERP/argus/internal/errors"
)

// ErrUnsupportedPlatform is returned on systems without a known opener.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Opener launches the platform's default handler for a path.
type Opener struct {
	goos        string
	execCommand func(name string, args ...string) *exec.Cmd
}

// New returns an Opener for the running platform.
func New() *Opener {
	return &Opener{goos: runtime.GOOS, execCommand: exec.Command}
}

// Command returns the program and arguments that open path on goos.
func Command(goos, path string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{path}, nil
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly":
		return "xdg-open", []string{path}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}, nil
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
}

// Open starts the default application for path without waiting for it.
func (o *Opener) Open(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return argerr.New(argerr.ErrCodeOpenFailed, fmt.Sprintf("failed to resolve %s: %v", path, err), err)
	}
	if _, err := os.Stat(abs); err != nil {
		code := argerr.ErrCodeOpenFailed
		switch {
		case errors.Is(err, os.ErrNotExist):
			code = argerr.ErrCodeFileNotFound
		case errors.Is(err, os.ErrPermission):
			code = argerr.ErrCodeFilePermission
		}
		return argerr.New(code, fmt.Sprintf("cannot open %s: %v", abs, err), err)
	}

	name, args, err := Command(o.goos, abs)
	if err != nil {
		return argerr.New(argerr.ErrCodeOpenFailed, err.Error(), err)
	}

	cmd := o.execCommand(name, args...)
	if err := cmd.Start(); err != nil {
		return argerr.New(argerr.ErrCodeOpenFailed, fmt.Sprintf("failed to start %s: %v", name, err), err).
			WithSuggestion("Open the file manually or install a default handler")
	}
	// Reap the launcher; its exit status does not reflect the opened app.
	go func() { _ = cmd.Wait() }()
	return nil
}

// Open opens path with a default Opener.
func Open(path string) error {
	return New().Open(path)
}
