package opener

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	argerr "github.com/Aman-CERP/argus/internal/errors"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		goos string
		name string
		args []string
	}{
		{"darwin", "open", []string{"/tmp/a.pdf"}},
		{"linux", "xdg-open", []string{"/tmp/a.pdf"}},
		{"freebsd", "xdg-open", []string{"/tmp/a.pdf"}},
		{"windows", "rundll32", []string{"url.dll,FileProtocolHandler", "/tmp/a.pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args, err := Command(tt.goos, "/tmp/a.pdf")
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestCommand_Unsupported(t *testing.T) {
	_, _, err := Command("plan9", "/tmp/a.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestOpen_RunsPlatformCommand(t *testing.T) {
	// Given: an existing file and a recording exec hook
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))

	var gotName string
	var gotArgs []string
	o := &Opener{
		goos: "linux",
		execCommand: func(name string, args ...string) *exec.Cmd {
			gotName, gotArgs = name, args
			return exec.Command(os.Args[0], "-test.run=^$")
		},
	}

	// When: opening
	err := o.Open(path)

	// Then: xdg-open received the absolute path
	require.NoError(t, err)
	assert.Equal(t, "xdg-open", gotName)
	assert.Equal(t, []string{path}, gotArgs)
}

func TestOpen_MissingFile(t *testing.T) {
	o := &Opener{goos: "linux", execCommand: func(string, ...string) *exec.Cmd {
		t.Fatal("command must not run")
		return nil
	}}

	err := o.Open(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Equal(t, argerr.ErrCodeFileNotFound, argerr.GetCode(err))
}

func TestOpen_StartFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	o := &Opener{goos: "darwin", execCommand: func(string, ...string) *exec.Cmd {
		return exec.Command(filepath.Join(t.TempDir(), "no-such-binary"))
	}}

	err := o.Open(path)
	require.Error(t, err)
	assert.Equal(t, argerr.ErrCodeOpenFailed, argerr.GetCode(err))
}

func TestOpen_UnsupportedPlatform(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	err := (&Opener{goos: "plan9", execCommand: exec.Command}).Open(path)

	assert.Equal(t, argerr.ErrCodeOpenFailed, argerr.GetCode(err))
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}
