package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	argerr "github.com/Aman-CERP/argus/internal/errors"
)

func TestServeCmd_Flags(t *testing.T) {
	serveCmd, _, err := NewRootCmd().Find([]string{"serve"})
	require.NoError(t, err)

	flag := serveCmd.Flags().Lookup("transport")
	require.NotNil(t, flag)
	assert.Equal(t, "stdio", flag.DefValue)
	assert.NotNil(t, serveCmd.Flags().Lookup("directory"))
}

func TestServeCmd_UnknownTransport(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "serve", "-d", t.TempDir(), "--transport", "http")

	require.Error(t, err)
	assert.Equal(t, argerr.ErrCodeServeFailed, argerr.GetCode(err))
	assert.Contains(t, err.Error(), "unknown transport")
}
