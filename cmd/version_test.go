package cmd

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	assert.Equal(t, version, versionString(true))
	assert.Contains(t, versionString(false), "cv-ranker version: "+version)
	assert.Contains(t, versionString(false), runtime.Version())

	var out bytes.Buffer
	versionCmd.SetOut(&out)
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	require.NoError(t, versionCmd.Flags().Set("short", "true"))
	t.Cleanup(func() { versionCmd.Flags().Set("short", "false") })

	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, version+"\n", out.String())
}
