package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Version(t *testing.T) {
	require.NoError(t, run([]string{"-version"}))
}

func TestRun_Help(t *testing.T) {
	assert.ErrorIs(t, run([]string{"-h"}), flag.ErrHelp)
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("STORAGE_SHARDS", "0")
	err := run(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shards")
}
