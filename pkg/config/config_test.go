package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"osmch/pkg/config"
)

func TestLoadMissingConfigFileIsNotAnError(t *testing.T) {
	v, err := config.Load(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, v)
}

func TestOverrideOnlyAppliesWhenFlagNotExplicit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("threads: 8\n"), 0o644))

	v, err := config.Load(dir)
	require.NoError(t, err)

	threads := 4
	config.OverrideInt(&threads, "threads", "threads", v, map[string]bool{})
	require.Equal(t, 8, threads)

	threads = 4
	config.OverrideInt(&threads, "threads", "threads", v, map[string]bool{"threads": true})
	require.Equal(t, 4, threads)
}
