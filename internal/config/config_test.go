package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "quiz.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFileThenEnv(t *testing.T) {
	p := writeFile(t, "bundle: content/quiz.yaml\nseed: 3\ndebug: true\n")
	t.Setenv(EnvJournal, "/tmp/j.db")
	t.Setenv(EnvSeed, "17")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Bundle:  "content/quiz.yaml",
		Journal: "/tmp/j.db",
		Seed:    17,
		Debug:   true,
	}, cfg)
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bundel: typo.yaml\n"))
	assert.Error(t, err, "unknown keys are rejected")

	t.Setenv(EnvSeed, "-1")
	_, err = Load("")
	assert.ErrorContains(t, err, EnvSeed)

	t.Setenv(EnvSeed, "")
	t.Setenv(EnvDebug, "maybe")
	_, err = Load("")
	assert.ErrorContains(t, err, EnvDebug)
}
