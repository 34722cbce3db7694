package config

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAppliesDefaults(t *testing.T) {
	doc := Config{Store: tomlStore{DSN: "user:pass@tcp(127.0.0.1:3306)/relstore"}}
	resolved, err := resolve(doc)
	require.NoError(t, err)
	assert.Equal(t, "user:pass@tcp(127.0.0.1:3306)/relstore", resolved.DSN)
	assert.Equal(t, []byte(defaultRootSubspace), resolved.RootSubspace)
	assert.Equal(t, defaultMaxRetries, resolved.MaxRetries)
}

func TestResolveHonorsOverrides(t *testing.T) {
	doc := Config{Store: tomlStore{
		DSN:          "dsn",
		RootSubspace: "tenant-a",
		MaxRetries:   3,
	}}
	resolved, err := resolve(doc)
	require.NoError(t, err)
	assert.Equal(t, []byte("tenant-a"), resolved.RootSubspace)
	assert.Equal(t, 3, resolved.MaxRetries)
}

func TestResolveRejectsMissingDSN(t *testing.T) {
	_, err := resolve(Config{})
	assert.Error(t, err)
}

func TestLoadParsesTOMLFile(t *testing.T) {
	path := writeTempFile(t, `
[store]
dsn = "user:pass@tcp(127.0.0.1:3306)/relstore"
root_subspace = "tenant-b"
max_retries = 5
`)

	resolved, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "user:pass@tcp(127.0.0.1:3306)/relstore", resolved.DSN)
	assert.Equal(t, []byte("tenant-b"), resolved.RootSubspace)
	assert.Equal(t, 5, resolved.MaxRetries)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.toml")
	assert.Error(t, err)
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "relstore-config-*.toml")
	require.NoError(t, err)
	_, err = f.WriteString(strings.TrimSpace(content))
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}
