package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSchema_Embedded(t *testing.T) {
	content, err := loadSchema(EmbeddedSchema)
	require.NoError(t, err)
	assert.Contains(t, content, "CREATE TABLE IF NOT EXISTS distribution_plans")
	assert.Contains(t, content, "CREATE TABLE IF NOT EXISTS safety_thresholds")
}

func TestLoadSchema_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.sql")
	require.NoError(t, os.WriteFile(path, []byte("SELECT 1;"), 0o600))

	content, err := loadSchema(path)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1;", content)

	_, err = loadSchema(filepath.Join(t.TempDir(), "missing.sql"))
	assert.Error(t, err)
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "relief", Password: "secret", Name: "relief_db", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=relief password=secret dbname=relief_db sslmode=disable", cfg.DSN())
}
