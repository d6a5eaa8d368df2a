package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sink.env")
	assert.NoError(t, os.WriteFile(path, []byte("SINK_TEST_BUCKET=blocks\nSINK_TEST_KEEP=file\n"), 0o600))

	t.Setenv("SINK_TEST_KEEP", "process")
	defer os.Unsetenv("SINK_TEST_BUCKET")

	Load(filepath.Join(dir, "missing.env"), path)

	assert.Equal(t, "blocks", os.Getenv("SINK_TEST_BUCKET"))
	assert.Equal(t, "process", os.Getenv("SINK_TEST_KEEP"))
}
