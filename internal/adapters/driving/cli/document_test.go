package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragvault/internal/core/domain"
)

func TestDocumentCommands_Use(t *testing.T) {
	assert.Equal(t, "status", statusCmd.Use)
	assert.Equal(t, "versions [path]", versionsCmd.Use)
	assert.Equal(t, "rollback [path] [version]", rollbackCmd.Use)
	assert.Equal(t, "diff [path] [from] [to]", diffCmd.Use)
	assert.Equal(t, "get [path]", contentGetCmd.Use)
	assert.Equal(t, "put [path]", contentPutCmd.Use)
}

func TestStatusCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("status")

	require.NoError(t, err)
	assert.Contains(t, out, "guide.md")
	assert.Contains(t, out, "Version: 1 of 2")
	assert.Contains(t, out, "Total: 1 documents, 10 chunks across all versions")
}

func TestStatusCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("status", "--json")

	require.NoError(t, err)
	var report domain.StatusReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 10, report.TotalChunks)
}

func TestVersionsCmd_MarksActive(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("versions", "guide.md")

	require.NoError(t, err)
	assert.Contains(t, out, "* 1")
	assert.Contains(t, out, "  2")
}

func TestVersionsCmd_RequiresPath(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("versions")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestRollbackCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("rollback", "guide.md", "1")

	require.NoError(t, err)
	assert.Equal(t, []any{"guide.md", 1}, mocks.document.args)
	assert.Contains(t, out, "guide.md now serves version 1 of 3.")
}

func TestRollbackCmd_NonNumericVersion(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("rollback", "guide.md", "latest")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, mocks.document.args)
}

func TestRollbackCmd_OutOfRange(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.document.err = domain.ErrInvalidRange

	_, err := execute("rollback", "guide.md", "9")

	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestDiffCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("diff", "guide.md", "1", "2")

	require.NoError(t, err)
	assert.Equal(t, []any{"guide.md", 1, 2}, mocks.document.args)
	assert.Contains(t, out, "guide.md v1 -> v2: 0 added, 1 changed, 0 removed, 4 unchanged")
	// Output is a buffer, so the diff is not coloured.
	assert.Contains(t, out, "-old line\n+new line\n")
}

func TestDiffCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("diff", "guide.md", "1", "2", "--json")

	require.NoError(t, err)
	var report domain.DiffReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Summary.Changed)
}

func TestDiffCmd_BadVersion(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("diff", "guide.md", "one", "2")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRenderDiff(t *testing.T) {
	diff := "--- v1\n+++ v2\n@@ -1 +1 @@\n-old\n+new\n same\n"

	assert.Equal(t, diff, renderDiff(diff, false))

	coloured := renderDiff(diff, true)
	for _, line := range []string{"-old", "+new", " same", "@@ -1 +1 @@"} {
		assert.Contains(t, coloured, line)
	}
}

func TestContentGetCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.document.content = "# Guide"

	out, err := execute("content", "get", "guide.md")

	require.NoError(t, err)
	assert.Equal(t, "# Guide\n", out)
}

func TestContentGetCmd_InvalidPath(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.document.err = domain.ErrInvalidPath

	_, err := execute("content", "get", "../etc/passwd")

	assert.ErrorIs(t, err, domain.ErrInvalidPath)
}

func TestContentPutCmd_FromStdin(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	rootCmd.SetIn(bytes.NewBufferString("new text\n"))

	out, err := execute("content", "put", "notes/a.md")

	require.NoError(t, err)
	assert.Equal(t, "new text\n", mocks.document.written["notes/a.md"])
	assert.Contains(t, out, "Wrote 9 bytes to notes/a.md")
}

func TestContentPutCmd_FromFile(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	src := filepath.Join(t.TempDir(), "draft.md")
	require.NoError(t, os.WriteFile(src, []byte("from file"), 0o600))

	_, err := execute("content", "put", "guide.md", "--file", src)

	require.NoError(t, err)
	assert.Equal(t, "from file", mocks.document.written["guide.md"])
}

func TestContentPutCmd_MissingFile(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("content", "put", "guide.md", "--file", filepath.Join(t.TempDir(), "missing.md"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestDocumentCommands_NotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	documentService = nil

	for _, args := range [][]string{
		{"status"},
		{"versions", "a.md"},
		{"rollback", "a.md", "1"},
		{"diff", "a.md", "1", "2"},
		{"content", "get", "a.md"},
	} {
		_, err := execute(args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "document service not configured")
	}
}
