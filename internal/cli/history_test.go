package cli

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storedDocument creates document "home" in a temp database and applies
// testdata/edits.yaml to it. Returns the database path.
func storedDocument(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "blockdoc.db")

	out, err := runCLI(t, "--types", typesDir, "new", "--db", db, "--id", "home")
	require.NoError(t, err)
	require.Contains(t, out, "✓ Created home (1 block(s)")

	out, err = runCLI(t, "--types", typesDir, "apply", filepath.Join("testdata", "edits.yaml"), "--db", db, "--id", "home")
	require.NoError(t, err)
	require.Contains(t, out, "✓ home at seq 3 (3 applied, 0 failed")

	return db
}

func TestHistory_Documents(t *testing.T) {
	db := storedDocument(t)

	out, err := runCLI(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "home\tseq 3\n", out)
}

func TestHistory_DocumentsJSON(t *testing.T) {
	db := storedDocument(t)

	out, err := runCLI(t, "--format", "json", "history", "--db", db)
	require.NoError(t, err)

	var result HistoryResult
	decodeResponse(t, out, &result)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "home", result.Documents[0].ID)
	assert.Equal(t, int64(3), result.Documents[0].LastSeq)
}

func TestHistory_EmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	out, err := runCLI(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No documents found in database.")
}

func TestHistory_Revisions(t *testing.T) {
	db := storedDocument(t)

	out, err := runCLI(t, "--types", typesDir, "--format", "json", "history", "--db", db, "--id", "home")
	require.NoError(t, err)

	var result HistoryResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "home", result.DocumentID)
	require.Len(t, result.Revisions, 4)

	ops := make([]string, len(result.Revisions))
	blocks := make([]int, len(result.Revisions))
	for i, rev := range result.Revisions {
		assert.Equal(t, int64(i), rev.Seq)
		assert.Len(t, rev.Hash, 64)
		ops[i] = rev.Op
		blocks[i] = rev.Blocks
	}
	assert.Equal(t, []string{"", "add", "mutate", "mutate"}, ops)
	assert.Equal(t, []int{1, 3, 3, 3}, blocks)
}

func TestHistory_Text(t *testing.T) {
	db := storedDocument(t)

	out, err := runCLI(t, "history", "--db", db, "--id", "home")
	require.NoError(t, err)
	assert.Contains(t, out, "History of home: 4 revision(s)")
	assert.Contains(t, out, "created")
	assert.Contains(t, out, "mutate")
}

func TestHistory_UnknownDocument(t *testing.T) {
	db := storedDocument(t)

	out, err := runCLI(t, "history", "--db", db, "--id", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeStore)
}

func TestShow_StoredRevision(t *testing.T) {
	db := storedDocument(t)

	out, err := runCLI(t, "--types", typesDir, "--format", "json", "show", "--db", db, "--id", "home", "--seq", "1")
	require.NoError(t, err)

	var result ShowResult
	decodeResponse(t, out, &result)
	require.Len(t, result.Blocks, 3)
	assert.Equal(t, "image", result.Blocks[0].Type)
	assert.False(t, result.Blocks[0].HasValue)

	out, err = runCLI(t, "--types", typesDir, "--format", "json", "show", "--db", db, "--id", "home")
	require.NoError(t, err)

	decodeResponse(t, out, &result)
	require.Len(t, result.Blocks, 3)
	assert.True(t, result.Blocks[0].HasValue)
	assert.True(t, result.Blocks[1].HasValue)
	assert.False(t, result.Blocks[2].HasValue)
}

func TestShow_RevisionByHash(t *testing.T) {
	db := storedDocument(t)

	out, err := runCLI(t, "--types", typesDir, "--format", "json", "history", "--db", db, "--id", "home")
	require.NoError(t, err)
	var history HistoryResult
	decodeResponse(t, out, &history)
	require.Len(t, history.Revisions, 4)

	out, err = runCLI(t, "--types", typesDir, "--format", "json", "show", "--db", db, "--id", "home", "--hash", history.Revisions[1].Hash)
	require.NoError(t, err)

	var result ShowResult
	decodeResponse(t, out, &result)
	require.Len(t, result.Blocks, 3)
	assert.False(t, result.Blocks[0].HasValue)

	out, err = runCLI(t, "--types", typesDir, "validate", "--db", db, "--id", "home", "--hash", history.Revisions[0].Hash)
	require.NoError(t, err, out)
}

func TestShow_UnknownHash(t *testing.T) {
	db := storedDocument(t)

	out, err := runCLI(t, "--types", typesDir, "show", "--db", db, "--id", "home", "--hash", "feed")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeStore)
}

func TestShow_SeqAndHashConflict(t *testing.T) {
	db := storedDocument(t)

	out, err := runCLI(t, "--types", typesDir, "show", "--db", db, "--id", "home", "--seq", "1", "--hash", "feed")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "pass either --seq or --hash")
}

func TestApply_StoredFailedOp(t *testing.T) {
	db := storedDocument(t)

	out, err := runCLI(t, "--types", typesDir, "apply", filepath.Join("testdata", "edits.yaml"), "--db", db, "--id", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `failed to open document "missing"`)
}

func TestReplay_AllMatch(t *testing.T) {
	db := storedDocument(t)

	out, err := runCLI(t, "--types", typesDir, "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 1 document(s)")
	assert.Contains(t, out, "✓ Document: home")
	assert.Contains(t, out, "Ops: 3, final seq 3")
	assert.Contains(t, out, "✓ All documents replay to their stored revisions")
}

func TestReplay_JSON(t *testing.T) {
	db := storedDocument(t)

	out, err := runCLI(t, "--types", typesDir, "--format", "json", "replay", "--db", db, "--id", "home")
	require.NoError(t, err)

	var result ReplayResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.AllMatch)
	assert.Equal(t, 1, result.TotalDocuments)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "home", result.Documents[0].DocumentID)
	assert.Equal(t, result.Documents[0].StoredHash, result.Documents[0].ReplayHash)
}

func TestReplay_JournalGapIsDivergence(t *testing.T) {
	db := storedDocument(t)

	raw, err := sql.Open("sqlite3", db)
	require.NoError(t, err)
	_, err = raw.Exec(`DELETE FROM ops WHERE document_id = 'home' AND seq = 2`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	out, err := runCLI(t, "--types", typesDir, "replay", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Document: home")
	assert.Contains(t, out, "Warning: replay diverged at seq 3")
	assert.Contains(t, out, "journal gap: expected seq 2")
	assert.Contains(t, out, "✗ Replay verification failed")

	out, err = runCLI(t, "--types", typesDir, "--format", "json", "replay", "--db", db)
	require.Error(t, err)

	var result ReplayResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeDivergence, resp.Error.Code)
	require.Len(t, result.Documents, 1)
	assert.False(t, result.Documents[0].Match)
	assert.Equal(t, int64(3), result.Documents[0].DivergedAt)
	assert.Equal(t, int64(1), result.Documents[0].FinalSeq)
}

func TestReplay_EmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	out, err := runCLI(t, "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No documents found in database.")
}
