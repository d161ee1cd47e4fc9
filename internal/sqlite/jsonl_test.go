// Tests for JSONL backup and restore.
package sqlite

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndrewLang/matrix-codex-flow/pkg/types"
)

func seedChat(t *testing.T, s *Store) {
	t.Helper()
	require.NoError(t, s.SaveProject(sampleProject("p1")))
	require.NoError(t, s.SaveProject(sampleProject("p2")))
	require.NoError(t, s.SaveChatThread(&types.ChatThread{ID: "th1", ProjectID: "p1", Title: "chat", CreatedAt: 1, UpdatedAt: 1}))
	require.NoError(t, s.SaveChatThread(&types.ChatThread{ID: "th2", ProjectID: "p1", Title: "empty", CreatedAt: 2, UpdatedAt: 2}))
	require.NoError(t, s.SaveChatMessage(&types.ChatMessage{ID: "m1", ThreadID: "th1", Role: "user", Content: "hi", CreatedAt: 10}))
	require.NoError(t, s.SaveChatMessage(&types.ChatMessage{ID: "m2", ThreadID: "th1", Role: "assistant", Content: "hello", Model: "codex", CreatedAt: 11}))
}

func TestExportImportRoundTrip(t *testing.T) {
	src := setupStore(t)
	seedChat(t, src)

	var buf bytes.Buffer
	require.NoError(t, src.Export(&buf))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// 2 projects, 2 threads, 2 messages.
	assert.Len(t, lines, 6)

	dst := setupStore(t)
	report, err := dst.Import(&buf)
	require.NoError(t, err)
	assert.Equal(t, ImportReport{Projects: 2, Threads: 2, Messages: 2}, report)

	for _, id := range []string{"p1", "p2"} {
		want, _, err := src.LoadProject(id)
		require.NoError(t, err)
		got, found, err := dst.LoadProject(id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, want, got)
	}

	msgs, err := dst.ListChatMessages("th1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "codex", msgs[1].Model)

	th, found, err := dst.LoadChatThread("th2")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "empty", th.Title)
}

func TestImportSkipsBadRecords(t *testing.T) {
	s := setupStore(t)
	input := strings.Join([]string{
		`{"kind":"project","project":{"id":"p1","name":"one","path":"/one","rules":[],"tasks":[],"createdAt":1,"updatedAt":1}}`,
		`not json at all`,
		``,
		`{"kind":"widget"}`,
		`{"kind":"project","project":{"id":""}}`,
		`{"kind":"thread","thread":{"id":"orphan","projectId":"ghost","title":"x"}}`,
		`{"kind":"thread","thread":{"id":"th1","projectId":"p1","title":"ok"}}`,
		`{"kind":"message","message":{"id":"m1","threadId":"th1","role":"user","content":"hi","createdAt":5}}`,
		`{"kind":"message","message":{"id":"m2","threadId":"missing","role":"user","content":"lost","createdAt":6}}`,
		`{"kind":"project","project":{"id":"p2","name":"two","path":"/two","tasks":[{"id":"t","title":"a"},{"id":"t","title":"b"}]}}`,
	}, "\n")

	report, err := s.Import(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Projects)
	assert.Equal(t, 1, report.Threads)
	assert.Equal(t, 1, report.Messages)
	assert.Equal(t, 5, report.Skipped)

	_, found, err := s.LoadProject("p2")
	require.NoError(t, err)
	assert.False(t, found, "rejected project must leave no row behind")

	_, found, err = s.LoadChatThread("orphan")
	require.NoError(t, err)
	assert.False(t, found)

	th, _, err := s.LoadChatThread("th1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), th.UpdatedAt)
}

func TestImportReplacesExistingSubtree(t *testing.T) {
	s := setupStore(t)
	require.NoError(t, s.SaveProject(sampleProject("p1")))

	input := `{"kind":"project","project":{"id":"p1","name":"restored","path":"/r","tasks":[{"id":"only","title":"t","status":"failed"}]}}`
	_, err := s.Import(strings.NewReader(input))
	require.NoError(t, err)

	p, _, err := s.LoadProject("p1")
	require.NoError(t, err)
	assert.Equal(t, "restored", p.Name)
	assert.Empty(t, p.Rules)
	require.Len(t, p.Tasks, 1)
	assert.Equal(t, types.StatusFailed, p.Tasks[0].Status)
}

func TestExportFileAndImportFile(t *testing.T) {
	src := setupStore(t)
	seedChat(t, src)

	path := filepath.Join(t.TempDir(), "backup.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))
	require.NoError(t, src.ExportFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
	assert.True(t, strings.HasSuffix(string(data), "\n"))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")

	dst := setupStore(t)
	report, err := dst.ImportFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Projects)

	projects, err := dst.ListProjects()
	require.NoError(t, err)
	assert.Len(t, projects, 2)
}

func TestImportFileMissing(t *testing.T) {
	s := setupStore(t)
	_, err := s.ImportFile(filepath.Join(t.TempDir(), "nope.jsonl"))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStorage)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExportEmptyStore(t *testing.T) {
	s := setupStore(t)
	var buf bytes.Buffer
	require.NoError(t, s.Export(&buf))
	assert.Zero(t, buf.Len())
}

func TestDecodeJSONLSkipsMalformedLines(t *testing.T) {
	input := "{\"a\":1}\n{broken\n\n[1,2]\n"
	records, err := decodeJSONL(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.JSONEq(t, `{"a":1}`, string(records[0]))
	assert.JSONEq(t, `[1,2]`, string(records[1]))
}
