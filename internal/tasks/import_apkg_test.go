package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarpovich/deckport/internal/importer"
)

type fakeImporter struct {
	gotData []byte
	gotOpts importer.Options
	result  *importer.Result
	err     error
}

func (f *fakeImporter) Run(ctx context.Context, data []byte, opts importer.Options) (*importer.Result, error) {
	f.gotData = data
	f.gotOpts = opts
	return f.result, f.err
}

type fakeSessions struct {
	running   []uint
	completed []uint
	failed    map[uint]string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{failed: map[uint]string{}}
}

func (f *fakeSessions) MarkRunning(id uint) error { f.running = append(f.running, id); return nil }

func (f *fakeSessions) Complete(id uint, total, imported, failed int, failures any) error {
	f.completed = append(f.completed, id)
	return nil
}

func (f *fakeSessions) Fail(id uint, reason string) error { f.failed[id] = reason; return nil }

func spoolFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.apkg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportArchiveProcessor_CompletesSession(t *testing.T) {
	imp := &fakeImporter{result: &importer.Result{
		Success: true,
		Stats:   importer.Stats{Total: 3, Imported: 2, Failed: 1},
	}}
	sessions := newFakeSessions()
	path := spoolFile(t, "archive-bytes")

	processor := ImportArchiveProcessor(imp, sessions, importer.Options{ReuseExistingDecks: true})
	err := processor(context.Background(), ImportArchiveTask{
		SessionID:  5,
		FilePath:   path,
		FileName:   "trip.apkg",
		TargetDeck: "Inbox",
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("archive-bytes"), imp.gotData)
	assert.Equal(t, "trip.apkg", imp.gotOpts.FileName)
	assert.Equal(t, "Inbox", imp.gotOpts.TargetDeckName)
	assert.True(t, imp.gotOpts.ReuseExistingDecks)

	assert.Equal(t, []uint{5}, sessions.running)
	assert.Equal(t, []uint{5}, sessions.completed)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "spooled upload should be removed")
}

func TestImportArchiveProcessor_FailsSessionOnFatalError(t *testing.T) {
	imp := &fakeImporter{result: &importer.Result{}, err: assert.AnError}
	sessions := newFakeSessions()
	path := spoolFile(t, "garbage")

	processor := ImportArchiveProcessor(imp, sessions, importer.Options{})
	err := processor(context.Background(), ImportArchiveTask{SessionID: 9, FilePath: path, FileName: "bad.apkg"})
	require.Error(t, err)

	assert.Contains(t, sessions.failed, uint(9))
	assert.Empty(t, sessions.completed)
}

func TestImportArchiveProcessor_MissingSpoolFailsSession(t *testing.T) {
	imp := &fakeImporter{}
	sessions := newFakeSessions()

	processor := ImportArchiveProcessor(imp, sessions, importer.Options{})
	err := processor(context.Background(), ImportArchiveTask{SessionID: 3, FilePath: "/nonexistent/archive.apkg"})
	require.Error(t, err)
	assert.Contains(t, sessions.failed[3], "upload vanished")
}
