package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarpovich/deckport/internal/importer"
)

type recordingImporter struct {
	runs []string
	err  error
}

func (r *recordingImporter) Run(ctx context.Context, data []byte, opts importer.Options) (*importer.Result, error) {
	r.runs = append(r.runs, opts.FileName)
	return &importer.Result{Success: r.err == nil}, r.err
}

type memoryLedger struct {
	hashes map[string]bool
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{hashes: map[string]bool{}}
}

func (l *memoryLedger) IsImported(hash string) (bool, error) {
	return l.hashes[hash], nil
}

func (l *memoryLedger) MarkImported(path, hash string) error {
	l.hashes[hash] = true
	return nil
}

func writeArchive(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestScan_ImportsNewArchivesOnce(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "first.apkg", "alpha")
	writeArchive(t, dir, "second.APKG", "beta")
	writeArchive(t, dir, "notes.txt", "ignored")

	imp := &recordingImporter{}
	ledger := newMemoryLedger()
	scheduler := NewWatchFolderScheduler(dir, "* * * * *", imp, ledger, importer.Options{})

	scheduler.Scan(context.Background())
	assert.ElementsMatch(t, []string{"first.apkg", "second.APKG"}, imp.runs)

	// A second scan with unchanged content imports nothing new.
	scheduler.Scan(context.Background())
	assert.Len(t, imp.runs, 2)
}

func TestScan_ChangedContentReimports(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "deck.apkg", "v1")

	imp := &recordingImporter{}
	ledger := newMemoryLedger()
	scheduler := NewWatchFolderScheduler(dir, "* * * * *", imp, ledger, importer.Options{})

	scheduler.Scan(context.Background())
	writeArchive(t, dir, "deck.apkg", "v2")
	scheduler.Scan(context.Background())

	assert.Len(t, imp.runs, 2)
}

func TestScan_FailedImportIsNotRetried(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "broken.apkg", "garbage")

	imp := &recordingImporter{err: assert.AnError}
	ledger := newMemoryLedger()
	scheduler := NewWatchFolderScheduler(dir, "* * * * *", imp, ledger, importer.Options{})

	scheduler.Scan(context.Background())
	scheduler.Scan(context.Background())

	assert.Len(t, imp.runs, 1)
}

func TestStartStop(t *testing.T) {
	scheduler := NewWatchFolderScheduler(t.TempDir(), "* * * * *", &recordingImporter{}, newMemoryLedger(), importer.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, scheduler.Start(ctx))
	scheduler.Stop()
}
