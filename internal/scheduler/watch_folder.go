package scheduler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/akarpovich/deckport/internal/importer"
)

// ImportedFileLedger remembers which archives were already picked up.
type ImportedFileLedger interface {
	IsImported(hash string) (bool, error)
	MarkImported(path, hash string) error
}

// ArchiveImporter runs one import end to end.
type ArchiveImporter interface {
	Run(ctx context.Context, data []byte, opts importer.Options) (*importer.Result, error)
}

// WatchFolderScheduler periodically scans a directory for new .apkg
// archives and imports each content version once.
type WatchFolderScheduler struct {
	dir      string
	schedule string
	importer ArchiveImporter
	ledger   ImportedFileLedger
	defaults importer.Options

	cron       *cron.Cron
	mu         sync.Mutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewWatchFolderScheduler creates a scheduler over the given directory.
func NewWatchFolderScheduler(dir, schedule string, imp ArchiveImporter, ledger ImportedFileLedger, defaults importer.Options) *WatchFolderScheduler {
	return &WatchFolderScheduler{
		dir:      dir,
		schedule: schedule,
		importer: imp,
		ledger:   ledger,
		defaults: defaults,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the periodic scan.
func (s *WatchFolderScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if s.dir == "" {
		log.Printf("Watch folder scheduler: directory not configured, skipping")
		return nil
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.Scan(cancelCtx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule watch folder scan: %w", err)
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Watch folder scheduler: watching %s with schedule '%s'", s.dir, s.schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running scan.
func (s *WatchFolderScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("Watch folder scheduler: stopped")
}

// Scan walks the watch directory once and imports every archive whose
// content hash is not yet in the ledger. One bad archive never stops the
// scan; it is recorded as imported so it is not retried forever.
func (s *WatchFolderScheduler) Scan(ctx context.Context) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Printf("Watch folder scan failed: %v", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".apkg") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := s.importOne(ctx, path, entry.Name()); err != nil {
			log.Printf("Watch folder: %s: %v", entry.Name(), err)
		}
	}
}

func (s *WatchFolderScheduler) importOne(ctx context.Context, path, name string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	seen, err := s.ledger.IsImported(hash)
	if err != nil {
		return fmt.Errorf("check ledger: %w", err)
	}
	if seen {
		return nil
	}

	opts := s.defaults
	opts.FileName = name

	result, runErr := s.importer.Run(ctx, data, opts)
	if runErr != nil {
		// Mark it anyway: a corrupt file will not repair itself, and
		// replacing it changes the hash.
		if err := s.ledger.MarkImported(path, hash); err != nil {
			log.Printf("Watch folder: failed to record %s: %v", name, err)
		}
		return fmt.Errorf("import: %w", runErr)
	}

	if err := s.ledger.MarkImported(path, hash); err != nil {
		return fmt.Errorf("record import: %w", err)
	}

	log.Printf("Watch folder: imported %s (%d of %d cards, %d failed)",
		name, result.Stats.Imported, result.Stats.Total, result.Stats.Failed)
	return nil
}
