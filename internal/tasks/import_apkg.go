package tasks

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/akarpovich/deckport/internal/importer"
)

// ImportArchiveTask imports one uploaded archive in the background. The
// archive is spooled to disk by the enqueuer; the processor owns the file
// and removes it when done.
type ImportArchiveTask struct {
	SessionID  uint   `json:"session_id"`
	FilePath   string `json:"file_path"`
	FileName   string `json:"file_name"`
	TargetDeck string `json:"target_deck,omitempty"`
}

// Single attempt: a corrupt archive fails the same way every time, and the
// spool file is gone after the first run.
const (
	importTimeout   = 10 * time.Minute
	importRetention = 24 * time.Hour
)

// Config returns the queue configuration for archive import tasks.
func (t ImportArchiveTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_apkg",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     importTimeout,
		Retention: &backlite.Retention{
			Duration:   importRetention,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ArchiveImporter runs one import end to end.
type ArchiveImporter interface {
	Run(ctx context.Context, data []byte, opts importer.Options) (*importer.Result, error)
}

// SessionTracker records import run state transitions.
type SessionTracker interface {
	MarkRunning(id uint) error
	Complete(id uint, total, imported, failed int, failures any) error
	Fail(id uint, reason string) error
}

// ImportArchiveProcessor creates a processor function for ImportArchiveTask.
func ImportArchiveProcessor(imp ArchiveImporter, sessions SessionTracker, defaults importer.Options) backlite.QueueProcessor[ImportArchiveTask] {
	return func(ctx context.Context, task ImportArchiveTask) error {
		defer os.Remove(task.FilePath)

		if err := sessions.MarkRunning(task.SessionID); err != nil {
			log.Printf("[QUEUE] failed to mark session %d running: %v", task.SessionID, err)
		}

		data, err := os.ReadFile(task.FilePath)
		if err != nil {
			_ = sessions.Fail(task.SessionID, fmt.Sprintf("upload vanished: %v", err))
			return fmt.Errorf("read spooled archive %s: %w", task.FilePath, err)
		}

		opts := defaults
		opts.FileName = task.FileName
		if task.TargetDeck != "" {
			opts.TargetDeckName = task.TargetDeck
		}

		result, err := imp.Run(ctx, data, opts)
		if err != nil {
			_ = sessions.Fail(task.SessionID, err.Error())
			return fmt.Errorf("import %s: %w", task.FileName, err)
		}

		if err := sessions.Complete(task.SessionID, result.Stats.Total,
			result.Stats.Imported, result.Stats.Failed, result.Failures); err != nil {
			return fmt.Errorf("record session %d: %w", task.SessionID, err)
		}

		log.Printf("[QUEUE] Imported %s: %d of %d cards (%d failed)",
			task.FileName, result.Stats.Imported, result.Stats.Total, result.Stats.Failed)
		return nil
	}
}

// NewImportArchiveQueue creates a backlite queue for archive imports.
func NewImportArchiveQueue(imp ArchiveImporter, sessions SessionTracker, defaults importer.Options) backlite.Queue {
	return backlite.NewQueue(ImportArchiveProcessor(imp, sessions, defaults))
}
