package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// Client runs the background import queue on top of backlite. The queue
// lives in its own SQLite file so a long import cannot contend with the
// card store for the write lock.
type Client struct {
	client *backlite.Client
	db     *sql.DB
	config Config

	mu      sync.RWMutex
	started bool
}

// queueDBPath derives the queue database path from the card store path,
// e.g. ./deckport.db -> ./deckport-queue.db.
func queueDBPath(storePath string) string {
	ext := filepath.Ext(storePath)
	return strings.TrimSuffix(storePath, ext) + "-queue" + ext
}

// NewClient opens the queue database next to the card store and installs
// the backlite schema.
func NewClient(storePath string, cfg Config) (*Client, error) {
	db, err := sql.Open("sqlite3", queueDBPath(storePath)+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open queue database: %w", err)
	}

	// Workers plus headroom for enqueues from request handlers.
	db.SetMaxOpenConns(cfg.Workers + 3)
	db.SetMaxIdleConns(cfg.Workers + 1)
	db.SetConnMaxLifetime(time.Hour)

	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          &queueLogger{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create backlite client: %w", err)
	}

	if err := client.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install backlite schema: %w", err)
	}

	return &Client{
		client: client,
		db:     db,
		config: cfg,
	}, nil
}

// Register registers task queues. Must be called before Start().
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.client.Register(q)
	}
}

// Start begins processing queued imports. Non-blocking callers run it in a
// goroutine and use Stop() for shutdown.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	log.Printf("Import queue started with %d worker(s)", c.config.Workers)
	c.client.Start(ctx)
}

// Stop waits for in-flight imports to finish. Returns true if all workers
// drained before the context deadline.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.RLock()
	if !c.started {
		c.mu.RUnlock()
		return true
	}
	c.mu.RUnlock()

	log.Println("Stopping import queue...")
	if c.client.Stop(ctx) {
		log.Println("Import queue stopped")
		return true
	}
	log.Println("Import queue stop timed out; an import may still be running")
	return false
}

// Close releases the queue database. Call after Stop().
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Add starts an operation to enqueue one or more tasks.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.client.Add(tasks...)
}

// queueLogger routes backlite output through the standard logger.
type queueLogger struct{}

func (l *queueLogger) Info(message string, params ...any) {
	log.Printf("[QUEUE] "+message, params...)
}

func (l *queueLogger) Error(message string, params ...any) {
	log.Printf("[QUEUE ERROR] "+message, params...)
}
