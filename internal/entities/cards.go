package entities

import (
	"time"

	"gorm.io/gorm"
)

type CardType string

const (
	CardTypeQA     CardType = "qa"
	CardTypeCloze  CardType = "cloze"
	CardTypeChoice CardType = "choice"
)

type ImportStatus string

const (
	ImportStatusPending   ImportStatus = "pending"
	ImportStatusRunning   ImportStatus = "running"
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusFailed    ImportStatus = "failed"
)

// Deck is a named collection of cards. Hierarchical decks store their
// full path ("Languages/French/Verbs") alongside the leaf name.
type Deck struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"index;size:256" json:"name"`
	Path      string         `gorm:"uniqueIndex;size:1024" json:"path"`
	Cards     []Card         `gorm:"foreignKey:DeckID" json:"cards,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Card is one imported flashcard. Front/Back carry markdown for QA cards;
// cloze cards keep their whole payload in Text; choice cards store the
// question in Front with options and correct indices serialized separately.
type Card struct {
	ID   uint     `gorm:"primaryKey" json:"id"`
	Type CardType `gorm:"index;size:16" json:"type"`

	Front string `gorm:"type:text" json:"front,omitempty"`
	Back  string `gorm:"type:text" json:"back,omitempty"`
	Text  string `gorm:"type:text" json:"text,omitempty"`

	// Options and CorrectIndices are newline- and comma-separated
	// respectively; only populated for choice cards.
	Options        string `gorm:"type:text" json:"options,omitempty"`
	CorrectIndices string `gorm:"size:256" json:"correct_indices,omitempty"`

	Tags string `gorm:"size:1024" json:"tags,omitempty"`

	// Provenance back to the source archive.
	SourceNoteID int64 `gorm:"index" json:"source_note_id"`
	SourceCardID int64 `gorm:"uniqueIndex" json:"source_card_id"`

	DeckID    uint           `gorm:"index" json:"deck_id"`
	Deck      Deck           `gorm:"foreignKey:DeckID" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// MediaAsset is one unique binary blob persisted to the vault,
// content-addressed by SHA-256 and reference-counted across the import.
type MediaAsset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Hash      string    `gorm:"uniqueIndex;size:64" json:"hash"`
	StoredRef string    `gorm:"size:1024" json:"stored_ref"`
	Size      int64     `json:"size"`
	RefCount  int       `json:"ref_count"`
	CreatedAt time.Time `json:"created_at"`
}

// ImportSession records one import run and its outcome.
type ImportSession struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	FileName    string       `gorm:"size:512" json:"file_name"`
	Status      ImportStatus `gorm:"size:20;index" json:"status"`
	Total       int          `json:"total"`
	Imported    int          `json:"imported"`
	Failed      int          `json:"failed"`
	Error       string       `gorm:"type:text" json:"error,omitempty"`
	FailureJSON string       `gorm:"type:text" json:"-"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// ImportedFile marks an archive the watch-folder scheduler has already
// picked up, keyed by path plus content hash so re-exports re-import.
type ImportedFile struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Path       string    `gorm:"index;size:1024" json:"path"`
	Hash       string    `gorm:"uniqueIndex;size:64" json:"hash"`
	ImportedAt time.Time `json:"imported_at"`
}
