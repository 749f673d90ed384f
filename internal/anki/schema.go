package anki

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrUnsupportedSchema indicates the collection database is missing the
// tables or columns this reader expects.
var ErrUnsupportedSchema = errors.New("unsupported collection schema")

// FieldSeparator joins the ordered field values of a note in the notes table.
const FieldSeparator = "\x1f"

// DeckPathSeparator separates hierarchy segments in deck names.
const DeckPathSeparator = "::"

// requiredTables are the logical tables a readable collection must carry.
var requiredTables = []string{"col", "notes", "cards"}

// collectionModel mirrors the JSON blob stored in col.models.
type collectionModel struct {
	Name  string `json:"name"`
	Type  int    `json:"type"`
	Flds  []struct {
		Name string `json:"name"`
		Ord  int    `json:"ord"`
	} `json:"flds"`
	Tmpls []struct {
		Name string `json:"name"`
		Ord  int    `json:"ord"`
		Qfmt string `json:"qfmt"`
		Afmt string `json:"afmt"`
	} `json:"tmpls"`
}

// collectionDeck mirrors the JSON blob stored in col.decks.
type collectionDeck struct {
	Name string `json:"name"`
}

// SchemaReader reads the four logical tables from an extracted collection
// database in a single pass each.
type SchemaReader struct {
	dbPath string
}

// NewSchemaReader creates a reader for the given collection database path.
func NewSchemaReader(dbPath string) *SchemaReader {
	return &SchemaReader{dbPath: dbPath}
}

// ReadSchema loads note-types, decks, notes and cards. A missing table or
// column is fatal (ErrUnsupportedSchema); individual rows that fail to
// decode are dropped and recorded as warnings.
func (r *SchemaReader) ReadSchema(ctx context.Context) (*Schema, error) {
	db, err := sql.Open("sqlite3", r.dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open collection database: %w", err)
	}
	defer db.Close()

	if err := checkTables(ctx, db); err != nil {
		return nil, err
	}

	schema := &Schema{NoteTypes: make(map[int64]*NoteType)}

	if err := r.readCollection(ctx, db, schema); err != nil {
		return nil, err
	}
	if err := r.readNotes(ctx, db, schema); err != nil {
		return nil, err
	}
	if err := r.readCards(ctx, db, schema); err != nil {
		return nil, err
	}

	return schema, nil
}

// checkTables verifies the expected tables exist before any reads.
func checkTables(ctx context.Context, db *sql.DB) error {
	for _, table := range requiredTables {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&name)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: missing table %q", ErrUnsupportedSchema, table)
		}
		if err != nil {
			return fmt.Errorf("failed to inspect schema: %w", err)
		}
	}
	return nil
}

// readCollection parses the models and decks JSON blobs from the single col row.
func (r *SchemaReader) readCollection(ctx context.Context, db *sql.DB, schema *Schema) error {
	var modelsJSON, decksJSON string
	err := db.QueryRowContext(ctx, `SELECT models, decks FROM col LIMIT 1`).Scan(&modelsJSON, &decksJSON)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: empty col table", ErrUnsupportedSchema)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedSchema, err)
	}

	var models map[string]collectionModel
	if err := json.Unmarshal([]byte(modelsJSON), &models); err != nil {
		return fmt.Errorf("%w: bad models blob: %v", ErrUnsupportedSchema, err)
	}

	for idStr, model := range models {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			schema.Warnings = append(schema.Warnings, fmt.Sprintf("dropped note-type with non-numeric id %q", idStr))
			continue
		}

		noteType := &NoteType{
			ID:   id,
			Name: model.Name,
			Kind: NoteTypeStandard,
		}
		if model.Type == 1 {
			noteType.Kind = NoteTypeCloze
		}

		sort.Slice(model.Flds, func(i, j int) bool { return model.Flds[i].Ord < model.Flds[j].Ord })
		for _, f := range model.Flds {
			noteType.Fields = append(noteType.Fields, f.Name)
		}

		sort.Slice(model.Tmpls, func(i, j int) bool { return model.Tmpls[i].Ord < model.Tmpls[j].Ord })
		for _, t := range model.Tmpls {
			noteType.Templates = append(noteType.Templates, Template{
				Name:  t.Name,
				Ord:   t.Ord,
				Front: t.Qfmt,
				Back:  t.Afmt,
			})
		}

		schema.NoteTypes[id] = noteType
	}

	var decks map[string]collectionDeck
	if err := json.Unmarshal([]byte(decksJSON), &decks); err != nil {
		return fmt.Errorf("%w: bad decks blob: %v", ErrUnsupportedSchema, err)
	}

	for idStr, deck := range decks {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			schema.Warnings = append(schema.Warnings, fmt.Sprintf("dropped deck with non-numeric id %q", idStr))
			continue
		}
		schema.Decks = append(schema.Decks, SourceDeck{
			ID:   id,
			Name: deck.Name,
			Path: strings.Split(deck.Name, DeckPathSeparator),
		})
	}
	sort.Slice(schema.Decks, func(i, j int) bool { return schema.Decks[i].ID < schema.Decks[j].ID })

	return nil
}

// readNotes reads all note rows; undecodable rows are dropped with a warning.
func (r *SchemaReader) readNotes(ctx context.Context, db *sql.DB, schema *Schema) error {
	rows, err := db.QueryContext(ctx, `SELECT id, mid, flds, tags FROM notes ORDER BY id`)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedSchema, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, mid    int64
			flds, tags string
		)
		if err := rows.Scan(&id, &mid, &flds, &tags); err != nil {
			schema.Warnings = append(schema.Warnings, fmt.Sprintf("dropped unreadable note row: %v", err))
			continue
		}
		schema.Notes = append(schema.Notes, SourceNote{
			ID:         id,
			NoteTypeID: mid,
			Fields:     strings.Split(flds, FieldSeparator),
			Tags:       strings.Fields(tags),
		})
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating notes: %w", err)
	}
	return nil
}

// readCards reads all card rows; undecodable rows are dropped with a warning.
func (r *SchemaReader) readCards(ctx context.Context, db *sql.DB, schema *Schema) error {
	rows, err := db.QueryContext(ctx, `SELECT id, nid, did, ord FROM cards ORDER BY id`)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedSchema, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, nid, did int64
			ord          int
		)
		if err := rows.Scan(&id, &nid, &did, &ord); err != nil {
			schema.Warnings = append(schema.Warnings, fmt.Sprintf("dropped unreadable card row: %v", err))
			continue
		}
		schema.Cards = append(schema.Cards, SourceCard{
			ID:          id,
			NoteID:      nid,
			TemplateOrd: ord,
			DeckID:      did,
		})
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating cards: %w", err)
	}
	return nil
}
