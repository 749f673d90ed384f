package anki

// NoteTypeKind distinguishes standard front/back note-types from cloze ones.
type NoteTypeKind int

const (
	NoteTypeStandard NoteTypeKind = 0
	NoteTypeCloze    NoteTypeKind = 1
)

// Template is one front/back markup pair of a note-type. Each template
// produces one renderable card per note.
type Template struct {
	Name  string
	Ord   int
	Front string // qfmt
	Back  string // afmt
}

// NoteType describes a note schema: its ordered field names and render
// templates. Anki calls these "models".
type NoteType struct {
	ID        int64
	Name      string
	Kind      NoteTypeKind
	Fields    []string
	Templates []Template
}

// FieldIndex returns the position of the named field, or -1.
func (nt *NoteType) FieldIndex(name string) int {
	for i, f := range nt.Fields {
		if f == name {
			return i
		}
	}
	return -1
}

// SourceDeck is one deck from the source collection. Path holds the
// hierarchy segments split on Anki's "::" separator.
type SourceDeck struct {
	ID   int64
	Name string
	Path []string
}

// SourceNote is one field-value record. Fields is ordered and must match
// the note-type's field count; mismatches are row-level failures downstream.
type SourceNote struct {
	ID         int64
	NoteTypeID int64
	Fields     []string
	Tags       []string
}

// SourceCard is one renderable instance of a note: the note rendered
// through template TemplateOrd, filed under DeckID.
type SourceCard struct {
	ID          int64
	NoteID      int64
	TemplateOrd int
	DeckID      int64
}

// Schema is the result of a full read of the collection database.
// Warnings carry dropped-row diagnostics that cannot be attributed to a
// specific output card.
type Schema struct {
	NoteTypes map[int64]*NoteType
	Decks     []SourceDeck
	Notes     []SourceNote
	Cards     []SourceCard
	Warnings  []string
}
