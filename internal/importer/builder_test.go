package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarpovich/deckport/internal/anki"
	"github.com/akarpovich/deckport/internal/entities"
	"github.com/akarpovich/deckport/internal/templates"
)

func basicNoteType() *anki.NoteType {
	return &anki.NoteType{
		ID:     1000,
		Name:   "Basic",
		Kind:   anki.NoteTypeStandard,
		Fields: []string{"Front", "Back"},
	}
}

func choiceNoteType() *anki.NoteType {
	return &anki.NoteType{
		ID:     3000,
		Name:   "Multiple Choice",
		Kind:   anki.NoteTypeStandard,
		Fields: []string{"Question", "Options", "Answer"},
	}
}

func bothSides(fields ...string) templates.FieldSideMap {
	sides := templates.FieldSideMap{}
	for _, f := range fields {
		sides[f] = templates.SideBoth
	}
	return sides
}

func TestBuild_QACard(t *testing.T) {
	builder := NewBuilder(DefaultConfig())
	note := &anki.SourceNote{
		ID:         1,
		NoteTypeID: 1000,
		Fields:     []string{"capital of <b>France</b>", "Paris"},
		Tags:       []string{"geo", "europe"},
	}
	card := &anki.SourceCard{ID: 10, NoteID: 1}
	sides := templates.FieldSideMap{"Front": templates.SideFront, "Back": templates.SideBack}

	built, warnings, failure := builder.Build(note, basicNoteType(), card, sides, nil)
	require.Nil(t, failure)
	assert.Empty(t, warnings)

	assert.Equal(t, entities.CardTypeQA, built.Type)
	assert.Equal(t, "capital of **France**", built.Front)
	assert.Equal(t, "Paris", built.Back)
	assert.Equal(t, "geo europe", built.Tags)
	assert.Equal(t, int64(1), built.SourceNoteID)
	assert.Equal(t, int64(10), built.SourceCardID)
}

func TestBuild_FieldOnBothSidesAppearsTwice(t *testing.T) {
	builder := NewBuilder(DefaultConfig())
	note := &anki.SourceNote{
		ID:         2,
		NoteTypeID: 1000,
		Fields:     []string{"question", "shared"},
	}
	sides := templates.FieldSideMap{"Front": templates.SideFront, "Back": templates.SideBoth}

	built, _, failure := builder.Build(note, basicNoteType(), &anki.SourceCard{ID: 20, NoteID: 2}, sides, nil)
	require.Nil(t, failure)

	assert.Equal(t, "question\n\nshared", built.Front)
	assert.Equal(t, "shared", built.Back)
}

func TestBuild_FieldCountMismatchFails(t *testing.T) {
	builder := NewBuilder(DefaultConfig())
	note := &anki.SourceNote{
		ID:         3,
		NoteTypeID: 1000,
		Fields:     []string{"only one value"},
	}

	built, _, failure := builder.Build(note, basicNoteType(), &anki.SourceCard{ID: 30, NoteID: 3}, nil, nil)
	assert.Nil(t, built)
	require.NotNil(t, failure)
	assert.Equal(t, int64(30), failure.SourceCardID)
	assert.Equal(t, "Basic", failure.NoteTypeName)
	assert.Contains(t, failure.Reason, "field count mismatch")
	assert.Equal(t, "only one value", failure.FieldPreview)
}

func TestBuild_ClozeByNoteTypeKind(t *testing.T) {
	builder := NewBuilder(DefaultConfig())
	noteType := &anki.NoteType{
		ID:     2000,
		Name:   "Cloze",
		Kind:   anki.NoteTypeCloze,
		Fields: []string{"Text", "Extra"},
	}
	note := &anki.SourceNote{
		ID:         4,
		NoteTypeID: 2000,
		Fields:     []string{"{{c1::Paris}} is the capital", "extra context"},
	}

	built, _, failure := builder.Build(note, noteType, &anki.SourceCard{ID: 40, NoteID: 4}, bothSides("Text", "Extra"), nil)
	require.Nil(t, failure)

	assert.Equal(t, entities.CardTypeCloze, built.Type)
	assert.Equal(t, "{{c1::Paris}} is the capital", built.Text)
}

func TestBuild_ClozeSyntaxOverridesStandardKind(t *testing.T) {
	builder := NewBuilder(DefaultConfig())
	note := &anki.SourceNote{
		ID:         5,
		NoteTypeID: 1000,
		Fields:     []string{"plain front", "the answer is {{c1::42}}"},
	}

	built, _, failure := builder.Build(note, basicNoteType(), &anki.SourceCard{ID: 50, NoteID: 5}, bothSides("Front", "Back"), nil)
	require.Nil(t, failure)

	assert.Equal(t, entities.CardTypeCloze, built.Type)
	assert.Equal(t, "the answer is {{c1::42}}", built.Text)
}

func TestBuild_ChoiceCardNumericAnswers(t *testing.T) {
	builder := NewBuilder(DefaultConfig())
	note := &anki.SourceNote{
		ID:         6,
		NoteTypeID: 3000,
		Fields:     []string{"Which are primes?", "4\n5\n6\n7", "2, 4"},
	}

	built, _, failure := builder.Build(note, choiceNoteType(), &anki.SourceCard{ID: 60, NoteID: 6}, bothSides("Question", "Options", "Answer"), nil)
	require.Nil(t, failure)

	assert.Equal(t, entities.CardTypeChoice, built.Type)
	assert.Equal(t, "Which are primes?", built.Front)
	assert.Equal(t, []string{"4", "5", "6", "7"}, strings.Split(built.Options, "\n"))
	assert.Equal(t, "1,3", built.CorrectIndices)
}

func TestBuild_ChoiceCardTextAnswerAndPipeOptions(t *testing.T) {
	builder := NewBuilder(DefaultConfig())
	note := &anki.SourceNote{
		ID:         7,
		NoteTypeID: 3000,
		Fields:     []string{"Pick the capital", "Lyon | Paris | Nice", "paris"},
	}

	built, _, failure := builder.Build(note, choiceNoteType(), &anki.SourceCard{ID: 70, NoteID: 7}, bothSides("Question", "Options", "Answer"), nil)
	require.Nil(t, failure)

	assert.Equal(t, "Lyon\nParis\nNice", built.Options)
	assert.Equal(t, "1", built.CorrectIndices)
}

func TestBuild_ChoiceAnswerMatchingNoOptionFails(t *testing.T) {
	builder := NewBuilder(DefaultConfig())
	note := &anki.SourceNote{
		ID:         8,
		NoteTypeID: 3000,
		Fields:     []string{"question", "a\nb", "c"},
	}

	built, _, failure := builder.Build(note, choiceNoteType(), &anki.SourceCard{ID: 80, NoteID: 8}, bothSides("Question", "Options", "Answer"), nil)
	assert.Nil(t, built)
	require.NotNil(t, failure)
	assert.Contains(t, failure.Reason, "matches no option")
}

func TestBuild_CustomChoiceFieldNamesAreCaseInsensitive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChoiceFieldNames = [3]string{"prompt", "choices", "correct"}
	builder := NewBuilder(cfg)

	noteType := &anki.NoteType{
		ID:     3001,
		Name:   "Quiz",
		Fields: []string{"Prompt", "Choices", "Correct"},
	}
	note := &anki.SourceNote{
		ID:         9,
		NoteTypeID: 3001,
		Fields:     []string{"2+2?", "3\n4", "2"},
	}

	built, _, failure := builder.Build(note, noteType, &anki.SourceCard{ID: 90, NoteID: 9}, bothSides("Prompt", "Choices", "Correct"), nil)
	require.Nil(t, failure)
	assert.Equal(t, entities.CardTypeChoice, built.Type)
	assert.Equal(t, "1", built.CorrectIndices)
}

func TestBuild_MediaResolvedThroughPaths(t *testing.T) {
	builder := NewBuilder(DefaultConfig())
	note := &anki.SourceNote{
		ID:         11,
		NoteTypeID: 1000,
		Fields:     []string{`<img src="eiffel.png"> the tower`, "Paris"},
	}
	paths := map[string]string{"eiffel.png": "attachments/trip/eiffel.png"}

	built, warnings, failure := builder.Build(note, basicNoteType(), &anki.SourceCard{ID: 110, NoteID: 11}, bothSides("Front", "Back"), paths)
	require.Nil(t, failure)
	assert.Empty(t, warnings)
	assert.Contains(t, built.Front, "![eiffel.png](attachments/trip/eiffel.png)")
}

func TestBuild_MissingMediaWarnsButSucceeds(t *testing.T) {
	builder := NewBuilder(DefaultConfig())
	note := &anki.SourceNote{
		ID:         12,
		NoteTypeID: 1000,
		Fields:     []string{`<img src="lost.png">`, "back"},
	}

	built, warnings, failure := builder.Build(note, basicNoteType(), &anki.SourceCard{ID: 120, NoteID: 12}, bothSides("Front", "Back"), nil)
	require.Nil(t, failure)
	assert.NotEmpty(t, warnings)
	assert.Contains(t, built.Front, "lost.png")
}

func TestBuild_FieldConversionCachedPerNote(t *testing.T) {
	builder := NewBuilder(DefaultConfig())
	note := &anki.SourceNote{
		ID:         13,
		NoteTypeID: 1000,
		Fields:     []string{"<b>bold</b>", "back"},
	}
	sides := bothSides("Front", "Back")

	first, _, failure := builder.Build(note, basicNoteType(), &anki.SourceCard{ID: 130, NoteID: 13}, sides, nil)
	require.Nil(t, failure)

	// Mutating the raw fields after the first build must not change the
	// cached conversion for subsequent cards of the same note.
	note.Fields[0] = "<i>changed</i>"
	second, _, failure := builder.Build(note, basicNoteType(), &anki.SourceCard{ID: 131, NoteID: 13}, sides, nil)
	require.Nil(t, failure)

	assert.Equal(t, first.Front, second.Front)
}
