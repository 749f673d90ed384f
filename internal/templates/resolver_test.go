package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarpovich/deckport/internal/anki"
)

func basicNoteType(front, back string) *anki.NoteType {
	return &anki.NoteType{
		ID:     1,
		Name:   "Basic",
		Fields: []string{"Front", "Back", "Hint", "Unused"},
		Templates: []anki.Template{
			{Name: "Card 1", Front: front, Back: back},
		},
	}
}

func TestResolve_SideClassification(t *testing.T) {
	noteType := basicNoteType("{{Front}}", "{{Front}}{{Back}}")

	sides, warnings := NewResolver().Resolve(noteType)
	assert.Empty(t, warnings)
	assert.Equal(t, SideBoth, sides["Front"])
	assert.Equal(t, SideBack, sides["Back"])
	assert.Equal(t, SideNone, sides["Hint"])
	assert.Equal(t, SideNone, sides["Unused"])
}

func TestResolve_FrontOnly(t *testing.T) {
	noteType := basicNoteType("{{Front}}", "{{Back}}")
	sides, _ := NewResolver().Resolve(noteType)
	assert.Equal(t, SideFront, sides["Front"])
	assert.Equal(t, SideBack, sides["Back"])
}

func TestResolve_ConditionalSectionCountsAsReference(t *testing.T) {
	// The section contributes no visible text of its own, but still counts.
	noteType := basicNoteType("{{Front}}{{#Hint}}{{/Hint}}", "{{Back}}")
	sides, _ := NewResolver().Resolve(noteType)
	assert.Equal(t, SideFront, sides["Hint"])
}

func TestResolve_NegatedSectionCountsAsReference(t *testing.T) {
	noteType := basicNoteType("{{Front}}", "{{^Hint}}nothing{{/Hint}}{{Back}}")
	sides, _ := NewResolver().Resolve(noteType)
	assert.Equal(t, SideBack, sides["Hint"])
}

func TestResolve_FilteredRefUsesFieldName(t *testing.T) {
	noteType := basicNoteType("{{hint:Front}}", "{{Back}}")
	sides, _ := NewResolver().Resolve(noteType)
	assert.Equal(t, SideFront, sides["Front"])
}

func TestResolve_FrontSideMacroFoldsFrontRefs(t *testing.T) {
	// {{FrontSide}} must reuse the front template's references rather than
	// introducing new ones: Front ends up on both sides, Hint stays front-only
	// only if the back never names it.
	noteType := basicNoteType("{{Front}}{{Hint}}", "{{FrontSide}}<hr>{{Back}}")
	sides, warnings := NewResolver().Resolve(noteType)
	assert.Empty(t, warnings)
	assert.Equal(t, SideBoth, sides["Front"])
	assert.Equal(t, SideBoth, sides["Hint"])
	assert.Equal(t, SideBack, sides["Back"])
}

func TestResolve_MultipleTemplatesUnion(t *testing.T) {
	noteType := &anki.NoteType{
		ID:     2,
		Name:   "Reversed",
		Fields: []string{"Front", "Back"},
		Templates: []anki.Template{
			{Name: "Card 1", Front: "{{Front}}", Back: "{{Back}}"},
			{Name: "Card 2", Front: "{{Back}}", Back: "{{Front}}"},
		},
	}
	sides, _ := NewResolver().Resolve(noteType)
	assert.Equal(t, SideBoth, sides["Front"])
	assert.Equal(t, SideBoth, sides["Back"])
}

func TestResolve_ParseFailureDefaultsToBoth(t *testing.T) {
	noteType := basicNoteType("{{#Broken}}never closed", "{{Back}}")
	sides, warnings := NewResolver().Resolve(noteType)

	require.Len(t, warnings, 1)
	for _, field := range noteType.Fields {
		assert.Equal(t, SideBoth, sides[field], "field %s", field)
	}
}

func TestResolve_CachesPerNoteType(t *testing.T) {
	resolver := NewResolver()
	noteType := basicNoteType("{{Front}}", "{{Back}}")

	first, _ := resolver.Resolve(noteType)

	// Mutating the note-type after the first resolve must not change the
	// cached result for the same ID.
	noteType.Templates[0].Front = "{{Back}}"
	second, _ := resolver.Resolve(noteType)

	assert.Equal(t, first, second)
}
