package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/akarpovich/deckport/internal/anki"
	"github.com/akarpovich/deckport/internal/entities"
	"github.com/akarpovich/deckport/internal/markdown"
	"github.com/akarpovich/deckport/internal/templates"
	"github.com/akarpovich/deckport/internal/utils"
)

// previewLength caps the diagnostic field preview in failure records.
const previewLength = 120

// Config controls the build stage.
type Config struct {
	Markdown markdown.Config

	// ChoiceFieldNames is the explicit classification rule for
	// choice/multi-answer note-types: all three names must be present
	// (case-insensitively) among the note-type's fields. Order is
	// question, options, answer.
	ChoiceFieldNames [3]string
}

// DefaultConfig returns the build defaults.
func DefaultConfig() Config {
	return Config{
		Markdown:         markdown.DefaultConfig(),
		ChoiceFieldNames: [3]string{"Question", "Options", "Answer"},
	}
}

// Builder assembles target cards from source rows. Field conversion is
// cached per (note, field) so a note rendered through several templates
// converts each field once.
type Builder struct {
	cfg Config

	convCache map[int64][]markdown.Converted
}

// NewBuilder creates a builder for one import run.
func NewBuilder(cfg Config) *Builder {
	return &Builder{
		cfg:       cfg,
		convCache: make(map[int64][]markdown.Converted),
	}
}

// Build assembles one target card, or returns a row-level failure.
// Failures never abort the batch; any panic during assembly is converted
// into a failure record for this card alone.
func (b *Builder) Build(
	note *anki.SourceNote,
	noteType *anki.NoteType,
	card *anki.SourceCard,
	sides templates.FieldSideMap,
	mediaPaths map[string]string,
) (built *entities.Card, warnings []string, failure *Failure) {
	defer func() {
		if r := recover(); r != nil {
			built = nil
			failure = b.failure(note, noteType, card, fmt.Sprintf("panic during card assembly: %v", r))
		}
	}()

	if len(note.Fields) != len(noteType.Fields) {
		return nil, nil, b.failure(note, noteType, card, fmt.Sprintf(
			"field count mismatch: note has %d values, note-type %q defines %d fields",
			len(note.Fields), noteType.Name, len(noteType.Fields)))
	}

	resolved := make([]string, len(note.Fields))
	for i := range note.Fields {
		conv := b.convertField(note, i)
		text, resolveWarnings := markdown.ResolveMedia(conv, mediaPaths)
		resolved[i] = text
		warnings = append(warnings, conv.Warnings...)
		warnings = append(warnings, resolveWarnings...)
	}

	result := &entities.Card{
		Tags:         strings.Join(note.Tags, " "),
		SourceNoteID: note.ID,
		SourceCardID: card.ID,
	}

	switch {
	case b.isCloze(note, noteType):
		result.Type = entities.CardTypeCloze
		result.Text = clozePayload(note, resolved)
	case b.isChoice(noteType):
		result.Type = entities.CardTypeChoice
		if err := b.fillChoice(result, noteType, resolved); err != nil {
			return nil, warnings, b.failure(note, noteType, card, err.Error())
		}
	default:
		result.Type = entities.CardTypeQA
		front, back := partition(noteType, resolved, sides)
		result.Front = front
		result.Back = back
	}

	return result, warnings, nil
}

// convertField converts one field of a note, caching per note so cards
// sharing the note reuse the work.
func (b *Builder) convertField(note *anki.SourceNote, index int) markdown.Converted {
	cached, ok := b.convCache[note.ID]
	if !ok {
		cached = make([]markdown.Converted, len(note.Fields))
		for i, raw := range note.Fields {
			cached[i] = markdown.Convert(raw, b.cfg.Markdown)
		}
		b.convCache[note.ID] = cached
	}
	return cached[index]
}

// isCloze reports whether the card must become a cloze card: either the
// note-type is declared cloze, or a field value carries cloze syntax.
func (b *Builder) isCloze(note *anki.SourceNote, noteType *anki.NoteType) bool {
	if noteType.Kind == anki.NoteTypeCloze {
		return true
	}
	for _, raw := range note.Fields {
		if markdown.HasCloze(raw) {
			return true
		}
	}
	return false
}

// clozePayload picks the converted field carrying the cloze spans; the
// first field is the conventional fallback for declared cloze note-types.
func clozePayload(note *anki.SourceNote, resolved []string) string {
	for i, raw := range note.Fields {
		if markdown.HasCloze(raw) {
			return resolved[i]
		}
	}
	return resolved[0]
}

// isChoice applies the explicit choice-schema rule from the config.
func (b *Builder) isChoice(noteType *anki.NoteType) bool {
	for _, wanted := range b.cfg.ChoiceFieldNames {
		found := false
		for _, field := range noteType.Fields {
			if strings.EqualFold(field, wanted) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// fillChoice populates a choice card: the question field, the ordered
// option list and the marked correct indices.
func (b *Builder) fillChoice(card *entities.Card, noteType *anki.NoteType, resolved []string) error {
	questionIdx := fieldIndexFold(noteType, b.cfg.ChoiceFieldNames[0])
	optionsIdx := fieldIndexFold(noteType, b.cfg.ChoiceFieldNames[1])
	answerIdx := fieldIndexFold(noteType, b.cfg.ChoiceFieldNames[2])

	card.Front = resolved[questionIdx]

	options := splitOptions(resolved[optionsIdx])
	if len(options) == 0 {
		return fmt.Errorf("choice note-type %q has no options", noteType.Name)
	}
	card.Options = strings.Join(options, "\n")

	indices, err := correctIndices(resolved[answerIdx], options)
	if err != nil {
		return fmt.Errorf("choice note-type %q: %v", noteType.Name, err)
	}
	card.CorrectIndices = indices
	return nil
}

func fieldIndexFold(noteType *anki.NoteType, name string) int {
	for i, field := range noteType.Fields {
		if strings.EqualFold(field, name) {
			return i
		}
	}
	return -1
}

// splitOptions breaks the options field on newlines, falling back to the
// "|" separator for single-line option lists.
func splitOptions(text string) []string {
	separator := "\n"
	if !strings.Contains(text, "\n") {
		separator = "|"
	}
	var options []string
	for _, part := range strings.Split(text, separator) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			options = append(options, trimmed)
		}
	}
	return options
}

// correctIndices resolves the answer field against the option list.
// Numeric tokens are 1-based positions; anything else matches option text.
func correctIndices(answer string, options []string) (string, error) {
	var indices []string
	for _, token := range strings.Split(answer, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if n, err := strconv.Atoi(token); err == nil {
			if n < 1 || n > len(options) {
				return "", fmt.Errorf("answer index %d out of range (1-%d)", n, len(options))
			}
			indices = append(indices, strconv.Itoa(n-1))
			continue
		}
		matched := -1
		for i, option := range options {
			if strings.EqualFold(option, token) {
				matched = i
				break
			}
		}
		if matched == -1 {
			return "", fmt.Errorf("answer %q matches no option", token)
		}
		indices = append(indices, strconv.Itoa(matched))
	}
	if len(indices) == 0 {
		return "", fmt.Errorf("no correct answer marked")
	}
	return strings.Join(indices, ","), nil
}

// partition splits converted field values into front and back groups,
// preserving the note-type's field order within each group. Fields
// classified as both appear in both groups.
func partition(noteType *anki.NoteType, resolved []string, sides templates.FieldSideMap) (string, string) {
	var front, back []string
	for i, field := range noteType.Fields {
		if resolved[i] == "" {
			continue
		}
		switch sides[field] {
		case templates.SideFront:
			front = append(front, resolved[i])
		case templates.SideBack:
			back = append(back, resolved[i])
		case templates.SideBoth:
			front = append(front, resolved[i])
			back = append(back, resolved[i])
		}
	}
	return strings.Join(front, "\n\n"), strings.Join(back, "\n\n")
}

func (b *Builder) failure(note *anki.SourceNote, noteType *anki.NoteType, card *anki.SourceCard, reason string) *Failure {
	preview := ""
	if len(note.Fields) > 0 {
		preview = utils.TruncatePreview(note.Fields[0], previewLength)
	}
	return &Failure{
		SourceCardID: card.ID,
		NoteTypeName: noteType.Name,
		Reason:       reason,
		FieldPreview: preview,
	}
}
