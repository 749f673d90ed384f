package importer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/akarpovich/deckport/internal/anki"
	"github.com/akarpovich/deckport/internal/entities"
	"github.com/akarpovich/deckport/internal/media"
	"github.com/akarpovich/deckport/internal/templates"
	"github.com/akarpovich/deckport/internal/vault"
)

// CardStore is the persistence surface the import pipeline needs.
type CardStore interface {
	ListDecks() ([]entities.Deck, error)
	CreateDeck(deck *entities.Deck) error
	SaveCard(card *entities.Card) error
	SaveMediaAssets(assets []*entities.MediaAsset) error
}

// Options carries per-run import settings.
type Options struct {
	// TargetDeckName collapses the archive into a single named deck.
	// Empty means mirror the source deck hierarchy.
	TargetDeckName string

	// ReuseExistingDecks appends cards to decks already in the store.
	// When false, cards destined for an existing deck fail with a
	// row-level failure instead of silently merging.
	ReuseExistingDecks bool

	// FileName of the uploaded archive, used for media scoping and
	// the import manifest.
	FileName string
}

// Orchestrator runs the full archive-to-store pipeline: parse, analyze
// templates, process media, build cards, save. Row-level problems become
// failure records; only a parse error fails the run as a whole.
type Orchestrator struct {
	store    CardStore
	renderer *vault.CardRenderer
	procs    *media.Processor
	cfg      Config
	progress ProgressFunc
}

// NewOrchestrator wires an import pipeline. The vault may be nil, in
// which case media files are skipped and no notes are written.
func NewOrchestrator(store CardStore, v vault.Vault, cfg Config, progress ProgressFunc) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		cfg:      cfg,
		progress: progress,
	}
	if v != nil {
		o.renderer = vault.NewCardRenderer(v)
		o.procs = media.NewProcessor(v)
	}
	return o
}

// Run imports one archive. The returned Result is non-nil even on fatal
// errors so callers can persist the failure for later inspection.
func (o *Orchestrator) Run(ctx context.Context, data []byte, opts Options) (*Result, error) {
	result := &Result{}

	// Parsing: 0-20.
	o.emit(StageParsing, 0, "opening archive")
	archive, err := anki.OpenArchive(data)
	if err != nil {
		o.emit(StageFailed, 0, err.Error())
		result.Warnings = append(result.Warnings, err.Error())
		return result, fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	o.emit(StageParsing, 10, "reading collection")
	schema, err := anki.NewSchemaReader(archive.DBPath).ReadSchema(ctx)
	if err != nil {
		o.emit(StageFailed, 10, err.Error())
		result.Warnings = append(result.Warnings, err.Error())
		return result, fmt.Errorf("failed to read collection: %w", err)
	}
	result.Warnings = append(result.Warnings, schema.Warnings...)
	result.Stats.Total = len(schema.Cards)

	// Analyzing: 20-30. Field sides are resolved once per note-type.
	o.emit(StageAnalyzing, 20, "resolving templates")
	resolver := templates.NewResolver()
	sides := make(map[int64]templates.FieldSideMap, len(schema.NoteTypes))
	for id, noteType := range schema.NoteTypes {
		sideMap, warnings := resolver.Resolve(noteType)
		sides[id] = sideMap
		result.Warnings = append(result.Warnings, warnings...)
	}

	// ProcessingMedia: 30-55.
	o.emit(StageProcessingMedia, 30, fmt.Sprintf("processing %d media files", len(archive.MediaFiles)))
	mediaPaths := map[string]string{}
	if o.procs != nil && len(archive.MediaFiles) > 0 {
		paths, assets, writeFailures := o.procs.Process(ctx, archive.MediaFiles, mediaScope(opts.FileName))
		mediaPaths = paths
		for _, wf := range writeFailures {
			result.Warnings = append(result.Warnings, fmt.Sprintf("media %q not stored: %s", wf.Name, wf.Reason))
		}
		if len(assets) > 0 {
			if err := o.store.SaveMediaAssets(assets); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("failed to record media assets: %v", err))
			}
		}
	}

	// Building: 55-80.
	o.emit(StageBuilding, 55, fmt.Sprintf("building %d cards", len(schema.Cards)))
	builder := NewBuilder(o.cfg)
	notesByID := make(map[int64]*anki.SourceNote, len(schema.Notes))
	for i := range schema.Notes {
		notesByID[schema.Notes[i].ID] = &schema.Notes[i]
	}
	decksByID := make(map[int64]*anki.SourceDeck, len(schema.Decks))
	for i := range schema.Decks {
		decksByID[schema.Decks[i].ID] = &schema.Decks[i]
	}

	var built []builtCard
	for i := range schema.Cards {
		src := &schema.Cards[i]
		o.emit(StageBuilding, band(55, 80, i, len(schema.Cards)), "")

		note, noteType, deck, failure := o.lookup(schema, notesByID, decksByID, src)
		if failure != nil {
			result.Failures = append(result.Failures, *failure)
			continue
		}

		card, warnings, failure := builder.Build(note, noteType, src, sides[note.NoteTypeID], mediaPaths)
		result.Warnings = append(result.Warnings, warnings...)
		if failure != nil {
			result.Failures = append(result.Failures, *failure)
			continue
		}
		built = append(built, builtCard{card: card, deckPath: deck.Path})
	}

	// Saving: 80-100.
	o.emit(StageSaving, 80, "saving cards")
	deckIDs := o.resolveDecks(built, opts)

	for i, item := range built {
		o.emit(StageSaving, band(80, 100, i, len(built)), "")

		deckPath := targetDeckPath(item.deckPath, opts)
		deckID, ok := deckIDs[deckPath]
		if !ok {
			result.Failures = append(result.Failures, Failure{
				SourceCardID: item.card.SourceCardID,
				Reason:       fmt.Sprintf("deck %q unavailable: already exists or could not be created", deckPath),
			})
			continue
		}
		item.card.DeckID = deckID

		if err := o.store.SaveCard(item.card); err != nil {
			result.Failures = append(result.Failures, Failure{
				SourceCardID: item.card.SourceCardID,
				Reason:       fmt.Sprintf("failed to save card: %v", err),
			})
			continue
		}
		result.Stats.Imported++

		if o.renderer != nil {
			if _, err := o.renderer.SaveCard(item.card, deckPath); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("card %d: %v", item.card.SourceCardID, err))
			}
		}
	}

	result.Stats.Failed = len(result.Failures)
	result.Success = true

	if o.renderer != nil && opts.FileName != "" {
		if err := o.renderer.WriteManifest(manifestName(opts.FileName), o.manifest(opts, result)); err != nil {
			result.Warnings = append(result.Warnings, err.Error())
		}
	}

	o.emit(StageDone, 100, fmt.Sprintf("imported %d of %d cards", result.Stats.Imported, result.Stats.Total))
	log.Printf("import of %s finished: %d imported, %d failed, %d warnings",
		opts.FileName, result.Stats.Imported, result.Stats.Failed, len(result.Warnings))
	return result, nil
}

// lookup resolves a source card's note, note-type and deck, producing a
// row-level failure when the collection references rows that are missing.
func (o *Orchestrator) lookup(
	schema *anki.Schema,
	notesByID map[int64]*anki.SourceNote,
	decksByID map[int64]*anki.SourceDeck,
	src *anki.SourceCard,
) (*anki.SourceNote, *anki.NoteType, *anki.SourceDeck, *Failure) {
	note, ok := notesByID[src.NoteID]
	if !ok {
		return nil, nil, nil, &Failure{
			SourceCardID: src.ID,
			Reason:       fmt.Sprintf("card references missing note %d", src.NoteID),
		}
	}
	noteType, ok := schema.NoteTypes[note.NoteTypeID]
	if !ok {
		return nil, nil, nil, &Failure{
			SourceCardID: src.ID,
			Reason:       fmt.Sprintf("note references missing note-type %d", note.NoteTypeID),
		}
	}
	deck, ok := decksByID[src.DeckID]
	if !ok {
		return nil, nil, nil, &Failure{
			SourceCardID: src.ID,
			NoteTypeName: noteType.Name,
			Reason:       fmt.Sprintf("card references missing deck %d", src.DeckID),
		}
	}
	return note, noteType, deck, nil
}

// builtCard pairs an assembled card with its source deck path until the
// saving stage assigns a store deck.
type builtCard struct {
	card     *entities.Card
	deckPath []string
}

// resolveDecks creates or reuses every deck the built cards need and
// returns a path-to-ID map. Creation errors leave the path out of the
// map; the saving loop turns that into per-card failures.
func (o *Orchestrator) resolveDecks(built []builtCard, opts Options) map[string]uint {
	existing := map[string]entities.Deck{}
	decks, err := o.store.ListDecks()
	if err != nil {
		log.Printf("failed to list decks, treating all as new: %v", err)
	}
	for _, deck := range decks {
		existing[deck.Path] = deck
	}

	ids := map[string]uint{}
	for _, item := range built {
		deckPath := targetDeckPath(item.deckPath, opts)
		if _, done := ids[deckPath]; done {
			continue
		}
		if deck, ok := existing[deckPath]; ok {
			if opts.ReuseExistingDecks {
				ids[deckPath] = deck.ID
			}
			continue
		}
		deck := &entities.Deck{
			Name: deckLeaf(deckPath),
			Path: deckPath,
		}
		if err := o.store.CreateDeck(deck); err != nil {
			log.Printf("failed to create deck %q: %v", deckPath, err)
			continue
		}
		ids[deckPath] = deck.ID
	}
	return ids
}

// manifest renders the import summary note.
func (o *Orchestrator) manifest(opts Options, result *Result) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Import of %s\n\n", opts.FileName))
	sb.WriteString(fmt.Sprintf("- Imported: %d of %d cards\n", result.Stats.Imported, result.Stats.Total))
	sb.WriteString(fmt.Sprintf("- Failed: %d\n", result.Stats.Failed))
	sb.WriteString(fmt.Sprintf("- Completed: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	if len(result.Failures) > 0 {
		sb.WriteString("\n## Failures\n\n")
		for _, f := range result.Failures {
			sb.WriteString(fmt.Sprintf("- card %d (%s): %s\n", f.SourceCardID, f.NoteTypeName, f.Reason))
		}
	}
	if len(result.Warnings) > 0 {
		sb.WriteString("\n## Warnings\n\n")
		for _, w := range result.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
	}
	return sb.String()
}

func (o *Orchestrator) emit(stage Stage, percent int, message string) {
	if o.progress == nil {
		return
	}
	o.progress(Progress{Stage: stage, Percent: percent, Message: message})
}

// band interpolates a percent position inside a stage's range.
func band(from, to, i, total int) int {
	if total == 0 {
		return from
	}
	return from + (to-from)*i/total
}

// targetDeckPath maps a source deck path to the store path, honoring a
// forced target deck when one is set.
func targetDeckPath(sourcePath []string, opts Options) string {
	if opts.TargetDeckName != "" {
		return opts.TargetDeckName
	}
	return strings.Join(sourcePath, "/")
}

func deckLeaf(deckPath string) string {
	parts := strings.Split(deckPath, "/")
	return parts[len(parts)-1]
}

func mediaScope(fileName string) string {
	scope := fileName
	if i := strings.LastIndex(scope, "."); i > 0 {
		scope = scope[:i]
	}
	if scope == "" {
		return "import"
	}
	return scope
}

func manifestName(fileName string) string {
	return fmt.Sprintf("%s-%s", mediaScope(fileName), time.Now().Format("20060102-150405"))
}