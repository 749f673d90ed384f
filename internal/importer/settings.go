package importer

import (
	"github.com/akarpovich/deckport/internal/config"
	"github.com/akarpovich/deckport/internal/markdown"
)

// FromConfig translates application settings into the build config and
// the default per-run options. Unknown cloze styles fall back to the
// lossless curly form.
func FromConfig(cfg config.Import) (Config, Options) {
	build := DefaultConfig()
	if cfg.MaxTableRows > 0 {
		build.Markdown.MaxTableRows = cfg.MaxTableRows
	}
	if cfg.MaxTableColumns > 0 {
		build.Markdown.MaxTableColumns = cfg.MaxTableColumns
	}
	if cfg.ClozeStyle == "highlight" {
		build.Markdown.ClozeStyle = markdown.ClozeStyleHighlight
	}
	if cfg.ChoiceQuestion != "" && cfg.ChoiceOptions != "" && cfg.ChoiceAnswer != "" {
		build.ChoiceFieldNames = [3]string{cfg.ChoiceQuestion, cfg.ChoiceOptions, cfg.ChoiceAnswer}
	}

	opts := Options{
		TargetDeckName:     cfg.TargetDeck,
		ReuseExistingDecks: cfg.ReuseDecks,
	}
	return build, opts
}
