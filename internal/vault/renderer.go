package vault

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/akarpovich/deckport/internal/entities"
	"github.com/akarpovich/deckport/internal/utils"
)

// CardRenderer writes imported cards into the vault as markdown notes,
// one file per card, grouped by deck path.
type CardRenderer struct {
	vault Vault
}

// NewCardRenderer creates a renderer writing through the given vault.
func NewCardRenderer(v Vault) *CardRenderer {
	return &CardRenderer{vault: v}
}

// RenderCard produces the markdown note for one card.
func (r *CardRenderer) RenderCard(card *entities.Card, deckPath string) string {
	var sb strings.Builder

	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("deck: %s\n", deckPath))
	sb.WriteString(fmt.Sprintf("card_type: %s\n", card.Type))
	sb.WriteString(fmt.Sprintf("source_card_id: %d\n", card.SourceCardID))
	sb.WriteString(fmt.Sprintf("imported_at: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	if card.Tags != "" {
		sb.WriteString(fmt.Sprintf("tags: [%s]\n", strings.Join(strings.Fields(card.Tags), ", ")))
	}
	sb.WriteString("---\n\n")

	switch card.Type {
	case entities.CardTypeCloze:
		sb.WriteString(card.Text)
		sb.WriteString("\n")
	case entities.CardTypeChoice:
		sb.WriteString(card.Front)
		sb.WriteString("\n\n")
		for i, option := range strings.Split(card.Options, "\n") {
			marker := " "
			if isCorrectOption(card.CorrectIndices, i) {
				marker = "x"
			}
			sb.WriteString(fmt.Sprintf("- [%s] %s\n", marker, option))
		}
	default:
		sb.WriteString(card.Front)
		sb.WriteString("\n\n---\n\n")
		sb.WriteString(card.Back)
		sb.WriteString("\n")
	}

	return sb.String()
}

// SaveCard renders the card and writes it beneath cards/<deck path>/.
// Returns the vault-relative path of the written note.
func (r *CardRenderer) SaveCard(card *entities.Card, deckPath string) (string, error) {
	name := utils.SanitizeFilename(noteTitle(card))
	notePath := path.Join("cards", deckPath, fmt.Sprintf("%s-%d.md", name, card.SourceCardID))

	if err := r.vault.WriteText(notePath, r.RenderCard(card, deckPath)); err != nil {
		return "", fmt.Errorf("failed to write card note: %w", err)
	}
	return notePath, nil
}

// WriteManifest records an import run summary under imports/.
func (r *CardRenderer) WriteManifest(sessionName string, result string) error {
	manifestPath := path.Join("imports", utils.SanitizeFilename(sessionName)+".md")
	if err := r.vault.WriteText(manifestPath, result); err != nil {
		return fmt.Errorf("failed to write import manifest: %w", err)
	}
	return nil
}

// noteTitle picks the filename stem for a card note.
func noteTitle(card *entities.Card) string {
	text := card.Front
	if card.Type == entities.CardTypeCloze {
		text = card.Text
	}
	return utils.TruncatePreview(text, 60)
}

func isCorrectOption(indices string, i int) bool {
	for _, part := range strings.Split(indices, ",") {
		if strings.TrimSpace(part) == fmt.Sprintf("%d", i) {
			return true
		}
	}
	return false
}
