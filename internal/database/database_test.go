package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarpovich/deckport/internal/database/cards"
	"github.com/akarpovich/deckport/internal/database/decks"
	"github.com/akarpovich/deckport/internal/database/importedfiles"
	"github.com/akarpovich/deckport/internal/database/sessions"
	"github.com/akarpovich/deckport/internal/entities"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDeckRepository_CreateAndList(t *testing.T) {
	db := newTestDatabase(t)
	repo := decks.NewRepository(db.DB)

	require.NoError(t, repo.CreateDeck(&entities.Deck{Name: "Verbs", Path: "Languages/French/Verbs"}))
	require.NoError(t, repo.CreateDeck(&entities.Deck{Name: "Default", Path: "Default"}))

	all, err := repo.ListDecks()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Default", all[0].Path)
	assert.Equal(t, "Languages/French/Verbs", all[1].Path)

	found, err := repo.GetDeckByPath("Default")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Default", found.Name)

	missing, err := repo.GetDeckByPath("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCardRepository_SaveCardUpsertsBySourceCard(t *testing.T) {
	db := newTestDatabase(t)
	deckRepo := decks.NewRepository(db.DB)
	cardRepo := cards.NewRepository(db.DB)

	deck := &entities.Deck{Name: "Default", Path: "Default"}
	require.NoError(t, deckRepo.CreateDeck(deck))

	first := &entities.Card{
		Type:         entities.CardTypeQA,
		Front:        "before",
		Back:         "answer",
		SourceCardID: 42,
		DeckID:       deck.ID,
	}
	require.NoError(t, cardRepo.SaveCard(first))

	second := &entities.Card{
		Type:         entities.CardTypeQA,
		Front:        "after",
		Back:         "answer",
		SourceCardID: 42,
		DeckID:       deck.ID,
	}
	require.NoError(t, cardRepo.SaveCard(second))

	count, err := cardRepo.CountCards()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	stored, err := cardRepo.GetCardByID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", stored.Front)
}

func TestCardRepository_MediaAssetRefCountsAccumulate(t *testing.T) {
	db := newTestDatabase(t)
	cardRepo := cards.NewRepository(db.DB)

	require.NoError(t, cardRepo.SaveMediaAssets([]*entities.MediaAsset{
		{Hash: "abc", StoredRef: "attachments/a.png", Size: 3, RefCount: 2},
	}))
	require.NoError(t, cardRepo.SaveMediaAssets([]*entities.MediaAsset{
		{Hash: "abc", StoredRef: "attachments/a.png", Size: 3, RefCount: 1},
	}))

	var asset entities.MediaAsset
	require.NoError(t, db.DB.Where("hash = ?", "abc").First(&asset).Error)
	assert.Equal(t, 3, asset.RefCount)
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	db := newTestDatabase(t)
	repo := sessions.NewRepository(db.DB)

	session, err := repo.Create("trip.apkg")
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusPending, session.Status)

	require.NoError(t, repo.MarkRunning(session.ID))
	require.NoError(t, repo.Complete(session.ID, 10, 8, 2, []map[string]string{{"reason": "bad row"}}))

	stored, err := repo.GetByID(session.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusCompleted, stored.Status)
	assert.Equal(t, 10, stored.Total)
	assert.Equal(t, 8, stored.Imported)
	assert.Equal(t, 2, stored.Failed)
	assert.Contains(t, stored.FailureJSON, "bad row")
	assert.NotNil(t, stored.CompletedAt)
}

func TestSessionRepository_FailRecordsReason(t *testing.T) {
	db := newTestDatabase(t)
	repo := sessions.NewRepository(db.DB)

	session, err := repo.Create("broken.apkg")
	require.NoError(t, err)
	require.NoError(t, repo.Fail(session.ID, "not a zip archive"))

	stored, err := repo.GetByID(session.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusFailed, stored.Status)
	assert.Equal(t, "not a zip archive", stored.Error)
}

func TestImportedFiles_Ledger(t *testing.T) {
	db := newTestDatabase(t)
	repo := importedfiles.NewRepository(db.DB)

	seen, err := repo.IsImported("deadbeef")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, repo.MarkImported("/watch/trip.apkg", "deadbeef"))

	seen, err = repo.IsImported("deadbeef")
	require.NoError(t, err)
	assert.True(t, seen)
}
