package database

import (
	"github.com/akarpovich/deckport/internal/database/cards"
	"github.com/akarpovich/deckport/internal/database/decks"
	"github.com/akarpovich/deckport/internal/entities"
)

// Store bundles the repositories the import pipeline writes through.
type Store struct {
	Decks *decks.Repository
	Cards *cards.Repository
}

// NewStore creates the import-facing store over an open database.
func NewStore(d *Database) *Store {
	return &Store{
		Decks: decks.NewRepository(d.DB),
		Cards: cards.NewRepository(d.DB),
	}
}

func (s *Store) ListDecks() ([]entities.Deck, error) {
	return s.Decks.ListDecks()
}

func (s *Store) CreateDeck(deck *entities.Deck) error {
	return s.Decks.CreateDeck(deck)
}

func (s *Store) SaveCard(card *entities.Card) error {
	return s.Cards.SaveCard(card)
}

func (s *Store) SaveMediaAssets(assets []*entities.MediaAsset) error {
	return s.Cards.SaveMediaAssets(assets)
}
