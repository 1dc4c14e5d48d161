package deck

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// ErrUnderflow is returned when more cards are requested than remain.
var ErrUnderflow = errors.New("not enough cards remaining in deck")

// Deck represents an ordered deck of playing cards
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// New creates a full 52-card deck in a deterministic order. Pass a seeded
// rand.Rand for reproducible shuffles; nil falls back to a time-based seed.
func New(rng *rand.Rand) *Deck {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	d := &Deck{
		cards: make([]Card, 0, 52),
		rng:   rng,
	}
	d.Reset()
	return d
}

// Reset restores the deck to the full 52 cards in deterministic order
func (d *Deck) Reset() {
	d.cards = d.cards[:0]
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(rank, suit))
		}
	}
}

// Shuffle applies a uniform random permutation to the remaining cards
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Deal removes and returns the top n cards
func (d *Deck) Deal(n int) ([]Card, error) {
	if n > len(d.cards) {
		return nil, fmt.Errorf("deal %d with %d left: %w", n, len(d.cards), ErrUnderflow)
	}
	dealt := make([]Card, n)
	copy(dealt, d.cards[:n])
	d.cards = d.cards[n:]
	return dealt, nil
}

// DealOne removes and returns the top card. A burn is a DealOne whose
// result is discarded.
func (d *Deck) DealOne() (Card, error) {
	cards, err := d.Deal(1)
	if err != nil {
		return Card{}, err
	}
	return cards[0], nil
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}
