package evaluator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lox/tablestakes/internal/deck"
)

// RankClass represents the strength class of a 5-card poker hand
type RankClass int

const (
	HighCard RankClass = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns the wire name of the rank class
func (c RankClass) String() string {
	switch c {
	case HighCard:
		return "HIGH_CARD"
	case Pair:
		return "PAIR"
	case TwoPair:
		return "TWO_PAIR"
	case ThreeOfAKind:
		return "THREE_OF_A_KIND"
	case Straight:
		return "STRAIGHT"
	case Flush:
		return "FLUSH"
	case FullHouse:
		return "FULL_HOUSE"
	case FourOfAKind:
		return "FOUR_OF_A_KIND"
	case StraightFlush:
		return "STRAIGHT_FLUSH"
	default:
		return "UNKNOWN"
	}
}

var (
	ErrWrongCardCount = errors.New("must evaluate exactly 5 cards")
	ErrTooFewCards    = errors.New("need at least 5 cards")
)

// HandResult is the outcome of evaluating a 5-card hand. Results order
// first by Class, then lexicographically by Tiebreakers; suits never
// affect ordering.
type HandResult struct {
	Class       RankClass
	Tiebreakers []deck.Rank
	Cards       []deck.Card
}

// Compare returns -1, 0 or 1 as r orders below, equal to, or above other.
func (r HandResult) Compare(other HandResult) int {
	if r.Class != other.Class {
		if r.Class < other.Class {
			return -1
		}
		return 1
	}
	for i := range r.Tiebreakers {
		if i >= len(other.Tiebreakers) {
			break
		}
		if r.Tiebreakers[i] != other.Tiebreakers[i] {
			if r.Tiebreakers[i] < other.Tiebreakers[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// EvaluateFive classifies exactly 5 cards
func EvaluateFive(cards []deck.Card) (HandResult, error) {
	if len(cards) != 5 {
		return HandResult{}, fmt.Errorf("%w, got %d", ErrWrongCardCount, len(cards))
	}

	ranks := make([]deck.Rank, 5)
	for i, c := range cards {
		ranks[i] = c.Rank
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] > ranks[j] })

	isFlush := true
	for _, c := range cards[1:] {
		if c.Suit != cards[0].Suit {
			isFlush = false
			break
		}
	}

	straightHigh, isStraight := straightHighRank(ranks)

	counts := make(map[deck.Rank]int)
	for _, r := range ranks {
		counts[r]++
	}
	// Distinct ranks ordered by count desc, then rank desc.
	grouped := make([]deck.Rank, 0, len(counts))
	for r := range counts {
		grouped = append(grouped, r)
	}
	sort.Slice(grouped, func(i, j int) bool {
		if counts[grouped[i]] != counts[grouped[j]] {
			return counts[grouped[i]] > counts[grouped[j]]
		}
		return grouped[i] > grouped[j]
	})

	switch {
	case isStraight && isFlush:
		return HandResult{StraightFlush, []deck.Rank{straightHigh}, cards}, nil
	case counts[grouped[0]] == 4:
		return HandResult{FourOfAKind, []deck.Rank{grouped[0], grouped[1]}, cards}, nil
	case counts[grouped[0]] == 3 && len(grouped) == 2:
		return HandResult{FullHouse, []deck.Rank{grouped[0], grouped[1]}, cards}, nil
	case isFlush:
		return HandResult{Flush, ranks, cards}, nil
	case isStraight:
		return HandResult{Straight, []deck.Rank{straightHigh}, cards}, nil
	case counts[grouped[0]] == 3:
		return HandResult{ThreeOfAKind, grouped, cards}, nil
	case counts[grouped[0]] == 2 && counts[grouped[1]] == 2:
		return HandResult{TwoPair, grouped, cards}, nil
	case counts[grouped[0]] == 2:
		return HandResult{Pair, grouped, cards}, nil
	default:
		return HandResult{HighCard, ranks, cards}, nil
	}
}

// straightHighRank reports whether ranks (sorted descending) form a
// straight, and its high rank. The wheel A-2-3-4-5 counts as 5-high.
func straightHighRank(ranks []deck.Rank) (deck.Rank, bool) {
	distinct := true
	for i := 1; i < len(ranks); i++ {
		if ranks[i] == ranks[i-1] {
			distinct = false
			break
		}
	}
	if distinct && ranks[0]-ranks[4] == 4 {
		return ranks[0], true
	}
	if distinct && ranks[0] == deck.Ace && ranks[1] == deck.Five && ranks[4] == deck.Two {
		return deck.Five, true
	}
	return 0, false
}

// EvaluateBest returns the best 5-card hand from 5 to 7 cards by checking
// every 5-card subset
func EvaluateBest(cards []deck.Card) (HandResult, error) {
	if len(cards) < 5 {
		return HandResult{}, fmt.Errorf("%w, got %d", ErrTooFewCards, len(cards))
	}
	if len(cards) == 5 {
		return EvaluateFive(cards)
	}

	var best HandResult
	found := false
	combo := make([]deck.Card, 5)
	n := len(cards)
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						combo[0], combo[1], combo[2], combo[3], combo[4] =
							cards[a], cards[b], cards[c], cards[d], cards[e]
						result, err := EvaluateFive(combo)
						if err != nil {
							return HandResult{}, err
						}
						if !found || result.Compare(best) > 0 {
							best = result
							best.Cards = append([]deck.Card(nil), combo...)
							found = true
						}
					}
				}
			}
		}
	}
	return best, nil
}

// CompareHands evaluates each card set with EvaluateBest and returns the
// indices of all sets tied for the maximum
func CompareHands(hands [][]deck.Card) ([]int, error) {
	if len(hands) == 0 {
		return nil, errors.New("no hands to compare")
	}

	results := make([]HandResult, len(hands))
	for i, h := range hands {
		result, err := EvaluateBest(h)
		if err != nil {
			return nil, fmt.Errorf("hand %d: %w", i, err)
		}
		results[i] = result
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.Compare(best) > 0 {
			best = r
		}
	}

	var winners []int
	for i, r := range results {
		if r.Compare(best) == 0 {
			winners = append(winners, i)
		}
	}
	return winners, nil
}
