package game

import (
	"math"
	"sort"
	"time"

	"bookmatch/internal/models"
)

// Pair is the two books currently offered in a comparison session
type Pair struct {
	First  models.Book `json:"book1"`
	Second models.Book `json:"book2"`
}

// Contains reports whether id is one of the pair's books
func (p Pair) Contains(id int64) bool {
	return p.First.ID == id || p.Second.ID == id
}

// Other returns the ID of the book that is not id
func (p Pair) Other(id int64) int64 {
	if p.First.ID == id {
		return p.Second.ID
	}
	return p.First.ID
}

// matches compares pairs without regard to order
func (p *Pair) matches(a, b int64) bool {
	if p == nil {
		return false
	}
	return (p.First.ID == a && p.Second.ID == b) || (p.First.ID == b && p.Second.ID == a)
}

func (p *Pair) clone() *Pair {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Progress reports completed comparisons against the total
type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Comparison is one recorded judgement
type Comparison struct {
	Winner int64     `json:"winner"`
	Loser  int64     `json:"loser"`
	At     time.Time `json:"timestamp"`
}

// ExpectedScore is the Elo win probability of a player rated own against opponent
func ExpectedScore(own, opponent float64) float64 {
	return 1 / (1 + math.Pow(10, (opponent-own)/400))
}

// UpdateElo returns the new winner and loser ratings after one game
func UpdateElo(winner, loser, k float64) (float64, float64) {
	expectedWinner := ExpectedScore(winner, loser)
	expectedLoser := ExpectedScore(loser, winner)
	return winner + k*(1-expectedWinner), loser + k*(0-expectedLoser)
}

// Compare records winnerID as the preferred book of the pending pair. It
// returns the updated progress and, when this was the final comparison, the result.
func (s *Session) Compare(winnerID int64) (Progress, *ComparisonResult, error) {
	s.mu.Lock()
	progress, res, ev, err := s.compare(winnerID)
	s.mu.Unlock()
	if err != nil {
		return progress, nil, err
	}
	s.dispatcher.Publish(ev)
	return progress, res, nil
}

func (s *Session) compare(winnerID int64) (Progress, *ComparisonResult, Event, error) {
	if s.state != StatePlaying || s.mode != ModeComparison {
		return Progress{}, nil, nil, invalidState("compare requires a playing comparison session")
	}
	if s.pair == nil {
		return s.progress(), nil, nil, ErrNoPendingPair
	}
	if !s.pair.Contains(winnerID) {
		return s.progress(), nil, nil, notFound(winnerID)
	}

	loserID := s.pair.Other(winnerID)
	s.ratings[winnerID], s.ratings[loserID] = UpdateElo(s.ratings[winnerID], s.ratings[loserID], s.cfg.Comparison.KFactor)
	s.history = append(s.history, Comparison{Winner: winnerID, Loser: loserID, At: s.clock.Now()})
	s.comparisons++
	progress := s.progress()

	if s.comparisons >= s.cfg.Comparison.TotalComparisons {
		res := s.completeComparison()
		return progress, res, Completed{SessionID: s.id, Result: res}, nil
	}

	s.lastPair = s.pair
	s.pair = s.nextPair()

	return progress, nil, ComparisonProgressed{
		SessionID: s.id,
		Winner:    winnerID,
		Loser:     loserID,
		Pair:      s.pair.clone(),
		Progress:  progress,
	}, nil
}

func (s *Session) completeComparison() *ComparisonResult {
	elapsed := s.complete()
	s.pair = nil

	cfg := s.cfg.Comparison
	ranked := s.ranked()
	top := ranked[:min(cfg.TopSelected, len(ranked))]

	selected := make([]models.Book, len(top))
	for i, rb := range top {
		selected[i] = rb.Book
	}
	ratings := make(map[int64]float64, len(s.ratings))
	for id, r := range s.ratings {
		ratings[id] = r
	}

	res := &ComparisonResult{
		Summary: Summary{
			SessionID: s.id,
			Child:     s.childID,
			GameMode:  ModeComparison,
			Selected:  selected,
			Profile:   SynthesizeComparison(ranked, s.comparisons, cfg.TotalComparisons, cfg.ProfileSample, cfg.TopSelected),
			ElapsedMs: elapsed.Milliseconds(),
		},
		Ratings:     ratings,
		Ranking:     ranked,
		Comparisons: append([]Comparison(nil), s.history...),
		Completed:   s.comparisons,
		Efficiency:  comparisonEfficiency(elapsed, s.comparisons),
	}
	s.result = res
	return res
}

// ranked returns candidates by rating, highest first, ties in candidate order
func (s *Session) ranked() []RatedBook {
	out := make([]RatedBook, len(s.candidates))
	for i, b := range s.candidates {
		out[i] = RatedBook{Book: b, Rating: s.ratings[b.ID]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rating > out[j].Rating
	})
	return out
}

// nextPair offers the first adjacent pair in rating order that differs from
// the previous pair, falling back to a random distinct pair.
func (s *Session) nextPair() *Pair {
	ranked := s.ranked()
	for i := 0; i+1 < len(ranked); i++ {
		a, b := ranked[i].Book, ranked[i+1].Book
		if a.ID == b.ID || s.lastPair.matches(a.ID, b.ID) {
			continue
		}
		return &Pair{First: a, Second: b}
	}
	return s.randomPair()
}

func (s *Session) randomPair() *Pair {
	if len(s.candidates) < 2 {
		return nil
	}
	perm := s.rng.Perm(len(s.candidates))
	return &Pair{First: s.candidates[perm[0]], Second: s.candidates[perm[1]]}
}

func (s *Session) progress() Progress {
	total := s.cfg.Comparison.TotalComparisons
	p := Progress{Current: s.comparisons, Total: total}
	if total > 0 {
		p.Percentage = int(math.Round(float64(s.comparisons) * 100 / float64(total)))
	}
	return p
}
