package game

import (
	"slices"

	"bookmatch/internal/models"
)

// SelectionStatus describes the grid selection after a toggle
type SelectionStatus struct {
	Count     int  `json:"selectedCount"`
	Min       int  `json:"minRequired"`
	Max       int  `json:"maxAllowed"`
	CanFinish bool `json:"canFinish"`
}

// ToggleSelection selects or deselects a candidate in a grid session.
// Deselecting is always allowed; selecting past the maximum is rejected.
func (s *Session) ToggleSelection(bookID int64) (SelectionStatus, error) {
	s.mu.Lock()
	status, ev, err := s.toggle(bookID)
	s.mu.Unlock()
	if err != nil {
		return status, err
	}
	s.dispatcher.Publish(ev)
	return status, nil
}

func (s *Session) toggle(bookID int64) (SelectionStatus, Event, error) {
	if s.state != StatePlaying || s.mode != ModeGrid {
		return SelectionStatus{}, nil, invalidState("selection requires a playing grid session")
	}
	if _, ok := s.index[bookID]; !ok {
		return s.selectionStatus(), nil, notFound(bookID)
	}

	selected := true
	if i := slices.Index(s.selected, bookID); i >= 0 {
		s.selected = slices.Delete(s.selected, i, i+1)
		selected = false
	} else {
		if len(s.selected) >= s.cfg.Grid.MaxSelections {
			return s.selectionStatus(), nil, limitExceeded(s.cfg.Grid.MaxSelections)
		}
		s.selected = append(s.selected, bookID)
	}

	status := s.selectionStatus()
	return status, SelectionChanged{
		SessionID:       s.id,
		BookID:          bookID,
		Selected:        selected,
		SelectionStatus: status,
	}, nil
}

func (s *Session) selectionStatus() SelectionStatus {
	n := len(s.selected)
	return SelectionStatus{
		Count:     n,
		Min:       s.cfg.Grid.MinSelections,
		Max:       s.cfg.Grid.MaxSelections,
		CanFinish: n >= s.cfg.Grid.MinSelections,
	}
}

// Finish completes a grid session once enough books are selected
func (s *Session) Finish() (*GridResult, error) {
	s.mu.Lock()
	res, ev, err := s.finish()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.dispatcher.Publish(ev)
	return res, nil
}

func (s *Session) finish() (*GridResult, Event, error) {
	if s.state != StatePlaying || s.mode != ModeGrid {
		return nil, nil, invalidState("finish requires a playing grid session")
	}
	if len(s.selected) < s.cfg.Grid.MinSelections {
		return nil, nil, insufficientSelection(s.cfg.Grid.MinSelections)
	}

	elapsed := s.complete()

	books := make([]models.Book, 0, len(s.selected))
	for _, id := range s.selected {
		books = append(books, s.candidates[s.index[id]])
	}

	res := &GridResult{
		Summary: Summary{
			SessionID: s.id,
			Child:     s.childID,
			GameMode:  ModeGrid,
			Selected:  books,
			Profile:   SynthesizeGrid(books),
			ElapsedMs: elapsed.Milliseconds(),
		},
		Efficiency: gridEfficiency(elapsed),
	}
	s.result = res

	return res, Completed{SessionID: s.id, Result: res}, nil
}
