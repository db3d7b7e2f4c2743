// Package position computes renumbering plans that keep sibling list
// positions dense: for a board with N lists the positions are exactly {1..N}.
// The functions here are pure; callers apply the returned plan atomically.
package position

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tabulahq/tabula/internal/domain"
)

// PlanMove computes the assignments needed to move the given list to newPos.
// lists must be the full sibling set of one board. Moving a list onto its
// current position yields an empty plan. Targets outside [1, N] fail with a
// ValidationError; an unknown list ID fails with ErrNotFound.
//
// The moved list's own assignment is always the last entry of the plan.
func PlanMove(lists []*domain.List, listID uuid.UUID, newPos int) ([]domain.PositionChange, error) {
	target := find(lists, listID)
	if target == nil {
		return nil, fmt.Errorf("position.PlanMove: list %s: %w", listID, domain.ErrNotFound)
	}

	if newPos < 1 || newPos > len(lists) {
		return nil, fmt.Errorf("position.PlanMove: %w",
			domain.Invalid(fmt.Sprintf("target position %d out of range 1..%d", newPos, len(lists))))
	}

	oldPos := target.Position
	if newPos == oldPos {
		return nil, nil
	}

	var plan []domain.PositionChange
	for _, l := range lists {
		if l.ID == listID {
			continue
		}
		switch {
		case newPos < oldPos && l.Position >= newPos && l.Position < oldPos:
			plan = append(plan, domain.PositionChange{ListID: l.ID, Position: l.Position + 1})
		case newPos > oldPos && l.Position > oldPos && l.Position <= newPos:
			plan = append(plan, domain.PositionChange{ListID: l.ID, Position: l.Position - 1})
		}
	}

	plan = append(plan, domain.PositionChange{ListID: listID, Position: newPos})
	return plan, nil
}

// PlanRemoval computes the assignments that close the gap left by deleting
// the given list: every sibling above its position moves down by one. The
// returned plan does not include the removed list itself.
func PlanRemoval(lists []*domain.List, listID uuid.UUID) (*domain.List, []domain.PositionChange, error) {
	target := find(lists, listID)
	if target == nil {
		return nil, nil, fmt.Errorf("position.PlanRemoval: list %s: %w", listID, domain.ErrNotFound)
	}

	var plan []domain.PositionChange
	for _, l := range lists {
		if l.Position > target.Position {
			plan = append(plan, domain.PositionChange{ListID: l.ID, Position: l.Position - 1})
		}
	}

	return target, plan, nil
}

func find(lists []*domain.List, id uuid.UUID) *domain.List {
	for _, l := range lists {
		if l.ID == id {
			return l
		}
	}
	return nil
}
