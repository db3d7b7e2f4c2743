// Package access centralizes the capability checks for board, list, and card
// operations into a single decision function. Every mutation path consults
// Decide instead of repeating ownership conditionals per endpoint.
package access

import (
	"github.com/google/uuid"

	"github.com/tabulahq/tabula/internal/domain"
)

// Action identifies a gated operation on a board or its contents.
type Action string

const (
	ActionViewBoard        Action = "view_board"
	ActionViewMembers      Action = "view_members"
	ActionUpdateBoard      Action = "update_board"
	ActionDeleteBoard      Action = "delete_board"
	ActionAddMember        Action = "add_member"
	ActionRemoveMember     Action = "remove_member"
	ActionViewLists        Action = "view_lists"
	ActionManageLists      Action = "manage_lists"
	ActionCreateCard       Action = "create_card"
	ActionEditCard         Action = "edit_card"
	ActionManagePerformers Action = "manage_performers"
)

// Standing is the actor's board-scoped rank, derived per request.
type Standing int

const (
	StandingOutsider Standing = iota
	StandingMember
	StandingOwner
)

// Request carries the fully-loaded context for one decision. MemberIDs is the
// board's member set; TargetUserID is the subject of membership and performer
// actions and uuid.Nil otherwise.
type Request struct {
	Board        *domain.Board
	Actor        *domain.User
	Action       Action
	TargetUserID uuid.UUID
	MemberIDs    []uuid.UUID
}

// Decision is the resolver's verdict. A denial always carries a reason that
// is shown to the user verbatim.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Err converts a Decision into a PermissionError, or nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return domain.Denied(d.Reason)
}

// StandingOf derives the actor's board-scoped rank. The global admin role is
// not a standing; admins bypass standing checks inside Decide.
func StandingOf(board *domain.Board, actor *domain.User, memberIDs []uuid.UUID) Standing {
	if board.OwnerID == actor.ID {
		return StandingOwner
	}
	for _, id := range memberIDs {
		if id == actor.ID {
			return StandingMember
		}
	}
	return StandingOutsider
}

// IsMember reports whether userID belongs to the board, counting the owner.
func IsMember(board *domain.Board, memberIDs []uuid.UUID, userID uuid.UUID) bool {
	if board.OwnerID == userID {
		return true
	}
	for _, id := range memberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Decide resolves (board, actor, action, target) to allow or deny. It has no
// side effects and performs no I/O; the caller loads everything up front.
//
// Precedence: self-targeting guards on membership removal apply to everyone,
// admins included. After that the global admin role bypasses all board-level
// checks, then owner, member, outsider standings are consulted in order.
func Decide(req Request) Decision {
	// Self-removal is forbidden even for admins and owners.
	if req.Action == ActionRemoveMember && req.TargetUserID == req.Actor.ID {
		return deny("cannot remove yourself from the board")
	}

	if req.Actor.Role == domain.RoleAdmin {
		if d, ok := targetPredicate(req); ok {
			return d
		}
		return allow()
	}

	standing := StandingOf(req.Board, req.Actor, req.MemberIDs)

	switch req.Action {
	case ActionViewBoard, ActionViewMembers, ActionViewLists:
		if req.Board.Visibility == domain.VisibilityPublic {
			return allow()
		}
		if standing >= StandingMember {
			return allow()
		}
		return deny("not a board member")

	case ActionUpdateBoard, ActionDeleteBoard, ActionAddMember, ActionRemoveMember:
		if standing != StandingOwner {
			return deny("only the board owner can perform this action")
		}
		if d, ok := targetPredicate(req); ok {
			return d
		}
		return allow()

	case ActionManageLists:
		if standing != StandingOwner {
			return deny("only the board owner can manage lists")
		}
		return allow()

	case ActionCreateCard, ActionEditCard:
		if standing >= StandingMember {
			return allow()
		}
		return deny("not a board member")

	case ActionManagePerformers:
		if standing != StandingOwner {
			return deny("only the board owner can manage performers")
		}
		if d, ok := targetPredicate(req); ok {
			return d
		}
		return allow()
	}

	return deny("unknown action " + string(req.Action))
}

// targetPredicate applies the per-action checks on the target user that hold
// regardless of the actor's rank. Returns ok=false when the action has none
// or the predicate passes.
func targetPredicate(req Request) (Decision, bool) {
	if req.Action == ActionManagePerformers && req.TargetUserID != uuid.Nil {
		if !IsMember(req.Board, req.MemberIDs, req.TargetUserID) {
			return deny("user is not a member of this board"), true
		}
	}
	return Decision{}, false
}
