package voting

import "github.com/openlexica/backend/internal/models"

// Action is what a cast did to the voter's existing vote.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionRemoved Action = "removed"
)

// Deltas are the signed counter adjustments a transition produces.
type Deltas struct {
	Score int
	Up    int
	Down  int
}

func directionDeltas(d models.VoteDirection) Deltas {
	if d == models.VoteUp {
		return Deltas{Score: 1, Up: 1}
	}
	return Deltas{Score: -1, Down: 1}
}

func (d Deltas) negate() Deltas {
	return Deltas{Score: -d.Score, Up: -d.Up, Down: -d.Down}
}

func (d Deltas) add(o Deltas) Deltas {
	return Deltas{Score: d.Score + o.Score, Up: d.Up + o.Up, Down: d.Down + o.Down}
}

// transition computes the next state for a cast of `requested` given the
// voter's current direction (nil = no vote).
//
//	no vote  + D        -> created, now voting D
//	voted D  + same D   -> removed, back to no vote
//	voted X  + D != X   -> updated, now voting D
//
// next is nil when the vote toggles off.
func transition(current *models.VoteDirection, requested models.VoteDirection) (next *models.VoteDirection, action Action, d Deltas) {
	if current == nil {
		return &requested, ActionCreated, directionDeltas(requested)
	}
	if *current == requested {
		return nil, ActionRemoved, directionDeltas(requested).negate()
	}
	// switch: undo the old direction, apply the new one
	return &requested, ActionUpdated, directionDeltas(*current).negate().add(directionDeltas(requested))
}
