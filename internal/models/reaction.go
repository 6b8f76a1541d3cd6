package models

import "time"

// ReactionKind is the normalized reaction enumeration.
type ReactionKind string

const (
	ReactionThumbsUp   ReactionKind = "thumbs_up"
	ReactionThumbsDown ReactionKind = "thumbs_down"
	ReactionLaugh      ReactionKind = "laugh"
	ReactionHooray     ReactionKind = "hooray"
	ReactionConfused   ReactionKind = "confused"
	ReactionHeart      ReactionKind = "heart"
	ReactionRocket     ReactionKind = "rocket"
	ReactionEyes       ReactionKind = "eyes"
	ReactionUnknown    ReactionKind = "unknown"
)

// ReactionKinds lists every member of the enumeration in display order.
var ReactionKinds = []ReactionKind{
	ReactionThumbsUp,
	ReactionThumbsDown,
	ReactionLaugh,
	ReactionHooray,
	ReactionConfused,
	ReactionHeart,
	ReactionRocket,
	ReactionEyes,
	ReactionUnknown,
}

// IsPositive reports whether the kind counts as approval.
func (k ReactionKind) IsPositive() bool {
	switch k {
	case ReactionThumbsUp, ReactionHeart, ReactionHooray, ReactionRocket:
		return true
	}
	return false
}

// IsNegative reports whether the kind counts as disapproval.
func (k ReactionKind) IsNegative() bool {
	return k == ReactionThumbsDown || k == ReactionConfused
}

// Reaction is a single reaction on a comment. Synthetic reactions are
// inferred from comment text rather than observed.
type Reaction struct {
	Kind      ReactionKind `json:"kind"`
	User      User         `json:"user"`
	CreatedAt time.Time    `json:"createdAt"`
	Synthetic bool         `json:"synthetic,omitempty"`
}
