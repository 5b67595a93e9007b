package entity

// PollView is the read-model projection of a poll: the poll itself, its
// options in creation order with aggregated vote counts, and the option the
// current user voted for (0 when anonymous or not yet voted).
type PollView struct {
	Poll     Poll         `json:"poll"`
	Options  []OptionView `json:"options"`
	UserVote int64        `json:"user_vote,omitempty"`
}

type OptionView struct {
	Option
	Votes int64 `json:"votes"`
}
