package entity

import "time"

type Poll struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Option struct {
	ID       int64  `json:"id"`
	PollID   int64  `json:"poll_id"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}
