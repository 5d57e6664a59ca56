package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const MaxCommentLength = 2000

// Comment belongs to exactly one roadmap item and is immutable once created.
type Comment struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	Message   string    `json:"message"`
	Author    Profile   `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentInput is the add-comment payload.
type CommentInput struct {
	ItemID  string
	Message string
}

func (in *CommentInput) Normalize() {
	in.ItemID = strings.TrimSpace(in.ItemID)
	in.Message = strings.TrimSpace(in.Message)
}

func (in CommentInput) Validate() error {
	errs := fieldErrors{}
	if in.ItemID == "" {
		errs.add("item_id", "item is required")
	}
	switch {
	case in.Message == "":
		errs.add("message", "message is required")
	case utf8.RuneCountInString(in.Message) > MaxCommentLength:
		errs.add("message", "message must be at most 2000 characters")
	}
	return errs.err()
}
