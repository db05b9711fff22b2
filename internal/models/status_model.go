package models

import "fmt"

type Status string

const (
	PostStatusDraft      Status = "draft"
	PostStatusScheduled  Status = "scheduled"
	PostStatusPublishing Status = "publishing"
	PostStatusPublished  Status = "published"
	PostStatusFailed     Status = "failed"
	PostStatusCancelled  Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	status := Status(s)
	switch status {
	case PostStatusDraft, PostStatusScheduled, PostStatusPublishing,
		PostStatusPublished, PostStatusFailed, PostStatusCancelled:
		return status, nil
	}
	return "", fmt.Errorf("unknown post status %q", s)
}

// Terminal reports whether no transition leaves the status.
func (s Status) Terminal() bool {
	return s == PostStatusPublished || s == PostStatusCancelled
}

// Editable reports whether the post content may still change.
func (s Status) Editable() bool {
	return s == PostStatusDraft || s == PostStatusScheduled
}

var transitions = map[Status][]Status{
	PostStatusDraft:      {PostStatusScheduled},
	PostStatusScheduled:  {PostStatusPublishing, PostStatusCancelled},
	PostStatusPublishing: {PostStatusPublished, PostStatusFailed, PostStatusScheduled},
	PostStatusFailed:     {PostStatusScheduled},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
