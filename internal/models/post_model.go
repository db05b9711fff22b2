package models

import (
	"encoding/json"
	"strings"
)

type Post struct {
	ID          string      `db:"id" json:"id"`
	Title       string      `db:"title" json:"title"`
	ImageURL    string      `db:"image_url" json:"image_url"`
	Caption     string      `db:"caption" json:"caption"`
	Hashtags    string      `db:"hashtags" json:"hashtags"`
	Platforms   PlatformSet `db:"platforms" json:"platforms"`
	ProfileKey  string      `db:"profile_key" json:"profile_key"`
	ScheduledAt int64       `db:"scheduled_at" json:"scheduled_at"`
	Status      Status      `db:"status" json:"status"`
	PublishedAt *int64      `db:"published_at" json:"published_at"`
	Error       *string     `db:"error" json:"error"`
	Log         *string     `db:"log" json:"log"`
	CreatedAt   int64       `db:"created_at" json:"created_at"`
	UpdatedAt   int64       `db:"updated_at" json:"updated_at"`
}

// Message is the text sent to the platforms: caption, blank line, hashtags.
func (p *Post) Message() string {
	var parts []string
	if p.Caption != "" {
		parts = append(parts, p.Caption)
	}
	if p.Hashtags != "" {
		parts = append(parts, p.Hashtags)
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

type Platform string

const (
	PlatformFacebook  Platform = "fb"
	PlatformInstagram Platform = "ig"
)

// publishOrder is the order in which platforms are attempted within one post.
var publishOrder = []Platform{PlatformFacebook, PlatformInstagram}

func (p Platform) Valid() bool {
	switch p {
	case PlatformFacebook, PlatformInstagram:
		return true
	}
	return false
}

func (p Platform) Label() string {
	switch p {
	case PlatformFacebook:
		return "FB"
	case PlatformInstagram:
		return "IG"
	}
	return strings.ToUpper(string(p))
}

// PlatformSet is an ordered, duplicate-free set of known platforms.
type PlatformSet []Platform

// NewPlatformSet keeps known tags only, drops duplicates and orders the
// result fb before ig.
func NewPlatformSet(tags ...string) PlatformSet {
	seen := make(map[Platform]bool, len(tags))
	for _, tag := range tags {
		p := Platform(strings.ToLower(strings.TrimSpace(tag)))
		if p.Valid() {
			seen[p] = true
		}
	}

	set := PlatformSet{}
	for _, p := range publishOrder {
		if seen[p] {
			set = append(set, p)
		}
	}
	return set
}

// ParsePlatforms parses the comma-joined column representation.
func ParsePlatforms(csv string) PlatformSet {
	return NewPlatformSet(strings.Split(csv, ",")...)
}

func (s PlatformSet) Has(p Platform) bool {
	for _, v := range s {
		if v == p {
			return true
		}
	}
	return false
}

func (s PlatformSet) String() string {
	tags := make([]string, 0, len(s))
	for _, p := range s {
		tags = append(tags, string(p))
	}
	return strings.Join(tags, ",")
}

// UnmarshalJSON accepts either ["fb","ig"] or "fb,ig".
func (s *PlatformSet) UnmarshalJSON(data []byte) error {
	var tags []string
	if err := json.Unmarshal(data, &tags); err == nil {
		*s = NewPlatformSet(tags...)
		return nil
	}

	var csv string
	if err := json.Unmarshal(data, &csv); err != nil {
		return err
	}
	*s = ParsePlatforms(csv)
	return nil
}
