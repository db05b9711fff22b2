package models

// Credentials are the resolved Meta credentials of one profile.
type Credentials struct {
	FBPageID string
	FBToken  string
	IGUserID string
	IGToken  string
}
