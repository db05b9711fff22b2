package transfer

import "github.com/maheshrc27/postflow/internal/models"

// PostCreation is the create request. A nil Platforms means the field was
// omitted; a present but empty set is kept as given.
type PostCreation struct {
	Title       string              `json:"title"`
	ImageURL    string              `json:"imageUrl" validate:"required,url"`
	Caption     string              `json:"caption"`
	Hashtags    string              `json:"hashtags"`
	Platforms   *models.PlatformSet `json:"platforms"`
	ProfileKey  string              `json:"profileKey"`
	ScheduledAt int64               `json:"scheduledAt" validate:"required,gt=0"`
	Status      models.Status       `json:"status" validate:"omitempty,oneof=draft scheduled"`
}

// PostUpdate carries a partial update; nil fields keep their stored value.
type PostUpdate struct {
	Title       *string             `json:"title"`
	ImageURL    *string             `json:"imageUrl" validate:"omitempty,url"`
	Caption     *string             `json:"caption"`
	Hashtags    *string             `json:"hashtags"`
	Platforms   *models.PlatformSet `json:"platforms"`
	ProfileKey  *string             `json:"profileKey"`
	ScheduledAt *int64              `json:"scheduledAt" validate:"omitempty,gt=0"`
	Status      *models.Status      `json:"status" validate:"omitempty,oneof=draft scheduled"`
}

type MediaUpload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
