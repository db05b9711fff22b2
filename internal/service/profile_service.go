package service

import (
	"fmt"
	"log/slog"

	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/pkg/utils"
)

// ProfileService maps a post's profile key to the Meta credentials to publish with.
type ProfileService interface {
	Resolve(profileKey string) models.Credentials
}

type profileService struct {
	profiles   map[string]models.Credentials
	defaultKey string
}

// NewProfileService copies the configured profiles into an immutable
// registry, decrypting "enc:" values with the secret key.
func NewProfileService(cfg config.Config) (ProfileService, error) {
	profiles := make(map[string]models.Credentials, len(cfg.Profiles))

	for key, p := range cfg.Profiles {
		creds, err := revealProfile(p, cfg.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", key, err)
		}
		profiles[key] = creds
	}

	if _, ok := profiles[cfg.DefaultProfile]; !ok {
		slog.Warn("default profile has no credentials configured", "profile", cfg.DefaultProfile)
		profiles[cfg.DefaultProfile] = models.Credentials{}
	}

	return &profileService{profiles: profiles, defaultKey: cfg.DefaultProfile}, nil
}

func revealProfile(p config.Profile, secretKey string) (models.Credentials, error) {
	var creds models.Credentials
	fields := []struct {
		dst *string
		src string
	}{
		{&creds.FBPageID, p.PageID},
		{&creds.FBToken, p.PageToken},
		{&creds.IGUserID, p.IGUserID},
		{&creds.IGToken, p.IGAccessToken},
	}

	for _, f := range fields {
		v, err := utils.RevealSecret(f.src, secretKey)
		if err != nil {
			return models.Credentials{}, err
		}
		*f.dst = v
	}
	return creds, nil
}

// Resolve never fails: unknown or empty keys get the default profile.
func (s *profileService) Resolve(profileKey string) models.Credentials {
	if creds, ok := s.profiles[profileKey]; ok {
		return creds
	}
	return s.profiles[s.defaultKey]
}
