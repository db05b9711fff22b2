package service

import (
	"testing"

	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_Resolve(t *testing.T) {
	sealed, err := utils.EncryptSecret("acme-page-token", "secret")
	require.NoError(t, err)

	cfg := config.Config{
		SecretKey:      "secret",
		DefaultProfile: config.DefaultProfileKey,
		Profiles: map[string]config.Profile{
			config.DefaultProfileKey: {PageID: "p0", PageToken: "t0", IGUserID: "ig0", IGAccessToken: "t0"},
			"acme":                   {PageID: "p1", PageToken: sealed, IGUserID: "ig1", IGAccessToken: "it1"},
		},
	}

	profiles, err := NewProfileService(cfg)
	require.NoError(t, err)

	def := models.Credentials{FBPageID: "p0", FBToken: "t0", IGUserID: "ig0", IGToken: "t0"}
	acme := models.Credentials{FBPageID: "p1", FBToken: "acme-page-token", IGUserID: "ig1", IGToken: "it1"}

	assert.Equal(t, acme, profiles.Resolve("acme"))
	assert.Equal(t, def, profiles.Resolve(""))
	assert.Equal(t, def, profiles.Resolve("unknown"))
	assert.Equal(t, def, profiles.Resolve("ACME"), "keys match exactly")

	for i := 0; i < 3; i++ {
		assert.Equal(t, acme, profiles.Resolve("acme"))
	}

	// Mutating the source config after construction does not leak in.
	cfg.Profiles["acme"] = config.Profile{PageID: "changed"}
	assert.Equal(t, acme, profiles.Resolve("acme"))
}

func TestProfileService_MissingDefault(t *testing.T) {
	profiles, err := NewProfileService(config.Config{DefaultProfile: "default"})
	require.NoError(t, err)
	assert.Equal(t, models.Credentials{}, profiles.Resolve("anything"))
}

func TestProfileService_BadSecret(t *testing.T) {
	_, err := NewProfileService(config.Config{
		SecretKey:      "secret",
		DefaultProfile: "default",
		Profiles: map[string]config.Profile{
			"default": {PageToken: utils.SecretPrefix + "AAAA"},
		},
	})
	assert.Error(t, err)
}
