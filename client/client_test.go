package client

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRoundTrip(t *testing.T) {
	c := NewClient()
	c.Username = "alice"
	c.Mid = "mid-value"
	c.Cookies["sessionid"] = "s1"
	c.Cookies["ds_user_id"] = "7"
	c.AuthorizationData = map[string]any{"ds_user_id": "7", "sessionid": "s1"}

	blob, err := c.ExportSettings()
	require.NoError(t, err)

	restored := NewClient()
	require.NoError(t, restored.ImportSettings(blob))

	assert.Equal(t, "alice", restored.Username)
	assert.Equal(t, "mid-value", restored.Mid)
	assert.Equal(t, c.UUID, restored.UUID, "device identity must survive the round trip")
	assert.Equal(t, c.AndroidDeviceID, restored.AndroidDeviceID)
	assert.Equal(t, int64(7), restored.UserID())
	assert.Equal(t, "s1", restored.GetSessionID())
	assert.True(t, restored.IsLoggedIn())
}

func TestImportSettingsRejectsGarbage(t *testing.T) {
	c := NewClient()
	assert.Error(t, c.ImportSettings([]byte("not json")))
}

func TestFreshClientIsNotLoggedIn(t *testing.T) {
	c := NewClient()
	assert.False(t, c.IsLoggedIn())
	assert.Zero(t, c.UserID())
}

func TestMediaPermalinkAndTypeTag(t *testing.T) {
	m := &Media{Code: "AbC123", MediaType: MediaTypeVideo}
	assert.Equal(t, "https://www.instagram.com/p/AbC123/", m.Permalink())
	assert.Equal(t, "video", m.TypeTag())

	assert.Empty(t, (&Media{}).Permalink())
	assert.Equal(t, "photo", (&Media{MediaType: MediaTypePhoto}).TypeTag())
	assert.Equal(t, "album", (&Media{MediaType: MediaTypeAlbum}).TypeTag())
	assert.Equal(t, "unknown", (&Media{MediaType: 42}).TypeTag())
}

func TestBuildUserAgent(t *testing.T) {
	ds := defaultDeviceSettings()
	ua := BuildUserAgent(ds, "en_US")

	assert.True(t, strings.HasPrefix(ua, "Instagram "+ds.AppVersion+" Android"))
	assert.Contains(t, ua, ds.Model)
	assert.Contains(t, ua, "en_US")
}

func TestGenerateDeviceID(t *testing.T) {
	id := GenerateDeviceID()
	assert.True(t, strings.HasPrefix(id, "android-"))
	assert.Len(t, id, len("android-")+16)
}

func TestParseUser(t *testing.T) {
	account, err := parseUser([]byte(`{"user":{"pk":7,"username":"alice","follower_count":42}}`))
	require.NoError(t, err)
	assert.Equal(t, int64(7), account.Pk)
	assert.Equal(t, "alice", account.Username)
	assert.Equal(t, 42, account.FollowerCount)

	_, err = parseUser([]byte(`{"status":"ok"}`))
	assert.Error(t, err)
}
