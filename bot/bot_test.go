package bot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PiotrWarzachowski/go-instagram-bot/client"
	"github.com/PiotrWarzachowski/go-instagram-bot/internal/config"
	"github.com/PiotrWarzachowski/go-instagram-bot/internal/journal"
	"github.com/PiotrWarzachowski/go-instagram-bot/internal/logging"
	"github.com/PiotrWarzachowski/go-instagram-bot/internal/storage"
)

// fakeClient scripts the remote side for workflow tests.
type fakeClient struct {
	loggedIn bool

	loginCalls   int
	loginFn      func(username, password, code string) (*client.LoginResult, error)
	resolveCalls int
	resolveErr   error
	logoutCalls  int
	logoutErr    error

	uploadCalls int
	uploadFn    func() (*client.Media, error)
}

func (f *fakeClient) SetUserAgent(string)                          {}
func (f *fakeClient) SetDelayRange(float64, float64)               {}
func (f *fakeClient) SetProxy(string) error                        { return nil }
func (f *fakeClient) SetProgressReporter(client.ProgressReporter)  {}

func (f *fakeClient) ExportSettings() ([]byte, error) {
	return []byte(`{"logged_in":true}`), nil
}

func (f *fakeClient) ImportSettings(data []byte) error {
	f.loggedIn = true
	return nil
}

func (f *fakeClient) IsLoggedIn() bool { return f.loggedIn }

func (f *fakeClient) Login(username, password, code string) (*client.LoginResult, error) {
	f.loginCalls++
	if f.loginFn == nil {
		f.loggedIn = true
		return &client.LoginResult{Success: true, UserID: 7, Username: username}, nil
	}
	result, err := f.loginFn(username, password, code)
	if err == nil && result != nil && result.Success {
		f.loggedIn = true
	}
	return result, err
}

func (f *fakeClient) ResolveChallenge(map[string]any) error {
	f.resolveCalls++
	return f.resolveErr
}

func (f *fakeClient) Logout() error {
	f.logoutCalls++
	f.loggedIn = false
	return f.logoutErr
}

func (f *fakeClient) CurrentUser() (*client.Account, error) {
	return &client.Account{Pk: 7, Username: "alice"}, nil
}
func (f *fakeClient) UserIDFromUsername(string) (int64, error) { return 8, nil }
func (f *fakeClient) Follow(int64) (*client.FriendshipStatus, error) {
	return &client.FriendshipStatus{Following: true}, nil
}
func (f *fakeClient) Unfollow(int64) (*client.FriendshipStatus, error) {
	return &client.FriendshipStatus{}, nil
}
func (f *fakeClient) Like(string) error                    { return nil }
func (f *fakeClient) Comment(string, string) (string, error) { return "c1", nil }
func (f *fakeClient) UserMedias(int64, int) ([]*client.Media, error) {
	return nil, nil
}

func (f *fakeClient) upload() (*client.Media, error) {
	f.uploadCalls++
	if f.uploadFn == nil {
		return &client.Media{Pk: 1, ID: "1_7", Code: "ABC", MediaType: client.MediaTypePhoto}, nil
	}
	return f.uploadFn()
}

func (f *fakeClient) UploadPhoto(context.Context, string, string) (*client.Media, error) {
	return f.upload()
}
func (f *fakeClient) UploadVideo(context.Context, string, string, string) (*client.Media, error) {
	return f.upload()
}
func (f *fakeClient) UploadClip(context.Context, client.ClipUpload) (*client.Media, error) {
	return f.upload()
}
func (f *fakeClient) UploadAlbum(context.Context, []string, string) (*client.Media, error) {
	return f.upload()
}

type testRig struct {
	bot     *Bot
	store   *storage.SessionStore
	journal *journal.Journal
	sleeps  []time.Duration
	built   int
}

func newRig(t *testing.T, username, password string, factory func() *fakeClient) *testRig {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Username = username
	cfg.Password = password
	cfg.SessionFile = filepath.Join(dir, "session.json")

	rig := &testRig{
		store:   storage.NewSessionStore(cfg.SessionFile),
		journal: journal.New(filepath.Join(dir, "posted_media.json")),
	}

	rig.bot = New(cfg, rig.store, rig.journal, logging.Nop(), func() MediaClient {
		rig.built++
		return factory()
	})
	rig.bot.sleep = func(d time.Duration) { rig.sleeps = append(rig.sleeps, d) }
	rig.bot.prompt = func(string) (string, error) {
		t.Fatal("unexpected interactive prompt")
		return "", nil
	}
	return rig
}

func tempMedia(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("media-bytes"), 0644))
	return path
}

func TestLoginWithoutCredentialsMakesNoRemoteCalls(t *testing.T) {
	fake := &fakeClient{}
	rig := newRig(t, "", "", func() *fakeClient { return fake })

	ok := rig.bot.Login("", "")

	assert.False(t, ok)
	assert.Zero(t, rig.built, "no client should be constructed")
	assert.Zero(t, fake.loginCalls)
}

func TestLoginSuccessPersistsSession(t *testing.T) {
	fake := &fakeClient{}
	rig := newRig(t, "alice", "secret", func() *fakeClient { return fake })

	ok := rig.bot.Login("", "")

	require.True(t, ok)
	assert.Equal(t, 1, fake.loginCalls)
	assert.True(t, rig.store.Exists(), "session file should exist after login")
	// One human-shaped pre-login pause, no backoff.
	assert.Len(t, rig.sleeps, 1)
}

func TestFreshInstanceReusesPersistedSession(t *testing.T) {
	rig := newRig(t, "alice", "secret", func() *fakeClient { return &fakeClient{} })
	require.True(t, rig.bot.Login("", ""))

	// Simulated process restart: new Bot, same stores.
	var second *fakeClient
	rig2 := &testRig{store: rig.store, journal: rig.journal}
	rig2.bot = New(rig.bot.cfg, rig.store, rig.journal, logging.Nop(), func() MediaClient {
		second = &fakeClient{}
		return second
	})
	rig2.bot.prompt = func(string) (string, error) {
		t.Fatal("restored session must not prompt")
		return "", nil
	}

	assert.True(t, rig2.bot.ensureLoggedIn())
	assert.Zero(t, second.loginCalls, "no credential submission expected")
}

func TestLoginTwoFactorResubmitsOnceWithCode(t *testing.T) {
	fake := &fakeClient{}
	fake.loginFn = func(username, password, code string) (*client.LoginResult, error) {
		if code == "" {
			return &client.LoginResult{TwoFactorRequired: true}, client.ErrTwoFactorRequired
		}
		assert.Equal(t, "123456", code)
		return &client.LoginResult{Success: true, UserID: 7}, nil
	}
	rig := newRig(t, "alice", "secret", func() *fakeClient { return fake })
	rig.bot.prompt = func(string) (string, error) { return "123456", nil }

	ok := rig.bot.Login("", "")

	require.True(t, ok)
	assert.Equal(t, 2, fake.loginCalls, "one submission plus one code resubmit")
	assert.True(t, rig.store.Exists())
	// Still inside the first attempt slot: one pre-login pause only.
	assert.Len(t, rig.sleeps, 1)
}

func TestLoginChallengeResolutionIsBestEffort(t *testing.T) {
	fake := &fakeClient{resolveErr: client.ErrChallengeRequired}
	fake.loginFn = func(string, string, string) (*client.LoginResult, error) {
		return &client.LoginResult{ChallengeRequired: true}, client.ErrChallengeRequired
	}
	rig := newRig(t, "alice", "secret", func() *fakeClient { return fake })
	rig.bot.cfg.MaxRetries = 2

	ok := rig.bot.Login("", "")

	assert.False(t, ok)
	assert.Equal(t, 2, fake.loginCalls, "resolution failure must not stop retries")
	assert.Equal(t, 2, fake.resolveCalls)
}

func TestLoginTransientFailureRebuildsClient(t *testing.T) {
	factory := func() *fakeClient {
		f := &fakeClient{}
		f.loginFn = func(string, string, string) (*client.LoginResult, error) {
			return nil, &client.APIError{StatusCode: 403, ErrorType: "login_required"}
		}
		return f
	}
	rig := newRig(t, "alice", "secret", factory)
	rig.bot.cfg.MaxRetries = 2

	ok := rig.bot.Login("", "")

	assert.False(t, ok)
	// Initial bootstrap plus one rebuild per poisoned attempt.
	assert.Equal(t, 3, rig.built)
}

func TestLoginBackoffBetweenAttempts(t *testing.T) {
	fake := &fakeClient{}
	fake.loginFn = func(string, string, string) (*client.LoginResult, error) {
		return nil, &client.APIError{Message: "boom"}
	}
	rig := newRig(t, "alice", "secret", func() *fakeClient { return fake })
	rig.bot.cfg.MaxRetries = 3

	ok := rig.bot.Login("", "")

	assert.False(t, ok)
	assert.Equal(t, 3, fake.loginCalls)
	// Three pre-login pauses interleaved with two backoffs.
	require.Len(t, rig.sleeps, 5)
	for i, d := range rig.sleeps {
		if i%2 == 1 {
			assert.GreaterOrEqual(t, d, 15*time.Second, "backoff %d too short", i)
			assert.LessOrEqual(t, d, 45*time.Second, "backoff %d too long", i)
		} else {
			assert.GreaterOrEqual(t, d, 2*time.Second)
			assert.LessOrEqual(t, d, 5*time.Second)
		}
	}
}

func TestLogoutTwiceIsIdempotent(t *testing.T) {
	fake := &fakeClient{}
	rig := newRig(t, "alice", "secret", func() *fakeClient { return fake })
	require.True(t, rig.bot.Login("", ""))

	rig.bot.Logout()
	assert.False(t, rig.store.Exists())

	rig.bot.Logout()
	assert.False(t, rig.store.Exists())
	assert.Equal(t, 2, fake.logoutCalls)
}

func TestPostPhotoMissingFileFailsLocally(t *testing.T) {
	fake := &fakeClient{loggedIn: true}
	rig := newRig(t, "alice", "secret", func() *fakeClient { return fake })

	media := rig.bot.PostPhoto(filepath.Join(t.TempDir(), "nope.jpg"), "hi")

	assert.Nil(t, media)
	assert.Zero(t, fake.uploadCalls)
	assert.Empty(t, rig.journal.Records())
}

func TestPostAlbumRequiresTwoItems(t *testing.T) {
	fake := &fakeClient{loggedIn: true}
	rig := newRig(t, "alice", "secret", func() *fakeClient { return fake })
	path := tempMedia(t, "one.jpg")

	media := rig.bot.PostAlbum([]string{path}, "hi")

	assert.Nil(t, media)
	assert.Zero(t, fake.uploadCalls)
	assert.Empty(t, rig.journal.Records())
}

func TestPostReelRetriesThenSucceeds(t *testing.T) {
	fake := &fakeClient{loggedIn: true}
	fake.uploadFn = func() (*client.Media, error) {
		if fake.uploadCalls < 3 {
			return nil, &client.APIError{ErrorType: "transcode_error", Message: "encoding failed"}
		}
		return &client.Media{Pk: 9, ID: "9_7", Code: "REEL1", MediaType: client.MediaTypeVideo}, nil
	}
	rig := newRig(t, "alice", "secret", func() *fakeClient { return fake })
	rig.bot.client = fake
	rig.bot.cfg.MaxRetries = 3
	path := tempMedia(t, "reel.mp4")

	media := rig.bot.PostReel(path, "caption", "", nil)

	require.NotNil(t, media)
	assert.Equal(t, 3, fake.uploadCalls)

	records := rig.journal.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "9_7", records[0].MediaID)
	assert.Equal(t, "video", records[0].MediaType)

	// Exactly two backoff sleeps, 10-30s each.
	require.Len(t, rig.sleeps, 2)
	for _, d := range rig.sleeps {
		assert.GreaterOrEqual(t, d, 10*time.Second)
		assert.LessOrEqual(t, d, 30*time.Second)
	}
}

func TestPostPhotoDoesNotRetry(t *testing.T) {
	fake := &fakeClient{loggedIn: true}
	fake.uploadFn = func() (*client.Media, error) {
		return nil, &client.APIError{Message: "boom"}
	}
	rig := newRig(t, "alice", "secret", func() *fakeClient { return fake })
	rig.bot.client = fake
	path := tempMedia(t, "pic.jpg")

	media := rig.bot.PostPhoto(path, "caption")

	assert.Nil(t, media)
	assert.Equal(t, 1, fake.uploadCalls)
	assert.Empty(t, rig.sleeps)
	assert.Empty(t, rig.journal.Records())
}

func TestPostEmptyResultIsFailure(t *testing.T) {
	fake := &fakeClient{loggedIn: true}
	fake.uploadFn = func() (*client.Media, error) { return nil, nil }
	rig := newRig(t, "alice", "secret", func() *fakeClient { return fake })
	rig.bot.client = fake
	path := tempMedia(t, "pic.jpg")

	media := rig.bot.PostPhoto(path, "caption")

	assert.Nil(t, media)
	assert.Empty(t, rig.journal.Records())
}

func TestPublishLogIsAppendOnlyAndOrdered(t *testing.T) {
	fake := &fakeClient{loggedIn: true}
	codes := []string{"A1", "B2", "C3"}
	fake.uploadFn = func() (*client.Media, error) {
		c := codes[fake.uploadCalls-1]
		return &client.Media{Pk: int64(fake.uploadCalls), ID: c, Code: c, MediaType: client.MediaTypePhoto}, nil
	}
	rig := newRig(t, "alice", "secret", func() *fakeClient { return fake })
	rig.bot.client = fake

	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	tick := 0
	rig.bot.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		require.NotNil(t, rig.bot.PostPhoto(tempMedia(t, name), ""))
	}

	records := rig.journal.Records()
	require.Len(t, records, 3)
	for i, rec := range records {
		assert.Equal(t, codes[i], rec.Code)
		if i > 0 {
			assert.True(t, records[i-1].Timestamp.Before(rec.Timestamp),
				"timestamps must be strictly increasing")
		}
	}
}
