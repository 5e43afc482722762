package bot

import (
	"bufio"
	"context"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/PiotrWarzachowski/go-instagram-bot/client"
	"github.com/PiotrWarzachowski/go-instagram-bot/internal/config"
	"github.com/PiotrWarzachowski/go-instagram-bot/internal/journal"
	"github.com/PiotrWarzachowski/go-instagram-bot/internal/storage"
)

// MediaClient is the remote platform capability the workflows drive. A
// client carries one device/session identity for its whole life; recovery
// from poisoned state means replacing the client, not resetting it.
type MediaClient interface {
	SetUserAgent(ua string)
	SetDelayRange(lo, hi float64)
	SetProxy(proxyURL string) error
	SetProgressReporter(r client.ProgressReporter)

	ExportSettings() ([]byte, error)
	ImportSettings(data []byte) error
	IsLoggedIn() bool

	Login(username, password, verificationCode string) (*client.LoginResult, error)
	ResolveChallenge(info map[string]any) error
	Logout() error

	CurrentUser() (*client.Account, error)
	UserIDFromUsername(username string) (int64, error)
	Follow(userID int64) (*client.FriendshipStatus, error)
	Unfollow(userID int64) (*client.FriendshipStatus, error)
	Like(mediaID string) error
	Comment(mediaID, text string) (string, error)
	UserMedias(userID int64, amount int) ([]*client.Media, error)

	UploadPhoto(ctx context.Context, path, caption string) (*client.Media, error)
	UploadVideo(ctx context.Context, path, caption, thumbnail string) (*client.Media, error)
	UploadClip(ctx context.Context, up client.ClipUpload) (*client.Media, error)
	UploadAlbum(ctx context.Context, paths []string, caption string) (*client.Media, error)
}

// ClientFactory returns a fresh MediaClient with a brand-new identity.
type ClientFactory func() MediaClient

// userAgent is the fixed app identification applied to every fresh client.
const userAgent = "Instagram 269.0.0.18.75 Android (26/8.0.0; 480dpi; 1080x1920; OnePlus; 6T Dev; devitron; qcom; en_US; 314665256)"

// Bot owns one MediaClient at a time and runs the account workflows over it.
// Single-operator model: one command per process, no internal locking; two
// processes sharing a working directory can race on the session file and the
// publish log.
type Bot struct {
	cfg     *config.Config
	store   *storage.SessionStore
	journal *journal.Journal
	log     zerolog.Logger

	newClient ClientFactory
	client    MediaClient
	reporter  client.ProgressReporter

	sleep  func(time.Duration)
	rng    *rand.Rand
	prompt func(label string) (string, error)
	now    func() time.Time
}

// New wires a Bot from explicit collaborators.
func New(cfg *config.Config, store *storage.SessionStore, jrnl *journal.Journal, log zerolog.Logger, factory ClientFactory) *Bot {
	return &Bot{
		cfg:       cfg,
		store:     store,
		journal:   jrnl,
		log:       log,
		newClient: factory,
		sleep:     time.Sleep,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		prompt:    stdinPrompt,
		now:       time.Now,
	}
}

// Open builds a Bot from the well-known files in the working directory.
func Open(log zerolog.Logger, debug bool) *Bot {
	cfg := config.Load(config.DefaultFile, log)
	return New(
		cfg,
		storage.NewSessionStore(cfg.SessionFile),
		journal.New(journal.DefaultFile),
		log,
		func() MediaClient {
			c := client.NewClient()
			c.Debug = debug
			return c
		},
	)
}

// SetProgressReporter attaches an upload progress observer to the current
// and all future clients.
func (b *Bot) SetProgressReporter(r client.ProgressReporter) {
	b.reporter = r
	if b.client != nil {
		b.client.SetProgressReporter(r)
	}
}

// setupClient replaces the owned client with a freshly built one and applies
// the configured identity, delays and proxy. With loadSession set it also
// opportunistically restores the persisted session blob; a corrupt blob is
// deleted and ignored rather than surfaced.
func (b *Bot) setupClient(loadSession bool) {
	c := b.newClient()
	c.SetUserAgent(userAgent)

	if len(b.cfg.DelayRange) == 2 {
		c.SetDelayRange(b.cfg.DelayRange[0], b.cfg.DelayRange[1])
	}
	if b.cfg.Proxy != "" {
		if err := c.SetProxy(b.cfg.Proxy); err != nil {
			b.log.Warn().Err(err).Str("proxy", b.cfg.Proxy).Msg("ignoring unusable proxy")
		}
	}
	if b.reporter != nil {
		c.SetProgressReporter(b.reporter)
	}

	if loadSession {
		blob, err := b.store.Load()
		switch {
		case err == nil:
			if err := c.ImportSettings(blob); err != nil {
				b.log.Warn().Err(err).Msg("discarding unreadable session file")
				b.deleteSession()
			}
		case err == storage.ErrNoSession:
			// Fresh start.
		default:
			b.log.Warn().Err(err).Msg("discarding unreadable session file")
			b.deleteSession()
		}
	}

	b.client = c
}

// deleteSession removes the session file; cleanup is best-effort.
func (b *Bot) deleteSession() {
	if err := b.store.Delete(); err != nil {
		b.log.Warn().Err(err).Str("file", b.store.Path()).Msg("could not delete session file")
	}
}

// pause sleeps a random interval between lo and hi seconds.
func (b *Bot) pause(lo, hi float64) {
	if hi <= lo {
		b.sleep(time.Duration(lo * float64(time.Second)))
		return
	}
	d := lo + b.rng.Float64()*(hi-lo)
	b.sleep(time.Duration(d * float64(time.Second)))
}

// stdinPrompt reads one line from the terminal.
func stdinPrompt(label string) (string, error) {
	os.Stderr.WriteString(label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
