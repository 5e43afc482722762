package bot

import (
	"github.com/PiotrWarzachowski/go-instagram-bot/client"
)

// Login authenticates the account and persists the session blob for reuse.
// Empty arguments fall back to the configured credentials; when both end up
// empty it fails without touching the network. Returns whether a session was
// established.
func (b *Bot) Login(username, password string) bool {
	if username == "" {
		username = b.cfg.Username
	}
	if password == "" {
		password = b.cfg.Password
	}
	if username == "" || password == "" {
		b.log.Error().Msg("no credentials: pass --username/--password or set them in the configuration file")
		return false
	}

	// A stale session is never repaired in place. Drop it and bootstrap a
	// fresh client before the first attempt.
	b.deleteSession()
	b.setupClient(false)

	for attempt := 1; attempt <= b.cfg.MaxRetries; attempt++ {
		b.log.Info().Int("attempt", attempt).Int("max", b.cfg.MaxRetries).Str("username", username).Msg("logging in")

		// Short human-shaped pause before submitting credentials.
		b.pause(2, 5)

		result, err := b.client.Login(username, password, "")
		if err == nil && result != nil && result.Success {
			b.persistSession()
			b.log.Info().Int64("user_id", result.UserID).Msg("login successful")
			return true
		}

		switch client.Classify(err) {
		case client.ClassTwoFactor:
			if b.twoFactorLogin(username, password) {
				return true
			}

		case client.ClassChallenge:
			// Resolution failures are swallowed on purpose: the next
			// attempt retries naturally instead of escalating to an
			// interactive prompt.
			var info map[string]any
			if result != nil {
				info = result.ChallengeInfo
			}
			if rerr := b.client.ResolveChallenge(info); rerr != nil {
				b.log.Warn().Err(rerr).Msg("automated challenge resolution failed")
			} else {
				b.log.Info().Msg("challenge resolved, retrying")
			}

		case client.ClassBadCredentials:
			b.log.Error().Err(err).Msg("login rejected: bad credentials")

		case client.ClassTransient:
			// Poisoned session/anti-forgery state. Discard the client and
			// start the next attempt from a clean identity.
			b.log.Warn().Err(err).Msg("transient login failure, rebuilding client")
			b.setupClient(false)

		default:
			b.log.Error().Err(err).Msg("login attempt failed")
		}

		if attempt < b.cfg.MaxRetries {
			// A failed credential submission draws more attention than an
			// unauthenticated probe, hence the long backoff.
			b.pause(15, 45)
		}
	}

	b.log.Error().Int("attempts", b.cfg.MaxRetries).Msg("login failed, attempts exhausted")
	return false
}

// twoFactorLogin prompts for a one-time code and resubmits once inside the
// current attempt slot. A wrong or unreadable code falls through to the
// generic retry handling.
func (b *Bot) twoFactorLogin(username, password string) bool {
	code, err := b.prompt("Enter the two-factor verification code: ")
	if err != nil || code == "" {
		b.log.Warn().Err(err).Msg("no verification code entered")
		return false
	}

	result, err := b.client.Login(username, password, code)
	if err == nil && result != nil && result.Success {
		b.persistSession()
		b.log.Info().Int64("user_id", result.UserID).Msg("two-factor login successful")
		return true
	}

	b.log.Warn().Err(err).Msg("two-factor verification failed")
	return false
}

// persistSession writes the client's session blob to disk. Failures here are
// logged only; an unpersisted session still works for the rest of the run.
func (b *Bot) persistSession() {
	blob, err := b.client.ExportSettings()
	if err != nil {
		b.log.Warn().Err(err).Msg("could not serialize session")
		return
	}
	if err := b.store.Save(blob); err != nil {
		b.log.Warn().Err(err).Str("file", b.store.Path()).Msg("could not persist session")
		return
	}
	b.log.Info().Str("file", b.store.Path()).Msg("session saved")
}

// Logout invalidates the remote session and removes the local session file.
// Both halves are best-effort; calling Logout with no session present is a
// no-op.
func (b *Bot) Logout() {
	if b.client == nil {
		b.setupClient(true)
	}

	if err := b.client.Logout(); err != nil {
		b.log.Warn().Err(err).Msg("remote logout failed")
	}
	b.deleteSession()
	b.log.Info().Msg("logged out")
}

// ensureLoggedIn restores the persisted session or, failing that, runs a
// full login with the configured credentials.
func (b *Bot) ensureLoggedIn() bool {
	if b.client == nil {
		b.setupClient(true)
	}
	if b.client.IsLoggedIn() {
		return true
	}
	return b.Login("", "")
}
