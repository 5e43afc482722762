package bot

import (
	"github.com/PiotrWarzachowski/go-instagram-bot/client"
)

// Thin dispatcher calls. Each is a single remote call on top of an ensured
// session, no retry loop.

// Info returns the logged-in account's profile, or nil on failure.
func (b *Bot) Info() *client.Account {
	if !b.ensureLoggedIn() {
		return nil
	}

	account, err := b.client.CurrentUser()
	if err != nil {
		b.log.Error().Err(err).Msg("could not fetch account info")
		return nil
	}
	return account
}

// Follow follows the given username.
func (b *Bot) Follow(username string) bool {
	return b.friendship("follow", username, b.clientFollow)
}

// Unfollow unfollows the given username.
func (b *Bot) Unfollow(username string) bool {
	return b.friendship("unfollow", username, b.clientUnfollow)
}

func (b *Bot) clientFollow(userID int64) (*client.FriendshipStatus, error) {
	return b.client.Follow(userID)
}

func (b *Bot) clientUnfollow(userID int64) (*client.FriendshipStatus, error) {
	return b.client.Unfollow(userID)
}

func (b *Bot) friendship(action, username string, call func(int64) (*client.FriendshipStatus, error)) bool {
	if !b.ensureLoggedIn() {
		return false
	}

	userID, err := b.client.UserIDFromUsername(username)
	if err != nil {
		b.log.Error().Err(err).Str("username", username).Msg("could not resolve user")
		return false
	}

	status, err := call(userID)
	if err != nil {
		b.log.Error().Err(err).Str("action", action).Str("username", username).Msg("friendship call failed")
		return false
	}

	b.log.Info().
		Str("action", action).
		Str("username", username).
		Bool("following", status.Following).
		Bool("requested", status.OutgoingRequest).
		Msg("friendship updated")
	return true
}

// Like likes a media by ID.
func (b *Bot) Like(mediaID string) bool {
	if !b.ensureLoggedIn() {
		return false
	}
	if err := b.client.Like(mediaID); err != nil {
		b.log.Error().Err(err).Str("media_id", mediaID).Msg("like failed")
		return false
	}
	b.log.Info().Str("media_id", mediaID).Msg("liked")
	return true
}

// Comment posts a comment on a media by ID.
func (b *Bot) Comment(mediaID, text string) bool {
	if !b.ensureLoggedIn() {
		return false
	}
	commentID, err := b.client.Comment(mediaID, text)
	if err != nil {
		b.log.Error().Err(err).Str("media_id", mediaID).Msg("comment failed")
		return false
	}
	b.log.Info().Str("media_id", mediaID).Str("comment_id", commentID).Msg("commented")
	return true
}

// Medias returns up to amount recent medias of a user, or nil on failure.
func (b *Bot) Medias(username string, amount int) []*client.Media {
	if !b.ensureLoggedIn() {
		return nil
	}

	userID, err := b.client.UserIDFromUsername(username)
	if err != nil {
		b.log.Error().Err(err).Str("username", username).Msg("could not resolve user")
		return nil
	}

	medias, err := b.client.UserMedias(userID, amount)
	if err != nil {
		b.log.Error().Err(err).Str("username", username).Msg("could not fetch user medias")
		return nil
	}
	return medias
}
