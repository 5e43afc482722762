package bot

import (
	"context"
	"os"
	"path/filepath"

	"github.com/PiotrWarzachowski/go-instagram-bot/client"
	"github.com/PiotrWarzachowski/go-instagram-bot/internal/journal"
)

// RetryPolicy bounds the upload attempts for one publish kind.
type RetryPolicy struct {
	Attempts   int
	BackoffMin float64 // seconds
	BackoffMax float64
}

// Only the reel path retries. The remote reel-encoding pipeline is the least
// reliable call in the API surface; photos, plain videos and albums fail so
// rarely that a retry only multiplies the damage when the input itself is
// bad. The asymmetry is deliberate and kept configurable per kind.
func (b *Bot) reelPolicy() RetryPolicy {
	return RetryPolicy{Attempts: b.cfg.MaxRetries, BackoffMin: 10, BackoffMax: 30}
}

func singleAttempt() RetryPolicy {
	return RetryPolicy{Attempts: 1}
}

// PostPhoto publishes a single photo. Returns the published media, or nil on
// failure.
func (b *Bot) PostPhoto(path, caption string) *client.Media {
	paths, ok := b.resolveMedia("photo", []string{path}, 1)
	if !ok {
		return nil
	}
	return b.publish("photo", singleAttempt(), func(ctx context.Context) (*client.Media, error) {
		return b.client.UploadPhoto(ctx, paths[0], caption)
	})
}

// PostVideo publishes a single feed video.
func (b *Bot) PostVideo(path, caption, thumbnail string) *client.Media {
	paths, ok := b.resolveMedia("video", []string{path}, 1)
	if !ok {
		return nil
	}
	if thumbnail != "" {
		resolved, tok := b.resolveMedia("video thumbnail", []string{thumbnail}, 1)
		if !tok {
			return nil
		}
		thumbnail = resolved[0]
	}
	return b.publish("video", singleAttempt(), func(ctx context.Context) (*client.Media, error) {
		return b.client.UploadVideo(ctx, paths[0], caption, thumbnail)
	})
}

// PostReel publishes a reel, retrying transient upload failures. extra is
// merged verbatim into the remote publish request.
func (b *Bot) PostReel(path, caption, thumbnail string, extra map[string]any) *client.Media {
	paths, ok := b.resolveMedia("reel", []string{path}, 1)
	if !ok {
		return nil
	}
	if thumbnail != "" {
		resolved, tok := b.resolveMedia("reel thumbnail", []string{thumbnail}, 1)
		if !tok {
			return nil
		}
		thumbnail = resolved[0]
	}
	return b.publish("reel", b.reelPolicy(), func(ctx context.Context) (*client.Media, error) {
		return b.client.UploadClip(ctx, client.ClipUpload{
			Path:      paths[0],
			Caption:   caption,
			Thumbnail: thumbnail,
			Extra:     extra,
		})
	})
}

// PostAlbum publishes two or more files as one post.
func (b *Bot) PostAlbum(paths []string, caption string) *client.Media {
	resolved, ok := b.resolveMedia("album", paths, 2)
	if !ok {
		return nil
	}
	return b.publish("album", singleAttempt(), func(ctx context.Context) (*client.Media, error) {
		return b.client.UploadAlbum(ctx, resolved, caption)
	})
}

// resolveMedia checks preconditions shared by all publish kinds: every file
// must exist and the item count must meet the minimum. Paths come back
// absolute. Violations fail with no remote call.
func (b *Bot) resolveMedia(kind string, paths []string, minItems int) ([]string, bool) {
	if len(paths) < minItems {
		b.log.Error().Str("kind", kind).Int("got", len(paths)).Int("need", minItems).Msg("not enough media files")
		return nil, false
	}

	resolved := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			b.log.Error().Err(err).Str("kind", kind).Str("path", p).Msg("cannot resolve media path")
			return nil, false
		}
		if _, err := os.Stat(abs); err != nil {
			b.log.Error().Str("kind", kind).Str("path", abs).Msg("media file does not exist")
			return nil, false
		}
		resolved = append(resolved, abs)
	}
	return resolved, true
}

// publish drives the bounded-retry upload loop and records success.
func (b *Bot) publish(kind string, policy RetryPolicy, upload func(ctx context.Context) (*client.Media, error)) *client.Media {
	if !b.ensureLoggedIn() {
		return nil
	}

	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		b.log.Info().Str("kind", kind).Int("attempt", attempt).Int("max", policy.Attempts).Msg("uploading")

		media, err := upload(context.Background())
		if err == nil && media != nil {
			b.recordPublish(media)
			b.log.Info().Str("kind", kind).Str("permalink", media.Permalink()).Msg("published")
			return media
		}
		if err == nil {
			// A non-erroring call with no media is still a failure.
			err = client.ErrMediaUnsupported
		}

		// Classification is for log granularity only; every class is
		// handled the same way here.
		b.log.Error().
			Err(err).
			Str("kind", kind).
			Str("class", client.Classify(err).String()).
			Int("attempt", attempt).
			Msg("upload attempt failed")

		if attempt < policy.Attempts {
			b.pause(policy.BackoffMin, policy.BackoffMax)
		}
	}

	b.log.Error().Str("kind", kind).Int("attempts", policy.Attempts).Msg("publish failed")
	return nil
}

// recordPublish appends the publish record; log failures never undo a
// successful publish.
func (b *Bot) recordPublish(m *client.Media) {
	rec := journal.Record{
		MediaID:   m.ID,
		Code:      m.Code,
		MediaType: m.TypeTag(),
		Timestamp: b.now().UTC(),
		Permalink: m.Permalink(),
	}
	if err := b.journal.Append(rec); err != nil {
		b.log.Warn().Err(err).Msg("could not record publish")
	}
}
