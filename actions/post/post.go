package post

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/PiotrWarzachowski/go-instagram-bot/bot"
	"github.com/PiotrWarzachowski/go-instagram-bot/client"
	"github.com/PiotrWarzachowski/go-instagram-bot/internal/logging"
)

var captionFlag = &cli.StringFlag{
	Name:    "caption",
	Aliases: []string{"c"},
	Usage:   "Caption text",
}

var thumbnailFlag = &cli.StringFlag{
	Name:    "thumbnail",
	Aliases: []string{"t"},
	Usage:   "Cover image path (a frame is extracted when omitted)",
}

var debugFlag = &cli.BoolFlag{
	Name:    "debug",
	Aliases: []string{"d"},
	Usage:   "Enable debug output",
}

// ReelCommand publishes a reel with retries.
var ReelCommand = &cli.Command{
	Name:  "post-reel",
	Usage: "Publish a video as a reel",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "video",
			Aliases:  []string{"v"},
			Usage:    "Video file path",
			Required: true,
		},
		captionFlag,
		thumbnailFlag,
		debugFlag,
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		return runPublish(cmd, func(b *bot.Bot) *client.Media {
			return b.PostReel(cmd.String("video"), cmd.String("caption"), cmd.String("thumbnail"), nil)
		})
	},
}

// PhotoCommand publishes a single photo.
var PhotoCommand = &cli.Command{
	Name:  "post-photo",
	Usage: "Publish a photo to the feed",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "photo",
			Aliases:  []string{"p"},
			Usage:    "Image file path",
			Required: true,
		},
		captionFlag,
		debugFlag,
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		return runPublish(cmd, func(b *bot.Bot) *client.Media {
			return b.PostPhoto(cmd.String("photo"), cmd.String("caption"))
		})
	},
}

// VideoCommand publishes a single feed video.
var VideoCommand = &cli.Command{
	Name:  "post-video",
	Usage: "Publish a video to the feed",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "video",
			Aliases:  []string{"v"},
			Usage:    "Video file path",
			Required: true,
		},
		captionFlag,
		thumbnailFlag,
		debugFlag,
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		return runPublish(cmd, func(b *bot.Bot) *client.Media {
			return b.PostVideo(cmd.String("video"), cmd.String("caption"), cmd.String("thumbnail"))
		})
	},
}

// AlbumCommand publishes several files as one post.
var AlbumCommand = &cli.Command{
	Name:  "post-album",
	Usage: "Publish two or more photos/videos as one post",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:     "media",
			Aliases:  []string{"m"},
			Usage:    "Media file path (repeat for each item)",
			Required: true,
		},
		captionFlag,
		debugFlag,
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		return runPublish(cmd, func(b *bot.Bot) *client.Media {
			return b.PostAlbum(cmd.StringSlice("media"), cmd.String("caption"))
		})
	},
}

// runPublish wires the progress bar around one publish call and prints the
// outcome.
func runPublish(cmd *cli.Command, publish func(b *bot.Bot) *client.Media) error {
	b := bot.Open(logging.New(logging.DefaultFile), cmd.Bool("debug"))

	reporter := NewCLIReporter()
	b.SetProgressReporter(reporter)

	media := publish(b)
	reporter.Wait()

	if media == nil {
		fmt.Println("\n❌ Publish failed, see the log for details")
		return nil
	}

	fmt.Printf("\n✅ Published %s\n", media.TypeTag())
	fmt.Printf("   Link: %s\n", media.Permalink())
	return nil
}
