package social

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/PiotrWarzachowski/go-instagram-bot/bot"
	"github.com/PiotrWarzachowski/go-instagram-bot/internal/logging"
)

var usernameFlag = &cli.StringFlag{
	Name:     "username",
	Aliases:  []string{"u"},
	Usage:    "Target username",
	Required: true,
}

var mediaIDFlag = &cli.StringFlag{
	Name:     "media-id",
	Aliases:  []string{"m"},
	Usage:    "Target media ID",
	Required: true,
}

var debugFlag = &cli.BoolFlag{
	Name:    "debug",
	Aliases: []string{"d"},
	Usage:   "Enable debug output",
}

// FollowCommand follows a user.
var FollowCommand = &cli.Command{
	Name:  "follow",
	Usage: "Follow a user",
	Flags: []cli.Flag{usernameFlag, debugFlag},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		b := open(cmd)
		username := cmd.String("username")
		if !b.Follow(username) {
			fmt.Printf("❌ Could not follow @%s\n", username)
			return nil
		}
		fmt.Printf("✓ Following @%s\n", username)
		return nil
	},
}

// UnfollowCommand unfollows a user.
var UnfollowCommand = &cli.Command{
	Name:  "unfollow",
	Usage: "Unfollow a user",
	Flags: []cli.Flag{usernameFlag, debugFlag},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		b := open(cmd)
		username := cmd.String("username")
		if !b.Unfollow(username) {
			fmt.Printf("❌ Could not unfollow @%s\n", username)
			return nil
		}
		fmt.Printf("✓ Unfollowed @%s\n", username)
		return nil
	},
}

// LikeCommand likes a media.
var LikeCommand = &cli.Command{
	Name:  "like",
	Usage: "Like a media by ID",
	Flags: []cli.Flag{mediaIDFlag, debugFlag},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		b := open(cmd)
		mediaID := cmd.String("media-id")
		if !b.Like(mediaID) {
			fmt.Printf("❌ Could not like %s\n", mediaID)
			return nil
		}
		fmt.Printf("✓ Liked %s\n", mediaID)
		return nil
	},
}

// CommentCommand comments on a media.
var CommentCommand = &cli.Command{
	Name:  "comment",
	Usage: "Comment on a media by ID",
	Flags: []cli.Flag{
		mediaIDFlag,
		&cli.StringFlag{
			Name:     "text",
			Aliases:  []string{"t"},
			Usage:    "Comment text",
			Required: true,
		},
		debugFlag,
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		b := open(cmd)
		mediaID := cmd.String("media-id")
		if !b.Comment(mediaID, cmd.String("text")) {
			fmt.Printf("❌ Could not comment on %s\n", mediaID)
			return nil
		}
		fmt.Printf("✓ Commented on %s\n", mediaID)
		return nil
	},
}

// MediasCommand lists a user's recent posts.
var MediasCommand = &cli.Command{
	Name:  "medias",
	Usage: "List a user's recent posts",
	Flags: []cli.Flag{
		usernameFlag,
		&cli.IntFlag{
			Name:    "amount",
			Aliases: []string{"n"},
			Usage:   "Number of posts to fetch",
			Value:   12,
		},
		debugFlag,
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		b := open(cmd)
		username := cmd.String("username")

		medias := b.Medias(username, cmd.Int("amount"))
		if medias == nil {
			fmt.Printf("❌ Could not fetch posts of @%s\n", username)
			return nil
		}
		if len(medias) == 0 {
			fmt.Printf("📭 @%s has no posts\n", username)
			return nil
		}

		fmt.Printf("📸 Recent posts of @%s:\n", username)
		for i, m := range medias {
			fmt.Printf("  %2d. [%s] %s  ❤ %d  💬 %d\n",
				i+1, m.TypeTag(), m.Permalink(), m.LikeCount, m.CommentCount)
		}
		return nil
	},
}

func open(cmd *cli.Command) *bot.Bot {
	return bot.Open(logging.New(logging.DefaultFile), cmd.Bool("debug"))
}
