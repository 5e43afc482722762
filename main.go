package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/PiotrWarzachowski/go-instagram-bot/actions/account"
	"github.com/PiotrWarzachowski/go-instagram-bot/actions/post"
	"github.com/PiotrWarzachowski/go-instagram-bot/actions/social"
)

func main() {
	cmd := &cli.Command{
		Name:    "go-instagram-bot",
		Usage:   "Instagram account automation tool",
		Version: "0.1.0",
		Action: func(context.Context, *cli.Command) error {
			fmt.Println("Instagram bot - use 'go-instagram-bot help' for available commands")
			return nil
		},
		Commands: []*cli.Command{
			account.LoginCommand,
			account.LogoutCommand,
			account.InfoCommand,
			account.ConfigCommand,
			post.ReelCommand,
			post.PhotoCommand,
			post.VideoCommand,
			post.AlbumCommand,
			social.FollowCommand,
			social.UnfollowCommand,
			social.LikeCommand,
			social.CommentCommand,
			social.MediasCommand,
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
