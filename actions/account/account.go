package account

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/PiotrWarzachowski/go-instagram-bot/bot"
	"github.com/PiotrWarzachowski/go-instagram-bot/internal/config"
	"github.com/PiotrWarzachowski/go-instagram-bot/internal/logging"
)

// LoginCommand authenticates the account and persists the session.
var LoginCommand = &cli.Command{
	Name:  "login",
	Usage: "Login to your Instagram account",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "username",
			Aliases: []string{"u"},
			Usage:   "Instagram username",
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "Instagram password (not recommended, use the config file or the prompt)",
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "Enable debug output",
		},
	},
	Action: loginAction,
}

// LogoutCommand invalidates the session remotely and locally.
var LogoutCommand = &cli.Command{
	Name:   "logout",
	Usage:  "Logout from your Instagram account",
	Action: logoutAction,
}

// InfoCommand prints the logged-in account profile.
var InfoCommand = &cli.Command{
	Name:  "info",
	Usage: "Show account profile and counters",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "Enable debug output",
		},
	},
	Action: infoAction,
}

// ConfigCommand writes a template configuration file.
var ConfigCommand = &cli.Command{
	Name:   "config",
	Usage:  "Write a template configuration file and exit",
	Action: configAction,
}

func loginAction(ctx context.Context, cmd *cli.Command) error {
	b := bot.Open(logging.New(logging.DefaultFile), cmd.Bool("debug"))

	username := cmd.String("username")
	password := cmd.String("password")

	// A username given on the command line without a password gets an
	// interactive hidden prompt rather than a plaintext flag.
	if username != "" && password == "" {
		var err error
		password, err = promptPassword("Password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	fmt.Println("Logging in...")

	if !b.Login(username, password) {
		fmt.Println("❌ Login failed, see the log for details")
		return nil
	}

	fmt.Println("✓ Successfully logged in")
	if account := b.Info(); account != nil {
		fmt.Printf("  Username:  @%s\n", account.Username)
		fmt.Printf("  User ID:   %d\n", account.Pk)
		fmt.Printf("  Followers: %d\n", account.FollowerCount)
	}
	return nil
}

func logoutAction(ctx context.Context, cmd *cli.Command) error {
	b := bot.Open(logging.New(logging.DefaultFile), false)
	b.Logout()
	fmt.Println("✓ Logged out")
	return nil
}

func infoAction(ctx context.Context, cmd *cli.Command) error {
	b := bot.Open(logging.New(logging.DefaultFile), cmd.Bool("debug"))

	account := b.Info()
	if account == nil {
		fmt.Println("❌ Could not fetch account info")
		return nil
	}

	fmt.Printf("👤 @%s", account.Username)
	if account.IsVerified {
		fmt.Print(" ✓")
	}
	fmt.Println()
	if account.FullName != "" {
		fmt.Printf("   Name:      %s\n", account.FullName)
	}
	fmt.Printf("   Followers: %d\n", account.FollowerCount)
	fmt.Printf("   Following: %d\n", account.FollowingCount)
	fmt.Printf("   Posts:     %d\n", account.MediaCount)
	if account.Biography != "" {
		fmt.Printf("   Bio:       %s\n", account.Biography)
	}
	return nil
}

func configAction(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(config.DefaultFile); err == nil {
		fmt.Printf("Configuration file %s already exists, not overwriting\n", config.DefaultFile)
		return nil
	}

	if err := config.WriteTemplate(config.DefaultFile); err != nil {
		return fmt.Errorf("failed to write configuration template: %w", err)
	}
	fmt.Printf("✓ Template written to %s\n", config.DefaultFile)
	fmt.Println("  Edit it with your Instagram credentials before running other commands")
	return nil
}

// promptPassword reads a password without echoing when attached to a
// terminal.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)

	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(password), nil
	}

	// Not a terminal, read a plain line.
	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
