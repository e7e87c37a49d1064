// Package main runs the interactive inventory dashboard client. It wires
// the identity provider, session store, auth gate, data client and views,
// then drives the shell loop.
package main

import (
	"bufio"
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/inventorypro/invctl/internal/config"
	"github.com/inventorypro/invctl/internal/identity/firebase"
	"github.com/inventorypro/invctl/internal/inventory"
	"github.com/inventorypro/invctl/internal/logger"
	"github.com/inventorypro/invctl/internal/models"
	"github.com/inventorypro/invctl/internal/session"
	"github.com/inventorypro/invctl/internal/view"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// errQuit signals that the user asked to leave the shell.
var errQuit = errors.New("quit")

func main() {
	var showVer bool
	flag.BoolVar(&showVer, "version", false, "show build version and date")

	// Parse command-line and environment configuration.
	options := config.Parse()

	if showVer {
		fmt.Printf("invctl\nVersion: %s\nBuild Date: %s\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		return
	}

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("warn"); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	// Browser sign-in is only offered when an OAuth client is configured.
	var oauth *firebase.GoogleOAuth
	if options.GoogleClientID != "" {
		oauth = firebase.NewGoogleOAuth(options.GoogleClientID, options.GoogleClientSecret)
	}
	provider := firebase.New(firebase.Config{
		APIKey:      options.FirebaseAPIKey,
		SessionFile: options.SessionFile,
		OAuth:       oauth,
		Logger:      zapLogger,
	})

	store := session.NewStore(provider, zapLogger)
	defer store.Close()

	apiClient := inventory.NewClient(options.APIBaseURL, store, zapLogger)
	dashboard := view.NewDashboard(apiClient, os.Stdout, zapLogger)

	// The gate owns navigation: its callbacks decide which view runs next.
	nav := make(chan session.GateState, 1)
	session.NewGate(store, zapLogger,
		func() { nav <- session.Unauthenticated },
		func() { nav <- session.Authenticated },
	)

	fmt.Println("Verifying session...")
	store.Initialize()

	ctx := context.Background()
	in := bufio.NewScanner(os.Stdin)
	login := view.NewLogin(store, in, os.Stdout)

	for state := range nav {
		switch state {
		case session.Unauthenticated:
			if err := login.Run(ctx); err != nil {
				return
			}
		case session.Authenticated:
			if err := runDashboard(ctx, in, dashboard, store); errors.Is(err, errQuit) {
				return
			}
		}
	}
}

// runDashboard mounts the inventory view and processes shell commands
// until the user logs out or exits.
func runDashboard(ctx context.Context, in *bufio.Scanner, d *view.Dashboard, store *session.Store) error {
	if err := d.Mount(ctx); err != nil {
		fmt.Println("Error loading inventory:", err)
	}
	d.Render()

	for {
		fmt.Print("invctl> ")
		if !in.Scan() {
			return errQuit
		}
		args := strings.Fields(strings.TrimSpace(in.Text()))
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Available commands: help, list, search <term>, add, edit <id>, delete <id>, import <file>, logout, exit")
		case "list":
			if err := d.SetSearchTerm(ctx, ""); err != nil {
				fmt.Println("Error loading inventory:", err)
			}
			d.Render()
		case "search":
			term := strings.Join(args[1:], " ")
			if err := d.SetSearchTerm(ctx, term); err != nil {
				fmt.Println("Search failed:", err)
			}
			d.Render()
		case "add":
			editDraft(ctx, in, d, models.Item{})
		case "edit":
			if len(args) < 2 {
				fmt.Println("Usage: edit <id>")
				continue
			}
			existing, ok := findItem(d.Items(), args[1])
			if !ok {
				fmt.Println("Item not found")
				continue
			}
			editDraft(ctx, in, d, existing)
		case "delete":
			if len(args) < 2 {
				fmt.Println("Usage: delete <id>")
				continue
			}
			if err := d.DeleteItem(ctx, args[1]); err != nil {
				fmt.Println("Failed to delete item:", err)
			} else {
				d.Render()
			}
		case "import":
			if len(args) < 2 {
				fmt.Println("Usage: import <file>")
				continue
			}
			if err := d.Import(ctx, args[1]); err != nil {
				fmt.Println("Failed to import file:", err)
			} else {
				d.Render()
			}
		case "logout":
			if err := store.Logout(ctx); err != nil {
				fmt.Println("Logout failed:", err)
			}
			return nil
		case "exit":
			fmt.Println("Bye")
			return errQuit
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

// editDraft runs the create/edit form. On a failed submit the form stays
// open with the entered values and an inline error; cancelling discards
// the draft.
func editDraft(ctx context.Context, in *bufio.Scanner, d *view.Dashboard, draft models.Item) {
	for {
		updated, err := view.PromptDraft(in, os.Stdout, draft)
		if err != nil {
			fmt.Println("Draft discarded:", err)
			return
		}
		draft = updated

		if err := d.SubmitDraft(ctx, draft); err != nil {
			fmt.Println("Failed to save item:", err)
			fmt.Print("Press enter to edit again, or type 'cancel' to discard: ")
			if !in.Scan() || strings.TrimSpace(in.Text()) == "cancel" {
				return
			}
			continue
		}
		d.Render()
		return
	}
}

func findItem(items []models.Item, id string) (models.Item, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return models.Item{}, false
}
