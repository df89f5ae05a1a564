package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/CrowderSoup/lists-app/gate"
	"github.com/CrowderSoup/lists-app/items"
	"github.com/CrowderSoup/lists-app/remote"
	"github.com/CrowderSoup/lists-app/session"
	"github.com/CrowderSoup/lists-app/tui"
)

const (
	defaultServer       = "http://localhost:3001"
	defaultGoalsSecret  = "5202"
	defaultWishesSecret = "2025"
	commandTimeout      = 15 * time.Second
)

type App struct {
	Server   string
	Email    string
	Password string
	Secret   string
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "lists",
		Short:        "Shared goals, wishes, todos and shopping lists",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  lists

  # Scriptable commands
  lists ls shopping
  lists add todo "Call the plumber" --priority 5
  lists add wish "Bike" --name Anna
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), app)
		},
	}

	cmd.PersistentFlags().StringVar(&app.Server, "server", envOr("LISTS_SERVER", defaultServer), "server base URL (env LISTS_SERVER)")
	cmd.PersistentFlags().StringVar(&app.Email, "email", os.Getenv("LISTS_EMAIL"), "account email (env LISTS_EMAIL)")
	cmd.PersistentFlags().StringVar(&app.Password, "password", os.Getenv("LISTS_PASSWORD"), "account password (env LISTS_PASSWORD)")

	cmd.AddCommand(newLsCmd(app))
	cmd.AddCommand(newAddCmd(app))
	return cmd
}

func newGate() *gate.Gate {
	return gate.New(map[gate.Section]string{
		gate.SectionGoals:  envOr("LISTS_GOALS_SECRET", defaultGoalsSecret),
		gate.SectionWishes: envOr("LISTS_WISHES_SECRET", defaultWishesSecret),
	})
}

// client bundles everything that talks to the server for one invocation
type client struct {
	identity *remote.HTTPIdentity
	store    *remote.Store
	session  *session.Session
}

func (a *App) connect() *client {
	c := remote.NewClient(strings.TrimRight(a.Server, "/"))
	identity := remote.NewHTTPIdentity(c)
	store := remote.NewStore(remote.NewHTTPBackend(c))
	return &client{
		identity: identity,
		store:    store,
		session:  session.New(store, identity, session.WithGate(newGate())),
	}
}

func runTUI(ctx context.Context, app *App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := app.connect()
	done := make(chan error, 1)
	go func() { done <- c.session.Run(ctx) }()

	err := tui.Run(ctx, c.session)
	cancel()
	<-done
	return err
}

func parseKind(s string) (items.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "goal", "goals":
		return items.KindGoal, nil
	case "wish", "wishes":
		return items.KindWish, nil
	case "todo", "todos":
		return items.KindTodo, nil
	case "shopping", "shop":
		return items.KindShopping, nil
	}
	return "", fmt.Errorf("unknown list %q (want goals, wishes, todos or shopping)", s)
}

func (a *App) requireCredentials() error {
	if a.Email == "" || a.Password == "" {
		return fmt.Errorf("--email and --password (or LISTS_EMAIL and LISTS_PASSWORD) are required")
	}
	return nil
}
