package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CrowderSoup/lists-app/items"
	"github.com/CrowderSoup/lists-app/remote"
	"github.com/CrowderSoup/lists-app/render"
	"github.com/CrowderSoup/lists-app/session"
)

// start signs in, unlocks the list if it is gated and runs the session
// until ctx ends
func (a *App) start(ctx context.Context, kind items.Kind) (*client, remote.Identity, error) {
	if err := a.requireCredentials(); err != nil {
		return nil, remote.Identity{}, err
	}

	c := a.connect()
	go c.session.Run(ctx)

	if section := session.SectionFor(kind); !c.session.Unlock(section, a.Secret) {
		return nil, remote.Identity{}, fmt.Errorf("the %s list is locked: pass its secret with --secret", section)
	}

	id, err := c.session.Login(ctx, a.Email, a.Password)
	if err != nil {
		return nil, remote.Identity{}, err
	}
	return c, id, nil
}

func waitView(ctx context.Context, s *session.Session, ok func(session.View) bool) (session.View, error) {
	for {
		select {
		case v := <-s.Views():
			var serr *remote.SubscriptionError
			if errors.As(v.Err, &serr) {
				return v, v.Err
			}
			if ok(v) {
				return v, nil
			}
		case <-ctx.Done():
			return session.View{}, fmt.Errorf("waiting for the server: %w", ctx.Err())
		}
	}
}

func newLsCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "ls <list>",
		Short: "Print a list in display order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			c, id, err := app.start(ctx, kind)
			if err != nil {
				return err
			}
			if all {
				c.session.Dispatch(session.ChangeFilter{Kind: kind, OpenOnly: false})
			}

			v, err := waitView(ctx, c.session, func(v session.View) bool {
				return v.UID == id.UID && v.Loaded && (!all || !v.Filters[kind].OpenOnly)
			})
			if err != nil {
				return err
			}
			return writeList(cmd.OutOrStdout(), v, kind)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include done items in lists that hide them by default")
	cmd.Flags().StringVar(&app.Secret, "secret", "", "secret for the goals or wishes list")
	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	var draft items.Draft

	cmd := &cobra.Command{
		Use:   "add <list> <text...>",
		Short: "Add an item to a list",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			draft.Kind = kind
			draft.Text = strings.Join(args[1:], " ")

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			c, id, err := app.start(ctx, kind)
			if err != nil {
				return err
			}

			it, err := items.NewItem(id.UID, draft)
			if err != nil {
				return err
			}
			res := <-c.store.Create(ctx, it)
			if res.Err != nil {
				return res.Err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s\n", res.ID, kind)
			return nil
		},
	}

	cmd.Flags().IntVar(&draft.Priority, "priority", 0, "todo priority 1-5 or shopping urgency 1-3")
	cmd.Flags().StringVar(&draft.Category, "category", "", "goal category")
	cmd.Flags().StringVar(&draft.RequesterName, "name", "", "who made the wish")
	cmd.Flags().StringVar(&app.Secret, "secret", "", "secret for the goals or wishes list")
	return cmd
}

func writeRow(w io.Writer, r render.Row) {
	box := "[ ]"
	if r.Done {
		box = "[x]"
	}
	line := box + " " + r.Text
	if r.Badge != "" {
		line += " (" + r.Badge + ")"
	}
	if r.Created != "" {
		line += "  " + r.Created
	}
	fmt.Fprintln(w, line)
}

func writeList(w io.Writer, v session.View, kind items.Kind) error {
	if kind == items.KindGoal {
		for _, sec := range v.Goals {
			if len(sec.Rows) == 0 {
				continue
			}
			fmt.Fprintf(w, "%s:\n", sec.Category)
			for _, r := range sec.Rows {
				io.WriteString(w, "  ")
				writeRow(w, r)
			}
		}
		return nil
	}
	for _, r := range v.Rows(kind) {
		writeRow(w, r)
	}
	return nil
}
