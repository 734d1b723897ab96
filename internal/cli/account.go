package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/blackbox/internal/domain"
)

// UserView is the account summary printed by login and whoami.
type UserView struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	Profiles          int    `json:"profiles"`
	ActiveProfile     string `json:"activeProfile,omitempty"`
	TutorialCompleted bool   `json:"tutorialCompleted"`
}

func userView(u *domain.User) UserView {
	v := UserView{
		ID:                u.ID,
		Email:             u.Email,
		Profiles:          len(u.Profiles),
		TutorialCompleted: u.TutorialCompleted,
	}
	if p := u.ActiveProfile(); p != nil {
		v.ActiveProfile = p.Name
	}
	return v
}

func (v UserView) writeText(w io.Writer) error {
	fmt.Fprintf(w, "Signed in as %s\n", v.Email)
	if v.ActiveProfile != "" {
		fmt.Fprintf(w, "Active profile: %s (%d total)\n", v.ActiveProfile, v.Profiles)
	} else {
		fmt.Fprintf(w, "No active profile (%d total)\n", v.Profiles)
	}
	if !v.TutorialCompleted {
		fmt.Fprintln(w, "Tutorial not completed. Run `blackbox tutorial complete` when done.")
	}
	return nil
}

// NewLoginCommand creates the login command.
func NewLoginCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in, creating the journal on first use",
		Long: `Sign in with an email address.

The first login creates the journal with one empty profile named
"Subject Alpha". Later logins return the existing journal unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				u, err := a.journal.Login(ctx, args[0])
				if err != nil {
					return err
				}
				v := userView(u)
				return a.out.Render(v, v.writeText)
			})
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				u := a.journal.User()
				if u == nil {
					return NewExitError(ExitFailure, "not signed in; run `blackbox login <email>`")
				}
				v := userView(u)
				return a.out.Render(v, v.writeText)
			})
		},
	}
}

// NewTutorialCommand creates the tutorial command group.
func NewTutorialCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tutorial",
		Short: "Onboarding tutorial state",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "complete",
		Short: "Mark the onboarding tutorial as done",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				if err := a.journal.CompleteTutorial(ctx); err != nil {
					return err
				}
				return a.out.Success("Tutorial completed.")
			})
		},
	})
	return cmd
}

// ThemeView reports the display theme.
type ThemeView struct {
	Dark bool `json:"dark"`
}

// NewThemeCommand creates the theme command.
func NewThemeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [toggle|dark|light]",
		Short:     "Show or change the display theme",
		Long:      "Without an argument prints the current theme. The setting is kept separately from the journal.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"toggle", "dark", "light"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				var err error
				if len(args) == 1 {
					switch args[0] {
					case "toggle":
						_, err = a.journal.ToggleDarkMode(ctx)
					case "dark":
						err = a.journal.SetDarkMode(ctx, true)
					case "light":
						err = a.journal.SetDarkMode(ctx, false)
					}
				}
				if err != nil {
					return err
				}
				v := ThemeView{Dark: a.journal.DarkMode()}
				return a.out.Render(v, func(w io.Writer) error {
					name := "light"
					if v.Dark {
						name = "dark"
					}
					_, err := fmt.Fprintf(w, "Theme: %s\n", name)
					return err
				})
			})
		},
	}
}
