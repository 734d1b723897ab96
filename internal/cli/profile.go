package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/state"
)

// ProfileView is one row of `profile list`.
type ProfileView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Age       string `json:"age,omitempty"`
	Sex       string `json:"sex,omitempty"`
	Details   string `json:"details,omitempty"`
	Sessions  int    `json:"sessions"`
	Baselines int    `json:"baselines"`
	Active    bool   `json:"active"`
}

func profileView(p domain.Profile, activeID string) ProfileView {
	return ProfileView{
		ID:        p.ID,
		Name:      p.Name,
		Age:       p.Age,
		Sex:       p.Sex,
		Details:   p.Details,
		Sessions:  len(p.Sessions),
		Baselines: len(p.Baselines),
		Active:    p.ID == activeID,
	}
}

// NewProfileCommand creates the profile command group.
func NewProfileCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage research subjects",
	}
	cmd.AddCommand(newProfileListCommand(opts))
	cmd.AddCommand(newProfileAddCommand(opts))
	cmd.AddCommand(newProfileUseCommand(opts))
	cmd.AddCommand(newProfileUpdateCommand(opts))
	return cmd
}

func newProfileListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List profiles; the active one is marked with *",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				u := a.journal.User()
				views := []ProfileView{}
				if u != nil {
					for _, p := range u.Profiles {
						views = append(views, profileView(p, u.CurrentProfileID))
					}
				}
				return a.out.Render(views, func(w io.Writer) error {
					if len(views) == 0 {
						fmt.Fprintln(w, "No profiles.")
						return nil
					}
					for _, v := range views {
						marker := " "
						if v.Active {
							marker = "*"
						}
						fmt.Fprintf(w, "%s %-24s %3d sessions  %s\n", marker, v.Name, v.Sessions, v.ID)
					}
					return nil
				})
			})
		},
	}
}

func newProfileAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a profile and make it active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				p, err := a.journal.AddProfile(ctx, args[0])
				if err != nil {
					return err
				}
				v := profileView(p, p.ID)
				return a.out.Render(v, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Added profile %s (%s), now active.\n", v.Name, v.ID)
					return err
				})
			})
		},
	}
}

// findProfile resolves a profile by id, then by name.
func findProfile(u *domain.User, ref string) *domain.Profile {
	if u == nil {
		return nil
	}
	if p := u.Profile(ref); p != nil {
		return p
	}
	for i := range u.Profiles {
		if u.Profiles[i].Name == ref {
			return &u.Profiles[i]
		}
	}
	return nil
}

func newProfileUseCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "use <name|id>",
		Short: "Select the active profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				p := findProfile(a.journal.User(), args[0])
				if p == nil {
					return NewExitError(ExitFailure, fmt.Sprintf("no profile named %q", args[0]))
				}
				if err := a.journal.SetActiveProfile(ctx, p.ID); err != nil {
					return err
				}
				return a.out.Success(fmt.Sprintf("Active profile: %s", p.Name))
			})
		},
	}
}

func newProfileUpdateCommand(opts *RootOptions) *cobra.Command {
	var ref, age, sex, details string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Edit a profile's age, sex and details",
		Long: `Edit the optional profile fields. Only the flags given are changed;
an empty value clears the field.

Example:
  blackbox profile update --age 34 --sex F
  blackbox profile update --profile "Subject Beta" --details ""`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				var p *domain.Profile
				if ref != "" {
					p = findProfile(a.journal.User(), ref)
				} else {
					p = a.journal.ActiveProfile()
				}
				if p == nil {
					return NewExitError(ExitFailure, "no such profile")
				}

				var patch state.ProfilePatch
				if cmd.Flags().Changed("age") {
					patch.Age = &age
				}
				if cmd.Flags().Changed("sex") {
					patch.Sex = &sex
				}
				if cmd.Flags().Changed("details") {
					patch.Details = &details
				}
				updated, err := a.journal.UpdateProfile(ctx, p.ID, patch)
				if err != nil {
					return err
				}
				u := a.journal.User()
				v := profileView(updated, u.CurrentProfileID)
				return a.out.Render(v, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Updated profile %s.\n", v.Name)
					return err
				})
			})
		},
	}

	cmd.Flags().StringVar(&ref, "profile", "", "profile name or id (default: active profile)")
	cmd.Flags().StringVar(&age, "age", "", "age")
	cmd.Flags().StringVar(&sex, "sex", "", "sex")
	cmd.Flags().StringVar(&details, "details", "", "free-form details")
	return cmd
}
