package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kadryhr/internal/app"
	appctx "kadryhr/internal/core/context"
	"kadryhr/internal/core/security"
	"kadryhr/internal/domain/auth"
	"kadryhr/internal/domain/organisation"
)

func orgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "org",
		Short: "Manage organisations",
	}

	var in auth.RegisterInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an organisation together with its owner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				user, org, err := a.Auth.Register(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created organisation %s (%s) with owner %s\n", org.Name, org.Slug, user.Email)
				return nil
			})
		},
	}
	create.Flags().StringVar(&in.OrganisationName, "name", "", "Organisation name")
	create.Flags().StringVar(&in.Slug, "slug", "", "URL slug (derived from the name when empty)")
	create.Flags().StringVar(&in.Email, "owner-email", "", "Owner email")
	create.Flags().StringVar(&in.Password, "owner-password", "", "Owner password")
	create.Flags().StringVar(&in.DisplayName, "owner-name", "", "Owner display name")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("owner-email")
	_ = create.MarkFlagRequired("owner-password")

	list := &cobra.Command{
		Use:   "list",
		Short: "List organisations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				orgs, err := a.Organisations.List(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSLUG\tNAME\tCREATED")
				for _, o := range orgs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.ID, o.Slug, o.Name, o.CreatedAt.Format("2006-01-02"))
				}
				return w.Flush()
			})
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var (
		slug string
		in   auth.CreateUserInput
		role string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Add a user to an organisation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Role = security.Role(role)
			if !in.Role.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			return withApp(cmd.Context(), func(a *app.App) error {
				ctx, err := actAsOwner(cmd.Context(), a, slug)
				if err != nil {
					return err
				}
				user, err := a.Auth.CreateUser(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s) in %s\n", user.Email, user.Role, slug)
				return nil
			})
		},
	}
	create.Flags().StringVar(&slug, "org", "", "Organisation slug")
	create.Flags().StringVar(&in.Email, "email", "", "User email")
	create.Flags().StringVar(&in.Password, "password", "", "User password")
	create.Flags().StringVar(&in.DisplayName, "name", "", "Display name")
	create.Flags().StringVar(&role, "role", string(security.RoleEmployee), "Role (owner, admin, manager, employee)")
	_ = create.MarkFlagRequired("org")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}

// actAsOwner returns a context authenticated as the owner of the organisation with slug,
// so operator changes go through the same checks and audit trail as API calls.
func actAsOwner(ctx context.Context, a *app.App, slug string) (context.Context, error) {
	org, err := findOrganisation(ctx, a, slug)
	if err != nil {
		return nil, err
	}
	owners, _, err := a.Users.ListByOrganisation(ctx, org.ID, auth.UserFilter{Role: security.RoleOwner, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(owners) == 0 {
		return nil, fmt.Errorf("organisation %s has no owner", slug)
	}
	owner := owners[0]
	return appctx.WithIdentity(ctx, &appctx.Identity{
		UserID:         owner.ID,
		OrganisationID: org.ID,
		Email:          owner.Email,
		Name:           owner.Name(),
		Role:           owner.Role,
		Tenant:         appctx.Tenant{ID: org.ID, Name: org.Name, Slug: org.Slug},
	}), nil
}

func findOrganisation(ctx context.Context, a *app.App, slug string) (*organisation.Organisation, error) {
	orgs, err := a.Organisations.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, o := range orgs {
		if o.Slug == slug {
			return o, nil
		}
	}
	return nil, fmt.Errorf("organisation %q not found", slug)
}
