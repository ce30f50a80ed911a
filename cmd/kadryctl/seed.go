package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"kadryhr/internal/app"
	"kadryhr/internal/core/apperror"
	"kadryhr/internal/domain/auth"
	"kadryhr/internal/domain/employee"
	"kadryhr/internal/domain/location"
	"kadryhr/internal/infrastructure/storage/postgres"
	"kadryhr/internal/infrastructure/storage/postgres/hr_repo"
	"kadryhr/pkg/logger"
)

const (
	demoOrganisation = "Demo Sp. z o.o."
	demoEmail        = "admin@example.com"
	demoPassword     = "password123"
)

var demoEmployees = []struct {
	first, last, email, position string
}{
	{"Jan", "Kowalski", "jan.kowalski@example.com", "Kierownik zmiany"},
	{"Anna", "Nowak", "anna.nowak@example.com", "Kasjerka"},
	{"Piotr", "Wiśniewski", "piotr.wisniewski@example.com", "Magazynier"},
	{"Katarzyna", "Wójcik", "katarzyna.wojcik@example.com", "Kasjerka"},
	{"Tomasz", "Kamiński", "tomasz.kaminski@example.com", "Kierowca"},
	{"Agnieszka", "Lewandowska", "agnieszka.lewandowska@example.com", "Specjalistka HR"},
}

var demoLocations = []struct {
	name, address string
}{
	{"Sklep Centrum", "ul. Marszałkowska 10, Warszawa"},
	{"Magazyn Wola", "ul. Kasprzaka 31, Warszawa"},
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo organisation with an owner, employees and locations",
		Long: fmt.Sprintf(`Creates %q with the owner %s / %s.
Running it again leaves existing data untouched.`, demoOrganisation, demoEmail, demoPassword),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				return seedDemo(cmd.Context(), a)
			})
		},
	}
}

func seedDemo(ctx context.Context, a *app.App) error {
	user, org, err := a.Auth.Register(ctx, auth.RegisterInput{
		OrganisationName: demoOrganisation,
		Email:            demoEmail,
		Password:         demoPassword,
		DisplayName:      "Administrator",
	})
	if apperror.HasCode(err, apperror.CodeDuplicate) {
		logger.Info(ctx, "demo organisation already seeded", "email", demoEmail)
		return nil
	}
	if err != nil {
		return fmt.Errorf("register demo organisation: %w", err)
	}

	employees := make([]*employee.Employee, 0, len(demoEmployees))
	for _, d := range demoEmployees {
		e := employee.New(d.first, d.last)
		e.AssignOrganisation(org.ID)
		e.Email = d.email
		e.Position = d.position
		if err := e.Validate(ctx); err != nil {
			return err
		}
		employees = append(employees, e)
	}

	locations := make([]*location.Location, 0, len(demoLocations))
	for _, d := range demoLocations {
		l := location.New(d.name, d.address)
		l.AssignOrganisation(org.ID)
		if err := l.Validate(ctx); err != nil {
			return err
		}
		locations = append(locations, l)
	}

	err = a.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := postgres.CopyRows(ctx, a.TxManager, hr_repo.EmployeeTable, employees); err != nil {
			return err
		}
		_, err := postgres.CopyRows(ctx, a.TxManager, hr_repo.LocationTable, locations)
		return err
	})
	if err != nil {
		return fmt.Errorf("copy demo data: %w", err)
	}

	logger.Info(ctx, "demo organisation seeded",
		"organisation_id", org.ID.String(),
		"owner", user.Email,
		"employees", len(employees),
		"locations", len(locations))
	return nil
}
