package commands

import (
	"context"
	"fmt"

	"github.com/jobdeck/jobdeck/internal/api"
	"github.com/jobdeck/jobdeck/internal/models"
	"github.com/jobdeck/jobdeck/internal/session"
)

type LoginCmd struct {
	Email    string `help:"Account email" required:""`
	Password string `help:"Account password" required:"" env:"JOBDECK_PASSWORD"`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	res := app.session.Login(ctx, l.Email, l.Password)
	if !res.OK {
		return fmt.Errorf("login failed: %s", res.Message)
	}

	fmt.Printf("Logged in as %s (%s)\n", res.Identity.Name, res.Identity.Role)
	return nil
}

type RegisterCmd struct {
	Name     string `help:"Display name" required:""`
	Email    string `help:"Account email" required:""`
	Password string `help:"Account password" required:"" env:"JOBDECK_PASSWORD"`
	Role     string `help:"Account role (jobseeker or employer)" default:"jobseeker" enum:"jobseeker,employer"`
}

func (r *RegisterCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	res := app.session.Register(ctx, api.RegisterPayload{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
		Role:     models.ParseRole(r.Role),
	})
	if !res.OK {
		return fmt.Errorf("registration failed: %s", res.Message)
	}

	fmt.Printf("Welcome %s, account created with role %s\n", res.Identity.Name, res.Identity.Role)
	return nil
}

type LogoutCmd struct{}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	app.session.Logout()
	fmt.Println("Logged out")
	return nil
}

type WhoamiCmd struct{}

func (w *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	snap := app.session.Initialize(ctx)
	if snap.Status != session.StatusAuthenticated {
		fmt.Println("Not logged in")
		return nil
	}

	fmt.Printf("%s <%s>\n", snap.Identity.Name, snap.Identity.Email)
	fmt.Printf("Role: %s\n", snap.Identity.Role)
	return nil
}
