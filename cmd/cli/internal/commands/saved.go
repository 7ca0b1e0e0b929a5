package commands

import (
	"context"
	"fmt"

	"github.com/jobdeck/jobdeck/internal/guard"
	"github.com/jobdeck/jobdeck/internal/models"
	"github.com/jobdeck/jobdeck/internal/savedjobs"
)

type SavedCmd struct {
	List   SavedListCmd   `cmd:"" help:"List saved jobs"`
	Toggle SavedToggleCmd `cmd:"" help:"Save a job, or unsave it if already saved"`
}

// newReconciler builds a saved-jobs reconciler bound to the live session.
func (a *app) newReconciler() *savedjobs.Reconciler {
	return savedjobs.New(a.client, a.activeRole)
}

// admitSaved restores the session and applies the candidate-portal
// admission rules before any saved-jobs command runs.
func admitSaved(ctx context.Context, a *app) error {
	snap := a.session.Initialize(ctx)

	decision := guard.Decide(snap, models.RoleJobseeker)
	switch decision.Action {
	case guard.Allow:
		return nil
	case guard.RedirectToLogin:
		return fmt.Errorf("not logged in, run 'jobdeck login' (portal: %s)", decision.Target)
	case guard.RedirectToRoleHome:
		return fmt.Errorf("saved jobs are only available to candidate accounts (your portal: %s)", decision.Target)
	default:
		return fmt.Errorf("session is still restoring, try again")
	}
}

type SavedListCmd struct{}

func (s *SavedListCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	if err := admitSaved(ctx, app); err != nil {
		return err
	}

	rec := app.newReconciler()
	if err := rec.Load(ctx); err != nil {
		fmt.Println("Could not fetch saved jobs right now")
		return nil
	}

	ids := rec.Saved()
	if len(ids) == 0 {
		fmt.Println("No saved jobs")
		return nil
	}

	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

type SavedToggleCmd struct {
	JobID string `arg:"" help:"Job id to toggle"`
}

func (s *SavedToggleCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	if err := admitSaved(ctx, app); err != nil {
		return err
	}

	rec := app.newReconciler()
	if err := rec.Load(ctx); err != nil {
		return fmt.Errorf("failed to fetch saved jobs: %w", err)
	}

	res, err := rec.Toggle(ctx, s.JobID)
	if err != nil {
		return fmt.Errorf("failed to toggle job %s: %w", s.JobID, err)
	}

	if res.Saved {
		fmt.Printf("Saved job %s\n", res.JobID)
	} else {
		fmt.Printf("Removed job %s from saved jobs\n", res.JobID)
	}
	return nil
}
