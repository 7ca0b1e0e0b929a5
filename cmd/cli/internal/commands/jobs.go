package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jobdeck/jobdeck/internal/models"
)

type JobsCmd struct {
	List JobsListCmd `cmd:"" help:"List open jobs"`
}

type JobsListCmd struct {
	Page  int `help:"Page number" default:"1"`
	Limit int `help:"Number of jobs per page" default:"20"`
}

func (j *JobsListCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	// Restore the session so saved markers can be shown for candidates;
	// browsing itself is public and proceeds either way.
	snap := app.session.Initialize(ctx)

	jobs, err := app.client.ListJobs(ctx, j.Page, j.Limit)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	saved := map[string]bool{}
	if snap.Identity != nil && snap.Identity.Role.CanSaveJobs() {
		rec := app.newReconciler()
		if err := rec.Load(ctx); err == nil {
			for _, id := range rec.Saved() {
				saved[id] = true
			}
		}
	}

	printJobs(jobs, saved)
	return nil
}

func printJobs(jobs []models.Job, saved map[string]bool) {
	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCOMPANY\tLOCATION\tSAVED")
	for _, job := range jobs {
		marker := ""
		if saved[job.ID] {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", job.ID, job.Title, job.Company, job.Location, marker)
	}
	w.Flush()
}
