// Package savedjobs hides the server's two-identifier scheme for saved
// jobs: a job has its own id, and saving it creates a join record with a
// different id which is the one unsave must reference. Each screen owns an
// independent Reconciler instance; instances do not coordinate, each is
// eventually consistent with the server after its own load.
package savedjobs

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/jobdeck/jobdeck/internal/api"
	"github.com/jobdeck/jobdeck/internal/models"
)

// Sentinel errors
var (
	// ErrToggleInFlight is returned when a toggle for the same job is
	// already outstanding. The caller keeps the icon in its prior state.
	ErrToggleInFlight = errors.New("toggle already in progress for this job")

	// ErrPermissionDenied is returned when the active role may not save jobs.
	ErrPermissionDenied = errors.New("only candidates can save jobs")

	// ErrNotLoaded is returned when Toggle is called before Load.
	ErrNotLoaded = errors.New("saved jobs not loaded")
)

// State describes the reconciler lifecycle.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
)

// listPageSize is the page size used for the full reconciliation fetch.
const listPageSize = 100

// Gateway is the slice of the API client the reconciler depends on.
type Gateway interface {
	ListSavedJobs(ctx context.Context, page, limit int) ([]models.SavedRecord, error)
	SaveJob(ctx context.Context, jobID string) (*models.SavedRecord, error)
	UnsaveJob(ctx context.Context, savedRecordID string) error
}

// RoleFunc reports the active identity's role, or "" when anonymous.
type RoleFunc func() models.Role

// ToggleResult reports the post-toggle saved state of a job.
type ToggleResult struct {
	JobID string
	Saved bool
}

// Reconciler maintains the jobID to savedRecordID mapping for one screen.
// Safe for concurrent use; toggles for the same job are serialized, toggles
// for different jobs run independently.
type Reconciler struct {
	gateway Gateway
	role    RoleFunc

	mu       sync.Mutex
	state    State
	mapping  map[string]string // jobID -> savedRecordID
	inflight map[string]bool   // jobIDs with an outstanding toggle
	degraded bool

	// loadDone is closed when the in-flight Load settles; loadErr holds
	// its outcome for callers that waited on it.
	loadDone chan struct{}
	loadErr  error
}

// New creates an idle reconciler. role guards the save permission.
func New(gateway Gateway, role RoleFunc) *Reconciler {
	return &Reconciler{
		gateway:  gateway,
		role:     role,
		state:    StateIdle,
		mapping:  make(map[string]string),
		inflight: make(map[string]bool),
	}
}

// State returns the current lifecycle state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Degraded reports whether the last load failed. The reconciler still
// answers queries, treating everything as unsaved, so browsing is never
// blocked on saved-state.
func (r *Reconciler) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.degraded
}

// Load performs the full reconciliation fetch, paging through the
// identity's saved records and rebuilding the mapping. Fail-open: on error
// the reconciler becomes Ready with an empty mapping. A Load entered while
// another is in flight waits for that one to settle and returns its
// outcome rather than reporting success against a still-loading state.
func (r *Reconciler) Load(ctx context.Context) error {
	r.mu.Lock()
	if r.state == StateLoading {
		done := r.loadDone
		r.mu.Unlock()

		select {
		case <-done:
			r.mu.Lock()
			err := r.loadErr
			r.mu.Unlock()
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.state = StateLoading
	done := make(chan struct{})
	r.loadDone = done
	r.mu.Unlock()

	mapping, err := r.fetchAll(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = StateReady
	r.loadErr = err
	close(done)

	if err != nil {
		log.Warn().Err(err).Msg("saved jobs fetch failed, treating all jobs as unsaved")
		r.mapping = make(map[string]string)
		r.degraded = true
		return err
	}

	r.mapping = mapping
	r.degraded = false

	log.Debug().Int("count", len(mapping)).Msg("saved jobs loaded")

	return nil
}

func (r *Reconciler) fetchAll(ctx context.Context) (map[string]string, error) {
	mapping := make(map[string]string)

	for page := 1; ; page++ {
		records, err := r.gateway.ListSavedJobs(ctx, page, listPageSize)
		if err != nil {
			return nil, err
		}

		for _, rec := range records {
			if rec.JobID == "" {
				// Orphaned record, the job it referenced is gone.
				continue
			}
			mapping[rec.JobID] = rec.ID
		}

		if len(records) < listPageSize {
			return mapping, nil
		}
	}
}

// IsSaved reports whether jobID is currently saved by the active identity.
func (r *Reconciler) IsSaved(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.mapping[jobID]
	return ok
}

// RecordID returns the saved record id mapped to jobID, if any.
func (r *Reconciler) RecordID(jobID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.mapping[jobID]
	return id, ok
}

// Saved returns the saved job ids in stable order.
func (r *Reconciler) Saved() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.mapping))
	for id := range r.mapping {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Toggle saves jobID if it is unsaved and unsaves it otherwise. Unsaving
// always uses the mapped record id, never the job id. A second toggle for
// the same job while one is outstanding is rejected with ErrToggleInFlight;
// without that, a fast double-toggle could leave the mapping pointing at a
// record the other call already deleted. On any failure the mapping is left
// unchanged.
func (r *Reconciler) Toggle(ctx context.Context, jobID string) (ToggleResult, error) {
	if role := r.role(); !role.CanSaveJobs() {
		return ToggleResult{}, ErrPermissionDenied
	}

	r.mu.Lock()
	if r.state != StateReady {
		r.mu.Unlock()
		return ToggleResult{}, ErrNotLoaded
	}
	if r.inflight[jobID] {
		r.mu.Unlock()
		return ToggleResult{}, ErrToggleInFlight
	}
	r.inflight[jobID] = true
	recordID, saved := r.mapping[jobID]
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.inflight, jobID)
		r.mu.Unlock()
	}()

	if saved {
		return r.unsave(ctx, jobID, recordID)
	}
	return r.save(ctx, jobID)
}

func (r *Reconciler) save(ctx context.Context, jobID string) (ToggleResult, error) {
	rec, err := r.gateway.SaveJob(ctx, jobID)
	if err != nil {
		return ToggleResult{}, mapToggleError(err)
	}

	r.mu.Lock()
	r.mapping[jobID] = rec.ID
	r.mu.Unlock()

	log.Debug().Str("jobId", jobID).Str("recordId", rec.ID).Msg("job saved")

	return ToggleResult{JobID: jobID, Saved: true}, nil
}

func (r *Reconciler) unsave(ctx context.Context, jobID, recordID string) (ToggleResult, error) {
	if err := r.gateway.UnsaveJob(ctx, recordID); err != nil {
		return ToggleResult{}, mapToggleError(err)
	}

	r.mu.Lock()
	delete(r.mapping, jobID)
	r.mu.Unlock()

	log.Debug().Str("jobId", jobID).Str("recordId", recordID).Msg("job unsaved")

	return ToggleResult{JobID: jobID, Saved: false}, nil
}

// Reset returns the reconciler to Idle with an empty mapping. Called on
// logout.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = StateIdle
	r.mapping = make(map[string]string)
	r.degraded = false
	r.loadErr = nil
}

// mapToggleError translates gateway errors for display next to the
// bookmark control.
func mapToggleError(err error) error {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Status == 403 {
		return ErrPermissionDenied
	}
	return err
}
