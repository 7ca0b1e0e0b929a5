package savedjobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobdeck/jobdeck/internal/models"
)

// fakeGateway is an in-memory saved-jobs backend. It mints record ids
// distinct from job ids so tests catch any call that confuses the two.
type fakeGateway struct {
	mu      sync.Mutex
	records map[string]string // recordID -> jobID
	nextID  int

	listErr error

	saveCalls   []string
	unsaveCalls []string

	// saveGate, when set, blocks SaveJob until closed
	saveGate chan struct{}

	// listGate, when set, blocks ListSavedJobs until closed
	listGate chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{records: map[string]string{}}
}

func (f *fakeGateway) ListSavedJobs(ctx context.Context, page, limit int) ([]models.SavedRecord, error) {
	if f.listGate != nil {
		<-f.listGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}
	if page > 1 {
		return nil, nil
	}

	out := make([]models.SavedRecord, 0, len(f.records))
	for recID, jobID := range f.records {
		out = append(out, models.SavedRecord{ID: recID, JobID: jobID, CreatedAt: time.Now()})
	}
	return out, nil
}

func (f *fakeGateway) SaveJob(ctx context.Context, jobID string) (*models.SavedRecord, error) {
	if f.saveGate != nil {
		<-f.saveGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.saveCalls = append(f.saveCalls, jobID)
	f.nextID++
	recID := fmt.Sprintf("s%d", f.nextID)
	f.records[recID] = jobID

	return &models.SavedRecord{ID: recID, JobID: jobID, CreatedAt: time.Now()}, nil
}

func (f *fakeGateway) UnsaveJob(ctx context.Context, savedRecordID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.unsaveCalls = append(f.unsaveCalls, savedRecordID)
	if _, ok := f.records[savedRecordID]; !ok {
		return errors.New("saved record not found")
	}
	delete(f.records, savedRecordID)
	return nil
}

func jobseeker() models.Role { return models.RoleJobseeker }

func newReadyReconciler(t *testing.T, gw *fakeGateway) *Reconciler {
	t.Helper()

	rec := New(gw, jobseeker)
	require.NoError(t, rec.Load(context.Background()))
	require.Equal(t, StateReady, rec.State())
	return rec
}

func TestLoad(t *testing.T) {
	t.Run("builds the mapping from existing records", func(t *testing.T) {
		gw := newFakeGateway()
		gw.records["s1"] = "job1"
		gw.records["s2"] = "job2"

		rec := newReadyReconciler(t, gw)

		assert.True(t, rec.IsSaved("job1"))
		assert.True(t, rec.IsSaved("job2"))
		assert.False(t, rec.IsSaved("job3"))
		assert.Equal(t, []string{"job1", "job2"}, rec.Saved())
	})

	t.Run("load entered during an in-flight load waits for its outcome", func(t *testing.T) {
		gw := newFakeGateway()
		gw.records["s1"] = "job1"
		gw.listGate = make(chan struct{})

		rec := New(gw, jobseeker)

		firstDone := make(chan error, 1)
		go func() {
			firstDone <- rec.Load(context.Background())
		}()

		require.Eventually(t, func() bool {
			return rec.State() == StateLoading
		}, 2*time.Second, 10*time.Millisecond)

		// The second load must not report success while the first is
		// still in flight.
		secondDone := make(chan error, 1)
		go func() {
			secondDone <- rec.Load(context.Background())
		}()

		select {
		case err := <-secondDone:
			t.Fatalf("second load settled before the fetch completed: %v", err)
		case <-time.After(50 * time.Millisecond):
		}

		close(gw.listGate)
		require.NoError(t, <-firstDone)
		require.NoError(t, <-secondDone)

		assert.Equal(t, StateReady, rec.State())
		assert.True(t, rec.IsSaved("job1"))
	})

	t.Run("a waiting load reports the in-flight load's failure", func(t *testing.T) {
		gw := newFakeGateway()
		gw.listErr = errors.New("boom")
		gw.listGate = make(chan struct{})

		rec := New(gw, jobseeker)

		firstDone := make(chan error, 1)
		go func() {
			firstDone <- rec.Load(context.Background())
		}()

		require.Eventually(t, func() bool {
			return rec.State() == StateLoading
		}, 2*time.Second, 10*time.Millisecond)

		secondDone := make(chan error, 1)
		go func() {
			secondDone <- rec.Load(context.Background())
		}()

		close(gw.listGate)
		assert.Error(t, <-firstDone)
		assert.Error(t, <-secondDone)
		assert.True(t, rec.Degraded())
	})

	t.Run("fetch failure fails open to nothing saved", func(t *testing.T) {
		gw := newFakeGateway()
		gw.listErr = errors.New("boom")

		rec := New(gw, jobseeker)
		err := rec.Load(context.Background())

		assert.Error(t, err)
		assert.Equal(t, StateReady, rec.State())
		assert.True(t, rec.Degraded())
		assert.False(t, rec.IsSaved("job1"))
	})
}

func TestToggle(t *testing.T) {
	t.Run("save then unsave uses the record id, not the job id", func(t *testing.T) {
		gw := newFakeGateway()
		rec := newReadyReconciler(t, gw)

		// {} -> toggle saves and maps job1 to the new record id
		res, err := rec.Toggle(context.Background(), "job1")
		require.NoError(t, err)
		assert.True(t, res.Saved)

		recordID, ok := rec.RecordID("job1")
		require.True(t, ok)
		assert.Equal(t, "s1", recordID)

		// second toggle deletes record s1, never /job1
		res, err = rec.Toggle(context.Background(), "job1")
		require.NoError(t, err)
		assert.False(t, res.Saved)
		assert.Equal(t, []string{"s1"}, gw.unsaveCalls)
		assert.False(t, rec.IsSaved("job1"))
	})

	t.Run("saved state equals parity of successful toggles", func(t *testing.T) {
		gw := newFakeGateway()
		rec := newReadyReconciler(t, gw)

		for i := 1; i <= 5; i++ {
			_, err := rec.Toggle(context.Background(), "job1")
			require.NoError(t, err)
			assert.Equal(t, i%2 == 1, rec.IsSaved("job1"))
		}
	})

	t.Run("failed unsave leaves the mapping unchanged", func(t *testing.T) {
		gw := newFakeGateway()
		gw.records["s1"] = "job1"
		rec := newReadyReconciler(t, gw)

		// Remove the record server-side so the unsave fails.
		gw.mu.Lock()
		delete(gw.records, "s1")
		gw.mu.Unlock()

		_, err := rec.Toggle(context.Background(), "job1")
		assert.Error(t, err)
		assert.True(t, rec.IsSaved("job1"))
	})

	t.Run("non-candidate roles are refused without any call", func(t *testing.T) {
		gw := newFakeGateway()

		rec := New(gw, func() models.Role { return models.RoleEmployer })
		require.NoError(t, rec.Load(context.Background()))

		_, err := rec.Toggle(context.Background(), "job1")
		assert.ErrorIs(t, err, ErrPermissionDenied)
		assert.Empty(t, gw.saveCalls)
		assert.False(t, rec.IsSaved("job1"))
	})

	t.Run("toggle before load is rejected", func(t *testing.T) {
		rec := New(newFakeGateway(), jobseeker)

		_, err := rec.Toggle(context.Background(), "job1")
		assert.ErrorIs(t, err, ErrNotLoaded)
	})

	t.Run("concurrent toggles for the same job are serialized", func(t *testing.T) {
		gw := newFakeGateway()
		gw.saveGate = make(chan struct{})
		rec := newReadyReconciler(t, gw)

		firstDone := make(chan error, 1)
		go func() {
			_, err := rec.Toggle(context.Background(), "job1")
			firstDone <- err
		}()

		// Wait for the first toggle to be in flight, then fire the second.
		require.Eventually(t, func() bool {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			return rec.inflight["job1"]
		}, 2*time.Second, 10*time.Millisecond)

		_, err := rec.Toggle(context.Background(), "job1")
		assert.ErrorIs(t, err, ErrToggleInFlight)

		close(gw.saveGate)
		require.NoError(t, <-firstDone)

		// Exactly one save reached the network.
		assert.Equal(t, []string{"job1"}, gw.saveCalls)
		assert.True(t, rec.IsSaved("job1"))
	})

	t.Run("toggles for different jobs run independently", func(t *testing.T) {
		gw := newFakeGateway()
		gw.saveGate = make(chan struct{})
		rec := newReadyReconciler(t, gw)

		done := make(chan error, 2)
		go func() {
			_, err := rec.Toggle(context.Background(), "job1")
			done <- err
		}()
		go func() {
			_, err := rec.Toggle(context.Background(), "job2")
			done <- err
		}()

		require.Eventually(t, func() bool {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			return rec.inflight["job1"] && rec.inflight["job2"]
		}, 2*time.Second, 10*time.Millisecond)

		close(gw.saveGate)
		require.NoError(t, <-done)
		require.NoError(t, <-done)

		assert.True(t, rec.IsSaved("job1"))
		assert.True(t, rec.IsSaved("job2"))
	})
}

func TestReset(t *testing.T) {
	gw := newFakeGateway()
	gw.records["s1"] = "job1"
	rec := newReadyReconciler(t, gw)
	require.True(t, rec.IsSaved("job1"))

	rec.Reset()

	assert.Equal(t, StateIdle, rec.State())
	assert.False(t, rec.IsSaved("job1"))
	assert.Empty(t, rec.Saved())
}
