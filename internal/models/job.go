package models

import (
	"encoding/json"
	"time"
)

// Job is the listing shape returned by the public browse endpoint.
type Job struct {
	ID       string    `json:"_id"`
	Title    string    `json:"title"`
	Company  string    `json:"company"`
	Location string    `json:"location"`
	Salary   string    `json:"salary,omitempty"`
	PostedAt time.Time `json:"createdAt"`
}

// SavedRecord is the server-side join entity linking an identity to a job.
// Its id is distinct from the job's id; unsave calls must use the record id.
type SavedRecord struct {
	ID        string    `json:"_id"`
	JobID     string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// UnmarshalJSON handles the "job" field union: the server embeds either a
// bare job id string or a populated job object, depending on the endpoint.
// Both forms normalize to JobID.
func (r *SavedRecord) UnmarshalJSON(data []byte) error {
	var w struct {
		ID        string          `json:"_id"`
		Job       json.RawMessage `json:"job"`
		CreatedAt time.Time       `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	r.ID = w.ID
	r.CreatedAt = w.CreatedAt
	r.JobID = ""

	if len(w.Job) == 0 || string(w.Job) == "null" {
		return nil
	}

	// Bare id string
	var id string
	if err := json.Unmarshal(w.Job, &id); err == nil {
		r.JobID = id
		return nil
	}

	// Populated job object
	var job Job
	if err := json.Unmarshal(w.Job, &job); err != nil {
		return err
	}
	r.JobID = job.ID
	return nil
}
