package run

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Actor identifies who started a run.
type Actor struct {
	// Hostname is the machine name where the run was performed.
	Hostname string
	// Username is the system user who started the run.
	Username string
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// Record is the persisted outcome of a run.
type Record struct {
	// ID uniquely identifies the run.
	ID uuid.UUID
	// Name is the command that produced the record, e.g. "evolve".
	Name string
	// Timestamp is when the run finished.
	Timestamp time.Time
	// Actor is who started the run; nil when it could not be detected.
	Actor *Actor
	// QuickMode reports whether relaxed tolerances and small grids were used.
	QuickMode bool
	// Parameters are the named inputs of the run.
	Parameters map[string]any
	// Results are the named outputs of the run.
	Results map[string]any
}

// NewRecord creates a record with a fresh ID and the current UTC time.
func NewRecord(name string, actor *Actor, quick bool) *Record {
	return &Record{
		ID:         uuid.New(),
		Name:       name,
		Timestamp:  time.Now().UTC(),
		Actor:      actor,
		QuickMode:  quick,
		Parameters: make(map[string]any),
		Results:    make(map[string]any),
	}
}

// SetParameter stores a named input.
func (r *Record) SetParameter(key string, value any) {
	if r.Parameters == nil {
		r.Parameters = make(map[string]any)
	}

	r.Parameters[key] = value
}

// SetResult stores a named output.
func (r *Record) SetResult(key string, value any) {
	if r.Results == nil {
		r.Results = make(map[string]any)
	}

	r.Results[key] = value
}

// ResultKeys returns the result names in sorted order.
func (r *Record) ResultKeys() []string {
	return slices.Sorted(maps.Keys(r.Results))
}

// Filename returns the file name the record is stored under.
func (r *Record) Filename() string {
	return r.Name + "-" + r.ID.String() + ".json"
}

// Clone returns a copy of the record. The maps are copied one level deep.
func (r *Record) Clone() *Record {
	return &Record{
		ID:         r.ID,
		Name:       r.Name,
		Timestamp:  r.Timestamp,
		Actor:      r.Actor.Clone(),
		QuickMode:  r.QuickMode,
		Parameters: maps.Clone(r.Parameters),
		Results:    maps.Clone(r.Results),
	}
}
