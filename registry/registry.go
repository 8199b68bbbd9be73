// Package registry persists session records for a project. The registry is
// a single JSON document; nothing in it is authoritative about whether an
// agent is actually running. Liveness is always derived at read time by
// probing the recorded PID.
package registry

import (
	"time"
)

// CurrentVersion is written into every saved registry document.
const CurrentVersion = 1

// Record is the persisted state of one session.
type Record struct {
	// ID is a stable identifier assigned at creation; it survives renames
	// of everything else.
	ID   string `json:"id"`
	Name string `json:"name"`

	// PID is the last spawned agent process, or 0 if the session has never
	// had an agent started.
	PID int `json:"pid,omitempty"`

	WorktreePath string `json:"worktree_path"`

	StartedAt      time.Time `json:"started_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// Registry is the full persisted document.
type Registry struct {
	Version  int                `json:"version"`
	Sessions map[string]*Record `json:"sessions"`
}

// NewRegistry returns an empty registry at the current document version.
func NewRegistry() *Registry {
	return &Registry{
		Version:  CurrentVersion,
		Sessions: make(map[string]*Record),
	}
}

// Get returns the record for a session name, or nil.
func (r *Registry) Get(name string) *Record {
	return r.Sessions[name]
}

// Put inserts or replaces a record under its name.
func (r *Registry) Put(rec *Record) {
	if r.Sessions == nil {
		r.Sessions = make(map[string]*Record)
	}
	r.Sessions[rec.Name] = rec
}

// Delete removes a record by session name.
func (r *Registry) Delete(name string) {
	delete(r.Sessions, name)
}

// Names returns all registered session names in map order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Sessions))
	for name := range r.Sessions {
		names = append(names, name)
	}
	return names
}

// Status classifies a session's agent liveness. It is derived from the
// process table on demand and never written to disk.
type Status string

const (
	// Unstarted means no agent has ever been spawned for the session.
	Unstarted Status = "unstarted"
	// Running means the recorded PID exists in the process table.
	Running Status = "running"
	// Dead means a PID was recorded but the process is gone.
	Dead Status = "dead"
)

// Prober answers whether a PID exists. It matches process.Prober; the
// indirection keeps this package free of OS concerns in tests.
type Prober interface {
	IsAlive(pid int) bool
}

// Classify derives the liveness status of a single record.
func Classify(rec *Record, prober Prober) Status {
	if rec.PID == 0 {
		return Unstarted
	}
	if prober.IsAlive(rec.PID) {
		return Running
	}
	return Dead
}

// Reconcile maps every record to its derived status. It is a pure read;
// the registry is never mutated or re-persisted as a side effect.
func Reconcile(reg *Registry, prober Prober) map[string]Status {
	statuses := make(map[string]Status, len(reg.Sessions))
	for name, rec := range reg.Sessions {
		statuses[name] = Classify(rec, prober)
	}
	return statuses
}
