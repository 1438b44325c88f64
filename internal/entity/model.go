// Package entity defines the in-memory model for rankable business objects:
// entities, their activity histories, and weighted relationship edges.
// Entities are constructed fresh per ranking call from caller-supplied
// snapshots and are never persisted by the engine.
package entity

import (
	"errors"
	"fmt"
	"time"
)

// Batch size limits enforced before any scoring work starts.
const (
	// MaxEntities is the maximum number of entities allowed per ranking call.
	MaxEntities = 1000

	// MaxBatches is the maximum number of batches allowed per batch call.
	MaxBatches = 10
)

// Validation errors.
var (
	ErrEmptyEntities    = errors.New("entity list must not be empty")
	ErrTooManyEntities  = fmt.Errorf("entity list exceeds maximum of %d", MaxEntities)
	ErrTooManyBatches   = fmt.Errorf("batch list exceeds maximum of %d", MaxBatches)
	ErrMissingEntityID  = errors.New("entity id must not be empty")
	ErrUnknownOutcome   = errors.New("activity outcome must be positive, neutral, or negative")
)

// Outcome classifies how an activity went.
type Outcome string

// Valid outcome values.
const (
	OutcomePositive Outcome = "positive"
	OutcomeNeutral  Outcome = "neutral"
	OutcomeNegative Outcome = "negative"
)

// Valid reports whether o is a recognized outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomePositive, OutcomeNeutral, OutcomeNegative:
		return true
	}
	return false
}

// Activity is a single interaction on an entity's timeline.
type Activity struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Outcome    Outcome   `json:"outcome"`
}

// Connection is a directed edge from the owning entity to another entity,
// possibly outside the current batch.
type Connection struct {
	TargetID         string     `json:"target_id"`
	TargetType       string     `json:"target_type,omitempty"`
	RelationshipType string     `json:"relationship_type,omitempty"`
	Strength         *float64   `json:"strength,omitempty"`       // default 1.0 when absent
	EstablishedAt    *time.Time `json:"established_at,omitempty"` // assumed 90 days old when absent
}

// Entity represents a rankable business object (lead, contact, account, deal).
type Entity struct {
	ID             string       `json:"id"`
	Type           string       `json:"type"`
	Name           string       `json:"name"`
	Properties     Properties   `json:"properties,omitempty"`
	Activities     []Activity   `json:"activities,omitempty"`
	Connections    []Connection `json:"connections,omitempty"`
	CreatedAt      time.Time    `json:"created_at,omitempty"`
	LastModifiedAt time.Time    `json:"last_modified_at,omitempty"`
}

// Context carries the optional per-call filter and relevance hint.
// It is never persisted.
type Context struct {
	Query       string   `json:"query,omitempty"`
	EntityTypes []string `json:"entity_types,omitempty"`
}

// TypeAllowed reports whether the given entity type passes the context's
// type filter. An empty filter allows every type.
func (c Context) TypeAllowed(entityType string) bool {
	if len(c.EntityTypes) == 0 {
		return true
	}
	for _, t := range c.EntityTypes {
		if t == entityType {
			return true
		}
	}
	return false
}

// Dedupe removes duplicate entity IDs from the slice, last write wins.
// Relative order of the surviving entries is preserved by first occurrence.
func Dedupe(entities []Entity) []Entity {
	byID := make(map[string]int, len(entities))
	out := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if idx, seen := byID[e.ID]; seen {
			out[idx] = e
			continue
		}
		byID[e.ID] = len(out)
		out = append(out, e)
	}
	return out
}

// ValidateSet checks the size bounds and per-entity invariants of a ranking
// input set. It returns the first violation found.
func ValidateSet(entities []Entity) error {
	if len(entities) == 0 {
		return ErrEmptyEntities
	}
	if len(entities) > MaxEntities {
		return ErrTooManyEntities
	}
	for i, e := range entities {
		if e.ID == "" {
			return fmt.Errorf("entity %d: %w", i, ErrMissingEntityID)
		}
		for j, a := range e.Activities {
			if a.Outcome != "" && !a.Outcome.Valid() {
				return fmt.Errorf("entity %q activity %d: %w", e.ID, j, ErrUnknownOutcome)
			}
		}
	}
	return nil
}
