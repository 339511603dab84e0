package triage

import "context"

// Store is the persistence interface for the decision audit log.
type Store interface {
	Get(ctx context.Context, id string) (*Decision, bool, error)
	Put(ctx context.Context, d *Decision) error
	List(ctx context.Context, limit int) ([]*Decision, error)
}
