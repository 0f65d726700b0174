package intersection

import "context"

// Store is the persistence port behind the registry. It holds one snapshot of
// the whole ordered collection; Save overwrites whatever was stored before.
type Store interface {
	Load(ctx context.Context) ([]Intersection, error)
	Save(ctx context.Context, items []Intersection) error
}

// ChangeKind names the registry mutation that produced a Change.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
	ChangeLoaded  ChangeKind = "loaded"
)

// Change describes one registry mutation. Record is the affected record (the
// removed one for deletes, zero for loads); All is the full collection after it.
type Change struct {
	Kind   ChangeKind
	Record Intersection
	All    []Intersection
}

// ChangeListener is notified synchronously after every mutation, in mutation
// order. Listeners must not call back into the registry.
type ChangeListener interface {
	IntersectionsChanged(ctx context.Context, change Change)
}

// ChangeListenerFunc adapts a function to ChangeListener.
type ChangeListenerFunc func(ctx context.Context, change Change)

func (f ChangeListenerFunc) IntersectionsChanged(ctx context.Context, change Change) {
	f(ctx, change)
}
