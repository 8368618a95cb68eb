package entry

import "github.com/google/uuid"

// Ref is how an entry points at a project. It is one of ByID, ByName,
// Resolved or None; consumers switch over all four.
type Ref interface {
	isRef()
}

// ByID carries only an identifier; the name is unknown.
type ByID struct {
	ID uuid.UUID
}

// ByName carries only a free-text name captured before identifiers existed.
type ByName struct {
	Name string
}

// Resolved carries both. Name is a cached copy and may be stale.
type Resolved struct {
	ID   uuid.UUID
	Name string
}

// None has neither. Only legacy rows can be in this state.
type None struct{}

func (ByID) isRef()     {}
func (ByName) isRef()   {}
func (Resolved) isRef() {}
func (None) isRef()     {}

// Ref derives the reference of e. An empty name counts as absent.
func (e Entry) Ref() Ref {
	hasName := e.ProjectName != nil && *e.ProjectName != ""
	switch {
	case e.ProjectID != nil && hasName:
		return Resolved{ID: *e.ProjectID, Name: *e.ProjectName}
	case e.ProjectID != nil:
		return ByID{ID: *e.ProjectID}
	case hasName:
		return ByName{Name: *e.ProjectName}
	default:
		return None{}
	}
}

// WithRef returns a copy of e pointing at ref.
func (e Entry) WithRef(ref Ref) Entry {
	e.ProjectID, e.ProjectName = nil, nil
	switch r := ref.(type) {
	case ByID:
		id := r.ID
		e.ProjectID = &id
	case ByName:
		name := r.Name
		e.ProjectName = &name
	case Resolved:
		id, name := r.ID, r.Name
		e.ProjectID, e.ProjectName = &id, &name
	case None:
	}
	return e
}

// CachedName is the name stored on the reference, if any.
func CachedName(ref Ref) (string, bool) {
	switch r := ref.(type) {
	case ByName:
		return r.Name, true
	case Resolved:
		return r.Name, true
	case ByID, None:
		return "", false
	}
	return "", false
}

// New builds an entry from a reference.
func New(ref Ref, hours float64, description string) Entry {
	return Entry{Hours: hours, Description: description}.WithRef(ref)
}
