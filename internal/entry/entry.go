// Package entry defines a task log line item and the project reference it carries.
package entry

import (
	"database/sql/driver"
	"fmt"

	json "github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// Entry is one line item of a task log. ProjectName is a cached copy of the
// project's name at the last resolution and is not authoritative once
// ProjectID is set. Use Ref to inspect the reference.
type Entry struct {
	ProjectID   *uuid.UUID `json:"project_id,omitempty"`
	ProjectName *string    `json:"project_name,omitempty"`
	Description string     `json:"description,omitempty"`
	Hours       float64    `json:"hours"`
}

// Entries is stored as a JSONB array.
type Entries []Entry

// Scan implements the sql.Scanner interface for database/sql
func (e *Entries) Scan(value interface{}) error {
	if value == nil {
		*e = Entries{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Entries", value)
	}

	var entries []Entry
	if err := json.Unmarshal(bytes, &entries); err != nil {
		return err
	}
	if entries == nil {
		entries = []Entry{}
	}
	*e = entries
	return nil
}

// Value implements the driver.Valuer interface for database/sql
func (e Entries) Value() (driver.Value, error) {
	if e == nil {
		return []byte("[]"), nil
	}
	b, err := json.Marshal([]Entry(e))
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Clone returns a deep copy so callers can rewrite entries without touching the original.
func (e Entries) Clone() Entries {
	if e == nil {
		return nil
	}
	out := make(Entries, len(e))
	for i, en := range e {
		out[i] = en.clone()
	}
	return out
}

func (e Entry) clone() Entry {
	if e.ProjectID != nil {
		id := *e.ProjectID
		e.ProjectID = &id
	}
	if e.ProjectName != nil {
		name := *e.ProjectName
		e.ProjectName = &name
	}
	return e
}

// Hours sums the hours of all entries.
func (e Entries) Hours() float64 {
	var total float64
	for _, en := range e {
		total += en.Hours
	}
	return total
}
