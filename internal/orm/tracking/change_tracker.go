// Package tracking records which fields of a model instance differ from the
// last loaded or saved snapshot, so a save can send only those values.
package tracking

import (
	"reflect"
	"sort"
)

// Change is one field's baseline and current value
type Change struct {
	Field string
	From  any
	To    any
}

// Tracker compares assignments against a baseline snapshot.
// A zero Tracker is ready to use with an empty baseline.
type Tracker struct {
	baseline map[string]any
	pending  map[string]any
}

// New creates a tracker whose baseline is a copy of snapshot
func New(snapshot map[string]any) *Tracker {
	t := &Tracker{}
	t.Reset(snapshot)
	return t
}

// Reset copies snapshot into the baseline and forgets pending changes.
// Call it after a successful load or save.
func (t *Tracker) Reset(snapshot map[string]any) {
	t.baseline = make(map[string]any, len(snapshot))
	for k, v := range snapshot {
		t.baseline[k] = v
	}
	t.pending = nil
}

// Set records value for field. Assigning the baseline value back clears the change.
func (t *Tracker) Set(field string, value any) {
	if old, ok := t.baseline[field]; ok && same(old, value) {
		delete(t.pending, field)
		return
	}
	if t.pending == nil {
		t.pending = make(map[string]any)
	}
	t.pending[field] = value
}

// Changed reports whether field differs from the baseline
func (t *Tracker) Changed(field string) bool {
	_, ok := t.pending[field]
	return ok
}

// Fields returns the changed field names, sorted
func (t *Tracker) Fields() []string {
	fields := make([]string, 0, len(t.pending))
	for field := range t.pending {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Dirty reports whether anything changed
func (t *Tracker) Dirty() bool {
	return len(t.pending) > 0
}

// Change returns the baseline and current value of field
func (t *Tracker) Change(field string) (Change, bool) {
	to, ok := t.pending[field]
	if !ok {
		return Change{}, false
	}
	return Change{Field: field, From: t.baseline[field], To: to}, true
}

func same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.DeepEqual(a, b)
}
