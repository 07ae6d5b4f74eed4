package model

import "context"

// Row is one record as exchanged with a backend, keyed by field name
type Row map[string]any

// Clone returns a shallow copy of the row
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table identifies where a model's records live
type Table struct {
	Name    string
	IDField string
}

// Persistence is the narrow contract a backend must honor.
//
// Load and LoadBy return an error wrapping ErrNotFound when nothing matches.
// Update and Delete return an error wrapping ErrNotFound when the record is
// gone. Insert returns the identity assigned to the new record.
type Persistence interface {
	Load(ctx context.Context, t Table, id any) (Row, error)
	LoadBy(ctx context.Context, t Table, field string, value any) (Row, error)
	Insert(ctx context.Context, t Table, row Row) (any, error)
	Update(ctx context.Context, t Table, id any, row Row) error
	Delete(ctx context.Context, t Table, id any) error
}
