// Package project persists timelines: named saves, the single-slot autosave
// that crash recovery restores, and the record of which project was open
// last.
package project

import "time"

type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Revision  int64     `json:"revision"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Document is the serialized timeline snapshot. List omits it.
	Document []byte `json:"-"`
}

// Autosave is the one recovery slot. Every write replaces it.
type Autosave struct {
	Revision int64
	Document []byte
	SavedAt  time.Time
}
