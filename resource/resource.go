// Package resource names the resources that role assignments and direct
// grants can be scoped to.
package resource

import (
	"errors"
	"fmt"
)

// ErrInvalid is returned for a malformed resource reference.
var ErrInvalid = errors.New("rampart: invalid resource")

// Type is the kind of scoped resource.
type Type string

const (
	// Project is a single project inside an organization.
	Project Type = "project"

	// Team is a single team inside an organization.
	Team Type = "team"
)

// Types lists every scoped resource type.
func Types() []Type { return []Type{Project, Team} }

// Valid reports whether t is a known resource type.
func (t Type) Valid() bool {
	return t == Project || t == Team
}

// Ref points at one concrete resource.
type Ref struct {
	Type Type   `json:"type"`
	ID   string `json:"id"`
}

// New is a convenience constructor.
func New(t Type, resourceID string) *Ref {
	return &Ref{Type: t, ID: resourceID}
}

// Validate checks the type and that an id is present.
func (r Ref) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalid, string(r.Type))
	}
	if r.ID == "" {
		return fmt.Errorf("%w: missing %s id", ErrInvalid, r.Type)
	}
	return nil
}

func (r Ref) String() string { return string(r.Type) + ":" + r.ID }
