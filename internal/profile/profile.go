// Package profile implements the current-profile coordinator: the
// process-wide holder of the active workspace profile. It executes switches
// requested by callers behind an observable, barrier-gated protocol, and
// passively reconciles catalog mutations that touch the current profile.
// The catalog itself (persistence, CRUD, watching) lives in
// internal/catalog; this package only consumes its change batches.
package profile

import (
	"strings"
	"time"
)

// DefaultShortName is the reserved display token for the default profile.
// It is fixed by value; the short-name rules below never produce it for a
// non-default profile on their own.
const DefaultShortName = "*"

// shortNameLen is how many leading name characters the derived short form
// uses.
const shortNameLen = 2

// transientShortPrefix marks transient profiles in short-form displays.
const transientShortPrefix = "T"

// Profile is a named bundle of workspace configuration. Values are
// immutable snapshots: the catalog is the source of truth and ID is the
// durable key, so two snapshots with equal IDs may carry different
// attributes over time.
type Profile struct {
	ID          string    `json:"id" toml:"id"`
	Name        string    `json:"name" toml:"name"`
	ShortName   string    `json:"short_name,omitempty" toml:"short_name,omitempty"`
	IsDefault   bool      `json:"is_default,omitempty" toml:"default,omitempty"`
	IsTransient bool      `json:"is_transient,omitempty" toml:"transient,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero" toml:"created,omitempty"`
}

// Equal reports whether two snapshots match field for field. Timestamps
// compare with time.Time.Equal so wall-clock representation differences
// (monotonic reading, location) don't register as changes.
func (p Profile) Equal(other Profile) bool {
	return p.ID == other.ID &&
		p.Name == other.Name &&
		p.ShortName == other.ShortName &&
		p.IsDefault == other.IsDefault &&
		p.IsTransient == other.IsTransient &&
		p.CreatedAt.Equal(other.CreatedAt)
}

// Short returns the profile's short display form, in precedence order:
//
//  1. the default profile always displays as DefaultShortName
//  2. a user-assigned ShortName is returned verbatim
//  3. a transient profile displays as "T" plus the last character of its
//     name: generated names share a base and differ only in a trailing
//     discriminator, so the last character is the distinguishing one
//  4. anything else displays as the first two characters of its name,
//     upper-cased; shorter names yield whatever characters exist
//
// Short never fails; degenerate inputs (empty name) yield a best-effort
// string. Character handling is rune-wise, not byte-wise.
func (p Profile) Short() string {
	if p.IsDefault {
		return DefaultShortName
	}

	if p.ShortName != "" {
		return p.ShortName
	}

	runes := []rune(p.Name)

	if p.IsTransient {
		if len(runes) == 0 {
			return transientShortPrefix
		}

		return transientShortPrefix + string(runes[len(runes)-1])
	}

	if len(runes) > shortNameLen {
		runes = runes[:shortNameLen]
	}

	return strings.ToUpper(string(runes))
}
