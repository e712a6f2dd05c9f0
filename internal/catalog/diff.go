package catalog

import "github.com/tonimelisma/profilectl/internal/profile"

// Diff computes the change batch that turns previous into next. Identity
// is the profile ID: an id present only in next is added, present only in
// previous is removed, and present in both with any field difference is
// updated. Added and Updated follow next's order (catalog order, which the
// coordinator's first-match rule depends on); Removed follows previous's
// order.
func Diff(previous, next []profile.Profile) profile.ChangeSet {
	prevByID := make(map[string]profile.Profile, len(previous))
	for _, p := range previous {
		prevByID[p.ID] = p
	}

	nextIDs := make(map[string]bool, len(next))

	var changes profile.ChangeSet

	for _, p := range next {
		nextIDs[p.ID] = true

		old, ok := prevByID[p.ID]
		switch {
		case !ok:
			changes.Added = append(changes.Added, p)
		case !old.Equal(p):
			changes.Updated = append(changes.Updated, p)
		}
	}

	for _, p := range previous {
		if !nextIDs[p.ID] {
			changes.Removed = append(changes.Removed, p.ID)
		}
	}

	return changes
}
