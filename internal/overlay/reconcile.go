// Package overlay merges directory pages with the local edit and deletion
// overlays, and encodes those overlays for the local store.
package overlay

import "user-console/internal/domain"

// Reconcile produces the effective view of a fetched page. Records whose id
// is in deleted are dropped; records with an edit entry take first name,
// last name and email from it, keeping id and avatar from the fetched record.
// A blank field in an edit entry falls back to the fetched value. Order is
// preserved and the inputs are left untouched.
func Reconcile(fetched []domain.User, edits map[int64]domain.UserFields, deleted []int64) []domain.User {
	gone := make(map[int64]struct{}, len(deleted))
	for _, id := range deleted {
		gone[id] = struct{}{}
	}

	out := make([]domain.User, 0, len(fetched))
	for _, u := range fetched {
		if _, ok := gone[u.ID]; ok {
			continue
		}
		if edit, ok := edits[u.ID]; ok {
			u.FirstName = pick(edit.FirstName, u.FirstName)
			u.LastName = pick(edit.LastName, u.LastName)
			u.Email = pick(edit.Email, u.Email)
		}
		out = append(out, u)
	}
	return out
}

// Apply is Reconcile against a loaded overlay.
func Apply(fetched []domain.User, ov domain.Overlay) []domain.User {
	return Reconcile(fetched, ov.Edits, ov.Deleted)
}

func pick(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}
