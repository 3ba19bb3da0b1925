package ledger

import (
	"bytes"
	"slices"

	"github.com/gofrs/uuid/v5"
)

// LockOrder returns the accounts a unit of work must hold, in the order they
// must be acquired. Every caller acquires in ascending identifier order no
// matter which side is sender or receiver, so two transfers over the same
// pair can never wait on each other in a cycle. Nil ids are skipped and a
// repeated id is returned once.
func LockOrder(ids ...uuid.UUID) []uuid.UUID {
	ordered := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != uuid.Nil {
			ordered = append(ordered, id)
		}
	}

	slices.SortFunc(ordered, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return slices.Compact(ordered)
}
