package ratecard

// Action is the write a bulk upload row turns into
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionNoop   Action = "noop"
)

// Reconcile decides how incoming relates to the stored entry with the same natural key.
// existing is nil when nothing is stored under the key.
func Reconcile(existing, incoming *Entry) Action {
	if existing == nil {
		return ActionCreate
	}
	if !existing.Rate.Equal(incoming.Rate) {
		return ActionUpdate
	}
	if existing.Currency != incoming.Currency {
		return ActionUpdate
	}
	if !equalPtr(existing.CountryCode, incoming.CountryCode) {
		return ActionUpdate
	}
	if !equalPtr(existing.VolumeTierEnd, incoming.VolumeTierEnd) {
		return ActionUpdate
	}
	return ActionNoop
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
