package items

const (
	maxTodoPriority     = 5
	maxShoppingUrgency  = 3
	defaultTodoPriority = 3
	defaultUrgency      = 2
)

// PriorityRange returns the closed range of priority values for a kind.
// ok is false for kinds without a priority.
func PriorityRange(k Kind) (lo, hi int, ok bool) {
	switch k {
	case KindTodo:
		return 1, maxTodoPriority, true
	case KindShopping:
		return 1, maxShoppingUrgency, true
	}
	return 0, 0, false
}

// DefaultPriority is what an out-of-range input falls back to
func DefaultPriority(k Kind) int {
	switch k {
	case KindTodo:
		return defaultTodoPriority
	case KindShopping:
		return defaultUrgency
	}
	return 0
}

// CoercePriority keeps v when it is inside the kind's range, otherwise the default
func CoercePriority(k Kind, v int) int {
	lo, hi, ok := PriorityRange(k)
	if !ok {
		return 0
	}
	if v < lo || v > hi {
		return DefaultPriority(k)
	}
	return v
}

// CyclePriority advances v by one and wraps from the maximum back to 1.
// Values outside the range restart at 1.
func CyclePriority(k Kind, v int) int {
	lo, hi, ok := PriorityRange(k)
	if !ok {
		return 0
	}
	if v < lo || v >= hi {
		return lo
	}
	return v + 1
}
