package common

import "strconv"

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// IndexedName returns name, or "<kind>_<index>" when name is empty. Unnamed asset entries get
// stable generated names this way.
//
// Parameters:
//   - name: the declared name, possibly empty
//   - kind: the entry kind used as the generated prefix (e.g. "node")
//   - index: the entry's position in its array
//
// Returns:
//   - string: the name to use
func IndexedName(name, kind string, index int) string {
	return Coalesce(name, kind+"_"+strconv.Itoa(index))
}
