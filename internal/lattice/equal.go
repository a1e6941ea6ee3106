package lattice

import "reflect"

// revealEqual compares two revealed values. Revealed values are always one
// of: []byte, int64, [][]byte (sorted), map[string]int64, or a
// map[string]any whose values are themselves of those shapes, so
// reflect.DeepEqual is exact and cheap enough.
func revealEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
