// Package snapshot maps a set of named state cells to a plain record and back.
//
// A field is one of:
//
//   - a Value cell: a single mutable reference, restored by replacement
//   - a Struct cell: a structured value, restored by shallow merge in place
//   - anything else: a caller-managed plain value, copied out on serialize
//     and left alone on restore and reset
//
// The mapper does not depend on the persistence coordinator; any store that
// keeps its persisted fields in cells can use it to implement
// SerializeState and RestoreState.
package snapshot
