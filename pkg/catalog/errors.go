// SPDX-License-Identifier: BSD-3-Clause

package catalog

import "errors"

var (
	// ErrNotFound indicates no program (builtin or user) exists with the
	// requested id.
	ErrNotFound = errors.New("catalog: program not found")
	// ErrNotDeletable indicates a delete was attempted on a built-in
	// program, which spec.md §4.8 states are immutable.
	ErrNotDeletable = errors.New("catalog: built-in programs cannot be deleted")
)
