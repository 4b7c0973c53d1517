// SPDX-License-Identifier: BSD-3-Clause

// Package file provides atomic file writes for safe, reliable persistence.
//
// ReplaceFile is the package's one operation: write data to a temporary
// file next to the target, then rename it into place, so a reader never
// observes a partially written document and a process that dies mid-write
// leaves the original file intact.
//
//	data, err := json.MarshalIndent(doc, "", "  ")
//	if err != nil {
//		return err
//	}
//	if err := file.ReplaceFile(path, data, 0o644); err != nil {
//		return err
//	}
//
// ReplaceFile does not serialize concurrent writers; last write wins if
// two callers race on the same path. pkg/catalog, the only caller in
// this module, holds its own mutex around every write.
package file
