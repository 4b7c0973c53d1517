// SPDX-License-Identifier: BSD-3-Clause

// Package catalog implements the Program Catalog & Persistence interface
// of spec.md §4.8: List, Get, SaveUser, and DeleteUser over an immutable
// built-in program set plus a mutable user set backed by a single JSON
// document on disk. The document is rewritten in full on every change
// via pkg/file's atomic temp-file-then-rename primitive, so a crash
// mid-write never leaves a torn or partially-written catalog.
package catalog
