// SPDX-License-Identifier: BSD-3-Clause

package tcreader

import "errors"

// ErrBusError describes a frame that reads as all-ones or all-zeros. No
// function in this package returns it: decodeFrame reports that case as
// a Sample faulted with FaultBusError, so a single channel fault does not
// abort the other channel's read.
var ErrBusError = errors.New("tcreader: all-ones or all-zeros frame")
