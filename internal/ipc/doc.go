// SPDX-License-Identifier: BSD-3-Clause

// Package ipc provides the embedded NATS server kilnd's services connect
// to over an in-process transport (no TCP listener, no external NATS
// dependency), plus the subject names and JSON payload types the
// Controller's command surface and snapshot broadcast use. It mirrors the
// teacher's service/ipc package: a config+options service.Service wrapping
// github.com/nats-io/nats-server/v2, exposing a ConnProvider other
// services dial with nats.InProcessServer.
package ipc
