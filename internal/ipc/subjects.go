// SPDX-License-Identifier: BSD-3-Clause

package ipc

import "github.com/kilnctl/kilnctl/pkg/program"

// RequestID is embedded in every mutating command's response so the HTTP
// and NATS surfaces, and the structured log line the Controller emits
// when it applies the command, can all be correlated by one value.
type RequestID struct {
	RequestID string `json:"request_id"`
}

// Subjects used on the embedded bus. Commands are request/reply under the
// kiln.cmd.* hierarchy (also exposed as a nats.go/micro service so the
// NATS CLI and monitoring tools can introspect it); the snapshot is
// broadcast fire-and-forget on kiln.snapshot after every tick, and
// kiln.status answers a pull-style request with the latest one.
const (
	SubjectSnapshot = "kiln.snapshot"
	SubjectStatus   = "kiln.status"

	SubjectCmdPrograms      = "kiln.cmd.programs"
	SubjectCmdStart         = "kiln.cmd.start"
	SubjectCmdStop          = "kiln.cmd.stop"
	SubjectCmdPause         = "kiln.cmd.pause"
	SubjectCmdEmergency     = "kiln.cmd.emergency"
	SubjectCmdTunePID       = "kiln.cmd.pid_tune"
	SubjectCmdSaveProgram   = "kiln.cmd.programs_save"
	SubjectCmdDeleteProgram = "kiln.cmd.programs_delete"
	SubjectCmdClearErrors   = "kiln.cmd.errors_clear"
	SubjectCmdTest          = "kiln.cmd.test"
)

// ErrorResponse is the JSON body returned for any rejected command,
// carrying the same reason string the HTTP adapter turns into a
// 400/404. NotFound distinguishes "no such program" (404) from every
// other rejection (400), per spec.md §6's command table.
type ErrorResponse struct {
	Error    string `json:"error"`
	NotFound bool   `json:"not_found,omitempty"`
}

// StepDoc is a program step in its wire/persisted shape, per spec.md §6:
// "{temp, time, vacuum, hold, ramp}".
type StepDoc struct {
	Temp   float64 `json:"temp"`
	Time   float64 `json:"time"`
	Vacuum float64 `json:"vacuum"`
	Hold   float64 `json:"hold"`
	Ramp   float64 `json:"ramp"`
}

// ProgramDoc is a program in its wire shape.
type ProgramDoc struct {
	ID     int       `json:"id"`
	Name   string    `json:"name"`
	Steps  []StepDoc `json:"steps"`
	Origin string    `json:"origin"`
}

// ProgramToDoc converts a program.Program to its wire shape.
func ProgramToDoc(p program.Program) ProgramDoc {
	steps := make([]StepDoc, len(p.Steps))
	for i, s := range p.Steps {
		steps[i] = StepDoc{
			Temp:   float64(s.TargetTemp),
			Time:   s.DurationMin,
			Vacuum: s.VacuumKPa,
			Hold:   s.HoldMin,
			Ramp:   s.RampMin,
		}
	}
	return ProgramDoc{ID: p.ID, Name: p.Name, Steps: steps, Origin: p.Origin.String()}
}

// StepsFromDocs converts wire steps to the domain type.
func StepsFromDocs(docs []StepDoc) []program.Step {
	steps := make([]program.Step, len(docs))
	for i, d := range docs {
		steps[i] = program.Step{
			TargetTemp:  program.Temperature(d.Temp),
			DurationMin: d.Time,
			VacuumKPa:   d.Vacuum,
			HoldMin:     d.Hold,
			RampMin:     d.Ramp,
		}
	}
	return steps
}

// StartRequest is the payload for SubjectCmdStart.
type StartRequest struct {
	ProgramID int `json:"program_id"`
}

// StartResponse is the payload for a successful start.
type StartResponse struct {
	RequestID
	Started     bool                `json:"started"`
	ProgramName string              `json:"program_name"`
	TotalSteps  int                 `json:"total_steps"`
	FirstTarget program.Temperature `json:"first_target"`
}

// StopResponse is the payload for SubjectCmdStop.
type StopResponse struct {
	RequestID
	Stopped bool `json:"stopped"`
}

// PauseResponse is the payload for SubjectCmdPause.
type PauseResponse struct {
	RequestID
	RunState string `json:"run_state"`
}

// EmergencyResponse is the payload for SubjectCmdEmergency.
type EmergencyResponse struct {
	RequestID
	EmergencyStopped bool `json:"emergency_stopped"`
}

// TunePIDRequest is the payload for SubjectCmdTunePID.
type TunePIDRequest struct {
	Kp float64 `json:"kp"`
	Ki float64 `json:"ki"`
	Kd float64 `json:"kd"`
}

// TunePIDResponse echoes back the applied gains.
type TunePIDResponse struct {
	RequestID
	Kp float64 `json:"kp"`
	Ki float64 `json:"ki"`
	Kd float64 `json:"kd"`
}

// SaveProgramRequest is the payload for SubjectCmdSaveProgram.
type SaveProgramRequest struct {
	Name  string    `json:"name"`
	Steps []StepDoc `json:"steps"`
}

// SaveProgramResponse is the payload for a successful save.
type SaveProgramResponse struct {
	RequestID
	ID      int        `json:"id"`
	Program ProgramDoc `json:"program"`
}

// DeleteProgramRequest is the payload for SubjectCmdDeleteProgram.
type DeleteProgramRequest struct {
	ID int `json:"id"`
}

// DeleteProgramResponse is the payload for a successful delete.
type DeleteProgramResponse struct {
	RequestID
	Deleted bool `json:"deleted"`
}

// ClearErrorsResponse is the payload for SubjectCmdClearErrors.
type ClearErrorsResponse struct {
	RequestID
	OK bool `json:"ok"`
}

// TestRequest is the payload for SubjectCmdTest, naming the single
// actuator/sensor to pulse/read once, per spec.md §6's "POST test/{heater,vacuum,fan,sensors}".
type TestRequest struct {
	Target string `json:"target"`
}

// TestResponse reports the outcome of a one-shot hardware test.
type TestResponse struct {
	RequestID
	Target string `json:"target"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// StatusResponse wraps a Snapshot with the two fields spec.md §6's
// "GET status" adds on top of it.
type StatusResponse struct {
	program.Snapshot
	GPIOAvailable bool  `json:"gpio_available"`
	NowMs         int64 `json:"now_ms"`
}
