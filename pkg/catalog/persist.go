// SPDX-License-Identifier: BSD-3-Clause

package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kilnctl/kilnctl/pkg/file"
	"github.com/kilnctl/kilnctl/pkg/program"
)

// documentPerm is the file mode used for the persisted catalog document.
const documentPerm = 0o644

// stepDoc is the on-disk shape of a step, per spec.md §6: "Persisted
// state" — {temp, time, vacuum, hold, ramp}, temperatures in °C, times
// in minutes, vacuum in kPa (≤0).
type stepDoc struct {
	Temp   float64 `json:"temp"`
	Time   float64 `json:"time"`
	Vacuum float64 `json:"vacuum"`
	Hold   float64 `json:"hold"`
	Ramp   float64 `json:"ramp"`
}

// programDoc is one user program as stored in the document.
type programDoc struct {
	ID    int       `json:"id"`
	Name  string    `json:"name"`
	Steps []stepDoc `json:"steps"`
}

// document is the full on-disk catalog document: a single JSON object
// whose "programs" array holds every user program with its id, rewritten
// in full on every save/delete.
type document struct {
	Programs []programDoc `json:"programs"`
}

func toStepDoc(s program.Step) stepDoc {
	return stepDoc{Temp: float64(s.TargetTemp), Time: s.DurationMin, Vacuum: s.VacuumKPa, Hold: s.HoldMin, Ramp: s.RampMin}
}

func fromStepDoc(d stepDoc) program.Step {
	return program.Step{TargetTemp: program.Temperature(d.Temp), DurationMin: d.Time, VacuumKPa: d.Vacuum, HoldMin: d.Hold, RampMin: d.Ramp}
}

func toProgramDoc(p program.Program) programDoc {
	steps := make([]stepDoc, len(p.Steps))
	for i, s := range p.Steps {
		steps[i] = toStepDoc(s)
	}
	return programDoc{ID: p.ID, Name: p.Name, Steps: steps}
}

func fromProgramDoc(d programDoc) program.Program {
	steps := make([]program.Step, len(d.Steps))
	for i, s := range d.Steps {
		steps[i] = fromStepDoc(s)
	}
	return program.Program{ID: d.ID, Name: d.Name, Steps: steps, Origin: program.OriginUser}
}

// load reads the document at path. A missing file is not an error (a
// fresh catalog with no saved programs yet); entries that fail
// validation are skipped with a returned warning rather than aborting.
func load(path string) (map[int]program.Program, []string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[int]program.Program{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: read document: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("catalog: parse document: %w", err)
	}

	users := make(map[int]program.Program, len(doc.Programs))
	var warnings []string
	for _, d := range doc.Programs {
		p := fromProgramDoc(d)
		if err := validate(p.Steps); err != nil {
			warnings = append(warnings, fmt.Sprintf("catalog: skipping invalid program id=%d (%q): %v", d.ID, d.Name, err))
			continue
		}
		users[p.ID] = p
	}
	return users, warnings, nil
}

// save rewrites the document at path with the full contents of users.
func save(path string, users map[int]program.Program) error {
	doc := document{Programs: make([]programDoc, 0, len(users))}
	for _, p := range users {
		doc.Programs = append(doc.Programs, toProgramDoc(p))
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("catalog: marshal document: %w", err)
	}
	if err := file.ReplaceFile(path, data, documentPerm); err != nil {
		return fmt.Errorf("catalog: write document: %w", err)
	}
	return nil
}
