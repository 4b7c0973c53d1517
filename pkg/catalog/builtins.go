// SPDX-License-Identifier: BSD-3-Clause

package catalog

import "github.com/kilnctl/kilnctl/pkg/program"

// builtinPrograms is the fixed, immutable program set every Catalog
// ships with, ids 1-4. Built-in ids are reserved: user programs are
// always allocated an id above the highest existing id, builtin or
// user (spec.md §4.8), so these never collide with a saved program.
func builtinPrograms() []program.Program {
	return []program.Program{
		{
			ID:     1,
			Name:   "IPS e.max Press",
			Origin: program.OriginBuiltin,
			Steps: []program.Step{
				{TargetTemp: 850, RampMin: 25, DurationMin: 0, HoldMin: 5, VacuumKPa: -90},
			},
		},
		{
			ID:     2,
			Name:   "Zirconia Glaze",
			Origin: program.OriginBuiltin,
			Steps: []program.Step{
				{TargetTemp: 600, RampMin: 20, DurationMin: 0, HoldMin: 1, VacuumKPa: 0},
				{TargetTemp: 960, RampMin: 15, DurationMin: 0, HoldMin: 20, VacuumKPa: 0},
			},
		},
		{
			ID:     3,
			Name:   "Opaque Bake",
			Origin: program.OriginBuiltin,
			Steps: []program.Step{
				{TargetTemp: 600, RampMin: 3, DurationMin: 0, HoldMin: 1, VacuumKPa: -80},
			},
		},
		{
			ID:     4,
			Name:   "Body/Dentin Bake",
			Origin: program.OriginBuiltin,
			Steps: []program.Step{
				{TargetTemp: 650, RampMin: 5, DurationMin: 0, HoldMin: 1, VacuumKPa: -90},
				{TargetTemp: 750, RampMin: 8, DurationMin: 0, HoldMin: 2, VacuumKPa: -90},
				{TargetTemp: 920, RampMin: 4, DurationMin: 0, HoldMin: 3, VacuumKPa: 0},
			},
		},
	}
}
