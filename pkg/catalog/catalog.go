// SPDX-License-Identifier: BSD-3-Clause

package catalog

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/kilnctl/kilnctl/pkg/program"
)

// Catalog is the Program Catalog of spec.md §4.8: an immutable built-in
// set plus a mutable user set backed by a JSON document on disk.
type Catalog struct {
	mu       sync.RWMutex
	path     string
	builtins map[int]program.Program
	users    map[int]program.Program
	logger   *slog.Logger
}

// New loads the built-in programs and, if present, the user document at
// path. Invalid entries in the document are skipped with a logged
// warning rather than aborting startup, per spec.md §6.
func New(path string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	builtins := make(map[int]program.Program)
	for _, p := range builtinPrograms() {
		builtins[p.ID] = p
	}

	users, warnings, err := load(path)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		logger.Warn(w)
	}

	return &Catalog{path: path, builtins: builtins, users: users, logger: logger}, nil
}

// List returns every program, built-in and user, ordered by id.
func (c *Catalog) List() []program.Program {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all := make([]program.Program, 0, len(c.builtins)+len(c.users))
	for _, p := range c.builtins {
		all = append(all, p)
	}
	for _, p := range c.users {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// Get returns the program with id, or ErrNotFound.
func (c *Catalog) Get(id int) (program.Program, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if p, ok := c.builtins[id]; ok {
		return p, nil
	}
	if p, ok := c.users[id]; ok {
		return p, nil
	}
	return program.Program{}, fmt.Errorf("%w: id=%d", ErrNotFound, id)
}

// SaveUser validates steps, allocates max(existing ids)+1, persists the
// updated document, and returns the new Program.
func (c *Catalog) SaveUser(name string, steps []program.Step) (program.Program, error) {
	if err := validate(steps); err != nil {
		return program.Program{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextIDLocked()
	p := program.Program{ID: id, Name: name, Steps: steps, Origin: program.OriginUser}
	c.users[id] = p

	if err := save(c.path, c.users); err != nil {
		delete(c.users, id)
		return program.Program{}, err
	}
	return p, nil
}

// DeleteUser removes the user program with id. Builtin ids return
// ErrNotDeletable; unknown ids return ErrNotFound.
func (c *Catalog) DeleteUser(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.builtins[id]; ok {
		return fmt.Errorf("%w: id=%d", ErrNotDeletable, id)
	}
	if _, ok := c.users[id]; !ok {
		return fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}

	deleted := c.users[id]
	delete(c.users, id)
	if err := save(c.path, c.users); err != nil {
		c.users[id] = deleted
		return err
	}
	return nil
}

func (c *Catalog) nextIDLocked() int {
	max := 0
	for id := range c.builtins {
		if id > max {
			max = id
		}
	}
	for id := range c.users {
		if id > max {
			max = id
		}
	}
	return max + 1
}

func validate(steps []program.Step) error {
	if len(steps) == 0 {
		return program.ErrEmptyProgram
	}
	for _, s := range steps {
		if !s.TargetTemp.InRange() {
			return fmt.Errorf("%w: target_temp=%v", program.ErrTemperatureRange, s.TargetTemp)
		}
		if s.DurationMin < 0 || s.HoldMin < 0 || s.RampMin < 0 {
			return program.ErrNegativeDuration
		}
		if s.VacuumKPa > 0 {
			return fmt.Errorf("%w: vacuum_kpa must be <= 0", program.ErrInvalidStep)
		}
	}
	return nil
}
