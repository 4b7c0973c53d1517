package catalog_test

import (
	"path/filepath"
	"testing"

	"github.com/kilnctl/kilnctl/pkg/catalog"
	"github.com/kilnctl/kilnctl/pkg/program"
)

func TestListIncludesBuiltinsOrderedByID(t *testing.T) {
	c, err := catalog.New(filepath.Join(t.TempDir(), "catalog.json"), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	all := c.List()
	if len(all) != 4 {
		t.Fatalf("len(List()) = %d, want 4", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Fatalf("List() not sorted by id: %d then %d", all[i-1].ID, all[i].ID)
		}
	}
}

func TestBuiltinDeleteRefused(t *testing.T) {
	c, _ := catalog.New(filepath.Join(t.TempDir(), "catalog.json"), nil)
	if err := c.DeleteUser(1); err == nil {
		t.Fatal("expected deleting a built-in program to fail")
	}
}

func TestSaveUserAllocatesMaxPlusOne(t *testing.T) {
	c, _ := catalog.New(filepath.Join(t.TempDir(), "catalog.json"), nil)

	p, err := c.SaveUser("Test", []program.Step{
		{TargetTemp: 700, DurationMin: 10, HoldMin: 2, RampMin: 5, VacuumKPa: 0},
	})
	if err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	if p.ID != 5 {
		t.Fatalf("SaveUser id = %d, want 5 (max builtin id 4 + 1)", p.ID)
	}

	p2, err := c.SaveUser("Second", []program.Step{{TargetTemp: 600, RampMin: 1, HoldMin: 1}})
	if err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	if p2.ID != 6 {
		t.Fatalf("SaveUser id = %d, want 6", p2.ID)
	}
}

func TestSaveUserRejectsEmptySteps(t *testing.T) {
	c, _ := catalog.New(filepath.Join(t.TempDir(), "catalog.json"), nil)
	if _, err := c.SaveUser("Empty", nil); err == nil {
		t.Fatal("expected SaveUser to reject an empty step list")
	}
}

func TestSaveUserRejectsOutOfRangeTemperature(t *testing.T) {
	c, _ := catalog.New(filepath.Join(t.TempDir(), "catalog.json"), nil)
	_, err := c.SaveUser("TooHot", []program.Step{{TargetTemp: 2000, RampMin: 1}})
	if err == nil {
		t.Fatal("expected SaveUser to reject an out-of-range target temperature")
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")

	c1, err := catalog.New(path, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	saved, err := c1.SaveUser("Test", []program.Step{
		{TargetTemp: 700, DurationMin: 10, HoldMin: 2, RampMin: 5, VacuumKPa: 0},
	})
	if err != nil {
		t.Fatalf("SaveUser: %v", err)
	}

	c2, err := catalog.New(path, nil) // simulates a restart
	if err != nil {
		t.Fatalf("New (restart): %v", err)
	}
	got, err := c2.Get(saved.ID)
	if err != nil {
		t.Fatalf("Get after restart: %v", err)
	}
	if got.Name != "Test" || len(got.Steps) != 1 || got.Steps[0].TargetTemp != 700 {
		t.Fatalf("Get after restart = %+v, want name=Test with one 700°C step", got)
	}
}

func TestDeleteUserThenRestartDoesNotResurrect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	c1, _ := catalog.New(path, nil)
	saved, _ := c1.SaveUser("Temp", []program.Step{{TargetTemp: 500, RampMin: 1}})

	if err := c1.DeleteUser(saved.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	c2, _ := catalog.New(path, nil)
	if _, err := c2.Get(saved.ID); err == nil {
		t.Fatal("expected deleted program to stay deleted across restart")
	}
}

func TestGetUnknownIDReturnsNotFound(t *testing.T) {
	c, _ := catalog.New(filepath.Join(t.TempDir(), "catalog.json"), nil)
	if _, err := c.Get(999); err == nil {
		t.Fatal("expected Get(999) to fail")
	}
}
