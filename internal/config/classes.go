package config

import (
	"fmt"
	"sort"
)

// ClassEntry maps an annotation class name to a YOLO class id.
type ClassEntry struct {
	Name string `yaml:"name"`
	ID   int    `yaml:"id"`
}

// DefaultClasses is the class list of the ant colony labeling project.
// "uncategorized" is left out on purpose so those objects never reach training data.
func DefaultClasses() []ClassEntry {
	return []ClassEntry{
		{Name: "ant", ID: 0},
		{Name: "ant-head", ID: 1},
		{Name: "trophallaxis-ant", ID: 2},
		{Name: "larva", ID: 3},
		{Name: "trophallaxis-larva", ID: 4},
		{Name: "food-noise", ID: 5},
		{Name: "pupa", ID: 6},
		{Name: "barcode", ID: 7},
	}
}

// ClassTable is an immutable two-way mapping between class names and ids.
type ClassTable struct {
	ids   map[string]int
	names map[int]string
}

// NewClassTable validates entries and builds a table. Names and ids must be unique.
func NewClassTable(entries []ClassEntry) (ClassTable, error) {
	if len(entries) == 0 {
		return ClassTable{}, fmt.Errorf("at least one class is required")
	}
	t := ClassTable{ids: make(map[string]int, len(entries)), names: make(map[int]string, len(entries))}
	for _, e := range entries {
		if e.Name == "" {
			return ClassTable{}, fmt.Errorf("class with id %d has no name", e.ID)
		}
		if e.ID < 0 {
			return ClassTable{}, fmt.Errorf("class %q has negative id %d", e.Name, e.ID)
		}
		if _, dup := t.ids[e.Name]; dup {
			return ClassTable{}, fmt.Errorf("class %q listed twice", e.Name)
		}
		if other, dup := t.names[e.ID]; dup {
			return ClassTable{}, fmt.Errorf("classes %q and %q share id %d", other, e.Name, e.ID)
		}
		t.ids[e.Name] = e.ID
		t.names[e.ID] = e.Name
	}
	return t, nil
}

// ClassTable builds the table from the configured classes.
func (c *Config) ClassTable() (ClassTable, error) {
	return NewClassTable(c.Classes)
}

// ID returns the class id for a name.
func (t ClassTable) ID(name string) (int, bool) {
	id, ok := t.ids[name]
	return id, ok
}

// Name returns the class name for an id.
func (t ClassTable) Name(id int) (string, bool) {
	name, ok := t.names[id]
	return name, ok
}

// Len returns the number of classes.
func (t ClassTable) Len() int { return len(t.ids) }

// Entries returns the table sorted by id.
func (t ClassTable) Entries() []ClassEntry {
	out := make([]ClassEntry, 0, len(t.ids))
	for name, id := range t.ids {
		out = append(out, ClassEntry{Name: name, ID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
