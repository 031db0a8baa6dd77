// Package catalog holds the fixed set of chat rooms the service exposes. The
// catalog is immutable after startup; live user counts are derived elsewhere
// and never stored here.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Room describes one chat room. Times are ISO-8601 strings carried verbatim
// from the catalog source.
type Room struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	League      string `json:"league" yaml:"league"`
	KickoffTime string `json:"kickoff_time" yaml:"kickoff_time"`
	Stadium     string `json:"stadium" yaml:"stadium"`
	CreatedAt   string `json:"created_at" yaml:"created_at"`
}

// Catalog is an ordered, id-addressable room list.
type Catalog struct {
	rooms []Room
	byID  map[string]Room
}

// New validates the room list and builds a catalog. Ids must be unique and
// non-empty, names non-empty.
func New(rooms []Room) (*Catalog, error) {
	if len(rooms) == 0 {
		return nil, fmt.Errorf("catalog: no rooms defined")
	}
	byID := make(map[string]Room, len(rooms))
	for _, room := range rooms {
		if room.ID == "" {
			return nil, fmt.Errorf("catalog: room %q has no id", room.Name)
		}
		if room.Name == "" {
			return nil, fmt.Errorf("catalog: room %q has no name", room.ID)
		}
		if _, ok := byID[room.ID]; ok {
			return nil, fmt.Errorf("catalog: duplicate room id %q", room.ID)
		}
		byID[room.ID] = room
	}
	return &Catalog{rooms: append([]Room(nil), rooms...), byID: byID}, nil
}

// Builtin returns the compiled-in catalog.
func Builtin() *Catalog {
	c, err := New([]Room{
		{
			ID:          "room1a2b3c",
			Name:        "Chelsea vs Barca",
			Description: "Live discussion for Chelsea vs Barcelona match",
			League:      "Champions League",
			KickoffTime: "2025-10-16T19:00:00Z",
			Stadium:     "Stamford Bridge",
			CreatedAt:   "2025-10-16T12:00:00Z",
		},
		{
			ID:          "room2d4e5f",
			Name:        "Real Madrid vs Inter",
			Description: "Live discussion for Real Madrid vs Inter Milan match",
			League:      "Champions League",
			KickoffTime: "2025-10-17T19:00:00Z",
			Stadium:     "Santiago Bernabeu",
			CreatedAt:   "2025-10-17T12:00:00Z",
		},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a YAML room list from path. The file replaces the builtin
// catalog wholesale; there is no merging.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var file struct {
		Rooms []Room `yaml:"rooms"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(file.Rooms)
}

// Lookup returns the room with the given id.
func (c *Catalog) Lookup(id string) (Room, bool) {
	room, ok := c.byID[id]
	return room, ok
}

// List returns rooms in catalog order.
func (c *Catalog) List() []Room {
	return append([]Room(nil), c.rooms...)
}

// IDs returns room ids in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.rooms))
	for i, room := range c.rooms {
		ids[i] = room.ID
	}
	return ids
}

// Len returns the number of rooms.
func (c *Catalog) Len() int { return len(c.rooms) }
