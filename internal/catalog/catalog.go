package catalog

import (
	"embed"
	"encoding/json"
	"fmt"

	"quietweb/pkg/logger"
)

//go:embed data/*.json
var dataFS embed.FS

// Source is a single entry in the bundled distraction catalog
type Source struct {
	ID    string   `json:"id"`
	Group Group    `json:"group"`
	Name  string   `json:"name"`
	Hosts []string `json:"hosts"`
}

// Catalog holds the bundled distraction sources, loaded once at startup
// and never mutated afterwards.
type Catalog struct {
	sources map[Group][]Source
}

// Load reads every bundled group file. A missing or corrupt group file is
// logged and leaves that group empty rather than failing startup.
func Load(log *logger.Logger) *Catalog {
	c := &Catalog{sources: make(map[Group][]Source)}

	for _, group := range AllGroups() {
		sources, err := readGroup(group)
		if err != nil {
			if log != nil {
				log.Errorf("Failed to load catalog group %q: %v", group, err)
			}
			c.sources[group] = nil
			continue
		}
		c.sources[group] = sources
	}

	return c
}

// readGroup decodes the bundled JSON file for a single group
func readGroup(group Group) ([]Source, error) {
	data, err := dataFS.ReadFile("data/" + group.FileName())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", group.FileName(), err)
	}

	var sources []Source
	if err := json.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("parse %s: %w", group.FileName(), err)
	}
	return sources, nil
}

// Sources returns the sources bundled under a group
func (c *Catalog) Sources(group Group) []Source {
	return c.sources[group]
}

// HostsForSourceIDs returns the union of hosts for every catalog source
// whose id is in the selected set. Selection is keyed strictly off source
// ids; group membership is a display grouping only.
func (c *Catalog) HostsForSourceIDs(sourceIDs map[string]struct{}) map[string]struct{} {
	hosts := make(map[string]struct{})
	if len(sourceIDs) == 0 {
		return hosts
	}

	for _, group := range AllGroups() {
		for _, source := range c.sources[group] {
			if _, ok := sourceIDs[source.ID]; !ok {
				continue
			}
			for _, host := range source.Hosts {
				hosts[host] = struct{}{}
			}
		}
	}
	return hosts
}
