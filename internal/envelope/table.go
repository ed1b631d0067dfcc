package envelope

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type routeKey struct {
	schema string
	table  string
}

// Table is the routing allow-list: an explicit mapping from
// (schema, table) pairs to trusted-zone domains, loaded once at startup.
// Unrecognized pairs are not routed to a default; they are dropped.
type Table struct {
	routes map[routeKey]string
	legacy Route
}

// NewTable creates an empty routing table. Bare rows without an envelope
// fall back to the legacy route.
func NewTable(legacy Route) *Table {
	return &Table{
		routes: make(map[routeKey]string),
		legacy: legacy,
	}
}

// Add registers a (schema, table) pair under a domain. Matching is
// case-insensitive; keys are stored lower-cased.
func (t *Table) Add(schema, table, domain string) {
	t.routes[routeKey{strings.ToLower(schema), strings.ToLower(table)}] = domain
}

// Lookup returns the route for a (schema, table) pair, if listed.
func (t *Table) Lookup(schema, table string) (Route, bool) {
	domain, ok := t.routes[routeKey{strings.ToLower(schema), strings.ToLower(table)}]
	if !ok {
		return Route{}, false
	}
	return Route{Domain: domain, Table: strings.ToLower(table)}, true
}

// Len returns the number of listed (schema, table) pairs.
func (t *Table) Len() int {
	return len(t.routes)
}

// Legacy returns the fallback route for bare rows.
func (t *Table) Legacy() Route {
	return t.legacy
}

type routesFile struct {
	Routes []routesFileEntry `yaml:"routes"`
}

type routesFileEntry struct {
	Schema string `yaml:"schema"`
	Table  string `yaml:"table"`
	Domain string `yaml:"domain"`
}

// LoadFile merges route entries from a YAML file into the table. Entries
// with an empty schema, table, or domain are rejected.
func (t *Table) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read routes file: %w", err)
	}

	var f routesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse routes file: %w", err)
	}

	for i, e := range f.Routes {
		if e.Schema == "" || e.Table == "" || e.Domain == "" {
			return fmt.Errorf("routes file entry %d: schema, table, and domain are all required", i)
		}
		t.Add(e.Schema, e.Table, e.Domain)
	}

	return nil
}
