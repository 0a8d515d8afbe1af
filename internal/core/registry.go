package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry   = make(map[string]TableDefinition)
	registryMu sync.RWMutex
)

// Register adds a table definition to the registry.
// Panics if a table with the same key is already registered.
func Register(def TableDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if def.Info.Key == "" {
		panic("table registered without a key")
	}
	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Info.Key))
	}

	if def.Info.Output == "" {
		def.Info.Output = def.Info.Key + ".parquet"
	}

	registry[def.Info.Key] = def
}

// Get returns a table definition by key.
// Returns false if not found.
func Get(key string) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered table definitions in run order.
// Ties are broken by key for consistent ordering.
func All() []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sortDefs(result)
	return result
}

// ByGroup returns all table definitions for a specific group in run order.
func ByGroup(group string) []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var result []TableDefinition
	for _, def := range registry {
		if def.Info.Group == group {
			result = append(result, def)
		}
	}

	sortDefs(result)
	return result
}

// GroupKeys returns the keys of a group's tables in run order. An unknown
// group is reported with the registered group names.
func GroupKeys(group string) ([]string, error) {
	defs := ByGroup(group)
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: %q (groups: %s)", ErrUnknownGroup, group, strings.Join(Groups(), ", "))
	}
	keys := make([]string, len(defs))
	for i, def := range defs {
		keys[i] = def.Info.Key
	}
	return keys, nil
}

// Groups returns all unique group names.
// Sorted alphabetically.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, def := range registry {
		seen[def.Info.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// Resolve returns the definitions for keys in run order. No keys means every
// registered table. Unknown keys are reported together.
func Resolve(keys ...string) ([]TableDefinition, error) {
	if len(keys) == 0 {
		return All(), nil
	}

	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool, len(keys))
	var (
		result  []TableDefinition
		unknown []string
	)
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		def, ok := registry[k]
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		result = append(result, def)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnknownTable, unknown)
	}

	sortDefs(result)
	return result, nil
}

// TableCount returns the number of registered tables.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered tables.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]TableDefinition)
}

func sortDefs(defs []TableDefinition) {
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Info.Order != defs[j].Info.Order {
			return defs[i].Info.Order < defs[j].Info.Order
		}
		return defs[i].Info.Key < defs[j].Info.Key
	})
}
