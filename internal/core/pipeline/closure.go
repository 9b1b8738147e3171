package pipeline

import (
	"strings"
)

// =============================================================================
// Dependency Closure
// =============================================================================

// Closure is the result of expanding a seed set of component names to the
// minimal set closed under previous/required-previous edges.
type Closure struct {
	// Names is the extended flat name list: the seeds plus every
	// transitively required component name and its container identity.
	// Downstream compose-document filtering keys on this list.
	Names []string

	// Config contains only the closed component set, with the connector
	// table and metadata carried over unchanged.
	Config *Config
}

// Contains reports whether name is part of the extended name list.
func (c *Closure) Contains(name string) bool {
	for _, n := range c.Names {
		if n == name {
			return true
		}
	}
	return false
}

// Close expands seeds to their dependency closure over cfg's graph.
//
// A component is seed-matched when its resolved container name, its own
// name, or its underscore/dash-folded name appears in the seed set. Every
// matched component's previous_services and required_previous_services
// entries of the form "<group>.<name>" are followed transitively. A visited
// set guarantees termination even when the requirement edges contain cycles;
// dangling references are skipped rather than repaired.
//
// The three singleton groups and the whole skill_selectors group are
// structurally mandatory and always included, seed or not.
func Close(cfg *Config, seeds []string) *Closure {
	seedSet := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		seedSet[s] = true
	}

	filtered := NewGraph()
	visited := make(map[string]bool)
	names := append([]string(nil), seeds...)
	nameSet := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		nameSet[s] = true
	}

	addName := func(name string) {
		if name != "" && !nameSet[name] {
			nameSet[name] = true
			names = append(names, name)
		}
	}

	include := func(group, name string, svc *Service) bool {
		key := group + "." + name
		if visited[key] {
			return false
		}
		visited[key] = true
		members, _ := filtered.Members(group)
		members[name] = svc.Clone()
		addName(name)
		addName(cfg.ResolveContainerName(svc.Connector))
		return true
	}

	var walk func(svc *Service)
	walk = func(svc *Service) {
		for _, ref := range svc.Requirements() {
			group, name, ok := strings.Cut(ref, ".")
			if !ok {
				continue
			}
			members, isMulti := cfg.Services.Members(group)
			if !isMulti {
				continue
			}
			required, exists := members[name]
			if !exists {
				// dangling reference, documented current behavior
				continue
			}
			if include(group, name, required) {
				walk(required)
			}
		}
	}

	for _, group := range MultiGroups {
		members, _ := cfg.Services.Members(group)
		for _, name := range members.sortedNames() {
			svc := members[name]
			if matchesSeed(cfg, seedSet, name, svc) {
				if include(group, name, svc) {
					walk(svc)
				}
			}
		}
	}

	// Structurally mandatory regardless of the seed.
	filtered.LastChance = cfg.Services.LastChance.Clone()
	filtered.Timeout = cfg.Services.Timeout.Clone()
	filtered.ResponseAnnotatorSelectors = cfg.Services.ResponseAnnotatorSelectors.Clone()
	for _, group := range SingletonGroups {
		if svc, _ := cfg.Services.Singleton(group); svc != nil {
			addName(group)
			addName(cfg.ResolveContainerName(svc.Connector))
		}
	}
	selectors, _ := cfg.Services.Members(GroupSkillSelectors)
	for _, name := range selectors.sortedNames() {
		svc := selectors[name]
		if !visited[GroupSkillSelectors+"."+name] {
			include(GroupSkillSelectors, name, svc)
		}
	}

	out := &Config{
		Services: filtered,
		Metadata: cfg.Metadata.Clone(),
	}
	if cfg.Connectors != nil {
		out.Connectors = make(map[string]*ConnectorSpec, len(cfg.Connectors))
		for name, spec := range cfg.Connectors {
			out.Connectors[name] = spec.Clone()
		}
	}

	return &Closure{Names: names, Config: out}
}

// matchesSeed applies the seed-matching rules for one component.
func matchesSeed(cfg *Config, seedSet map[string]bool, name string, svc *Service) bool {
	if seedSet[name] {
		return true
	}
	if seedSet[strings.ReplaceAll(name, "_", "-")] || seedSet[strings.ReplaceAll(name, "-", "_")] {
		return true
	}
	host := cfg.ResolveContainerName(svc.Connector)
	return host != "" && seedSet[host]
}
