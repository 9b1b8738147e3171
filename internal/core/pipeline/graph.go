package pipeline

import (
	"sort"
)

// =============================================================================
// Component Groups
// =============================================================================

// Group names as they appear in pipeline_conf.json.
const (
	GroupLastChance                 = "last_chance_service"
	GroupTimeout                    = "timeout_service"
	GroupResponseAnnotatorSelectors = "response_annotator_selectors"
	GroupAnnotators                 = "annotators"
	GroupResponseAnnotators         = "response_annotators"
	GroupCandidateAnnotators        = "candidate_annotators"
	GroupSkillSelectors             = "skill_selectors"
	GroupSkills                     = "skills"
	GroupResponseSelectors          = "response_selectors"
)

// SingletonGroups hold at most one service and are structurally mandatory:
// the dependency closure always carries them regardless of the seed.
var SingletonGroups = []string{
	GroupLastChance,
	GroupTimeout,
	GroupResponseAnnotatorSelectors,
}

// MultiGroups hold a name-keyed set of services and are the only groups that
// accept add/remove operations. The slice order is the canonical traversal
// order.
var MultiGroups = []string{
	GroupAnnotators,
	GroupResponseAnnotators,
	GroupCandidateAnnotators,
	GroupSkillSelectors,
	GroupSkills,
	GroupResponseSelectors,
}

// ServiceMap is a name-keyed group of services.
type ServiceMap map[string]*Service

// Clone returns a deep copy of the map.
func (m ServiceMap) Clone() ServiceMap {
	if m == nil {
		return nil
	}
	out := make(ServiceMap, len(m))
	for name, svc := range m {
		out[name] = svc.Clone()
	}
	return out
}

func (m ServiceMap) sortedNames() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// =============================================================================
// Graph
// =============================================================================

// Graph is the "services" object of pipeline_conf.json: one field per
// component group. Names are unique within a group but not across groups.
type Graph struct {
	LastChance                 *Service   `json:"last_chance_service,omitempty"`
	Timeout                    *Service   `json:"timeout_service,omitempty"`
	Annotators                 ServiceMap `json:"annotators,omitempty"`
	ResponseAnnotators         ServiceMap `json:"response_annotators,omitempty"`
	ResponseAnnotatorSelectors *Service   `json:"response_annotator_selectors,omitempty"`
	CandidateAnnotators        ServiceMap `json:"candidate_annotators,omitempty"`
	SkillSelectors             ServiceMap `json:"skill_selectors,omitempty"`
	Skills                     ServiceMap `json:"skills,omitempty"`
	ResponseSelectors          ServiceMap `json:"response_selectors,omitempty"`
}

// NewGraph returns an empty graph with all multi-valued groups initialized.
func NewGraph() *Graph {
	return &Graph{
		Annotators:          ServiceMap{},
		ResponseAnnotators:  ServiceMap{},
		CandidateAnnotators: ServiceMap{},
		SkillSelectors:      ServiceMap{},
		Skills:              ServiceMap{},
		ResponseSelectors:   ServiceMap{},
	}
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	return &Graph{
		LastChance:                 g.LastChance.Clone(),
		Timeout:                    g.Timeout.Clone(),
		Annotators:                 g.Annotators.Clone(),
		ResponseAnnotators:         g.ResponseAnnotators.Clone(),
		ResponseAnnotatorSelectors: g.ResponseAnnotatorSelectors.Clone(),
		CandidateAnnotators:        g.CandidateAnnotators.Clone(),
		SkillSelectors:             g.SkillSelectors.Clone(),
		Skills:                     g.Skills.Clone(),
		ResponseSelectors:          g.ResponseSelectors.Clone(),
	}
}

// Members returns the name-keyed member map of a multi-valued group.
func (g *Graph) Members(group string) (ServiceMap, bool) {
	switch group {
	case GroupAnnotators:
		return g.Annotators, true
	case GroupResponseAnnotators:
		return g.ResponseAnnotators, true
	case GroupCandidateAnnotators:
		return g.CandidateAnnotators, true
	case GroupSkillSelectors:
		return g.SkillSelectors, true
	case GroupSkills:
		return g.Skills, true
	case GroupResponseSelectors:
		return g.ResponseSelectors, true
	}
	return nil, false
}

func (g *Graph) setMembers(group string, members ServiceMap) {
	switch group {
	case GroupAnnotators:
		g.Annotators = members
	case GroupResponseAnnotators:
		g.ResponseAnnotators = members
	case GroupCandidateAnnotators:
		g.CandidateAnnotators = members
	case GroupSkillSelectors:
		g.SkillSelectors = members
	case GroupSkills:
		g.Skills = members
	case GroupResponseSelectors:
		g.ResponseSelectors = members
	}
}

// Singleton returns the service of a single-valued group, nil when unset.
func (g *Graph) Singleton(group string) (*Service, bool) {
	switch group {
	case GroupLastChance:
		return g.LastChance, true
	case GroupTimeout:
		return g.Timeout, true
	case GroupResponseAnnotatorSelectors:
		return g.ResponseAnnotatorSelectors, true
	}
	return nil, false
}

// Get looks up a component by group and name. For single-valued groups the
// name is ignored.
func (g *Graph) Get(group, name string) (*Service, error) {
	if svc, ok := g.Singleton(group); ok {
		if svc == nil {
			return nil, NewGraphError(group, name, ErrMissingComponent)
		}
		return svc, nil
	}
	members, ok := g.Members(group)
	if !ok {
		return nil, NewGraphError(group, name, ErrUnknownGroup)
	}
	svc, ok := members[name]
	if !ok {
		return nil, NewGraphError(group, name, ErrMissingComponent)
	}
	return svc, nil
}

// =============================================================================
// Traversal
// =============================================================================

// ComponentRef is one node yielded by graph traversal. Name is "" for
// single-valued groups.
type ComponentRef struct {
	Group   string
	Name    string
	Service *Service
}

// Components traverses the graph deterministically: multi-valued groups in
// canonical group order with members in name order, then the three singleton
// groups.
func (g *Graph) Components() []ComponentRef {
	var out []ComponentRef
	for _, group := range MultiGroups {
		members, _ := g.Members(group)
		for _, name := range members.sortedNames() {
			out = append(out, ComponentRef{Group: group, Name: name, Service: members[name]})
		}
	}
	for _, group := range SingletonGroups {
		if svc, _ := g.Singleton(group); svc != nil {
			out = append(out, ComponentRef{Group: group, Service: svc})
		}
	}
	return out
}

// =============================================================================
// Mutation
// =============================================================================

// Add inserts a component into a multi-valued group. In the functional mode
// (inPlace false) the receiver is left untouched and a modified deep copy is
// returned; closure and filter operations use that mode to stage candidate
// results before committing.
func (g *Graph) Add(group, name string, svc *Service, inPlace bool) (*Graph, error) {
	members, ok := g.Members(group)
	if !ok {
		return nil, NewGraphError(group, name, ErrNotEditableGroup)
	}
	if _, exists := members[name]; exists {
		return nil, NewGraphError(group, name, ErrDuplicateComponent)
	}

	target := g
	if !inPlace {
		target = g.Clone()
	}
	members, _ = target.Members(group)
	if members == nil {
		members = ServiceMap{}
		target.setMembers(group, members)
	}
	members[name] = svc
	return target, nil
}

// Remove deletes a component from a multi-valued group. Dependents that
// still name the removed component in required_previous_services keep their
// dangling references; see the closure resolver, which tolerates them.
func (g *Graph) Remove(group, name string, inPlace bool) (*Graph, error) {
	members, ok := g.Members(group)
	if !ok {
		return nil, NewGraphError(group, name, ErrNotEditableGroup)
	}
	if _, exists := members[name]; !exists {
		return nil, NewGraphError(group, name, ErrMissingComponent)
	}

	target := g
	if !inPlace {
		target = g.Clone()
	}
	members, _ = target.Members(group)
	delete(members, name)
	return target, nil
}
