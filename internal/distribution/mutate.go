package distribution

import (
	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/compose"
	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/pipeline"
)

// =============================================================================
// Component Mutation
// =============================================================================

// AddComponent inserts a pipeline component and its container records in
// lockstep. Containers are keyed by document kind; kinds without a record
// are left untouched. A URL-less component touches the graph only and must
// not carry container records. All changes happen in memory.
func (d *Distribution) AddComponent(group, name string, svc *pipeline.Service, containers map[compose.Kind]*compose.Container) error {
	containerName := d.Pipeline.ResolveContainerName(svc.Connector)
	if containerName == "" && len(containers) > 0 {
		return NewError(d.Name, "add "+group+"."+name, ErrMissingDocument)
	}

	// Stage everything functionally, commit only when every step passed.
	graph, err := d.Pipeline.Services.Add(group, name, svc, false)
	if err != nil {
		return NewError(d.Name, "add", err)
	}

	staged := make(map[compose.Kind]*compose.Document, len(containers))
	for kind, record := range containers {
		doc, ok := d.Docs[kind]
		if !ok {
			return NewError(d.Name, "add "+kind.String(), ErrMissingDocument)
		}
		next, err := doc.Add(containerName, record, false)
		if err != nil {
			return NewError(d.Name, "add", err)
		}
		staged[kind] = next
	}

	d.Pipeline.Services = graph
	for kind, doc := range staged {
		d.Docs[kind] = doc
	}
	return nil
}

// RemoveComponent deletes a pipeline component and drops its container
// identity from every loaded document that defines it. Dangling
// required_previous_services references in other components are left in
// place. All changes happen in memory.
func (d *Distribution) RemoveComponent(group, name string) error {
	svc, err := d.Pipeline.Services.Get(group, name)
	if err != nil {
		return NewError(d.Name, "remove", err)
	}
	containerName := d.Pipeline.ResolveContainerName(svc.Connector)

	graph, err := d.Pipeline.Services.Remove(group, name, false)
	if err != nil {
		return NewError(d.Name, "remove", err)
	}

	d.Pipeline.Services = graph
	if containerName == "" {
		return nil
	}
	for kind, doc := range d.Docs {
		if _, ok := doc.Services[containerName]; !ok {
			continue
		}
		next, err := doc.Remove(containerName, false)
		if err != nil {
			return NewError(d.Name, "remove "+kind.String(), err)
		}
		d.Docs[kind] = next
	}
	return nil
}
