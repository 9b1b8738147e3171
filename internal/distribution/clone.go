package distribution

import (
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/compose"
	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/pipeline"
)

// =============================================================================
// Cloning
// =============================================================================

// CloneOptions carries the metadata of a cloned distribution.
type CloneOptions struct {
	Name        string
	DisplayName string
	Author      string
	Description string
	Now         time.Time
}

// CloneAs deep-copies the distribution under a new name. The agent command's
// pipeline path is rewritten to the new directory, and the metadata block is
// reset to the clone's own identity. Name collisions are not checked here;
// Save enforces them against the filesystem at the moment of writing.
func (d *Distribution) CloneAs(opts CloneOptions) *Distribution {
	out := d.deepCopy()
	out.Name = opts.Name
	out.Path = filepath.Join(out.Root, DistSubdir, opts.Name)

	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	meta := &pipeline.Metadata{
		DisplayName: opts.DisplayName,
		Author:      opts.Author,
		Description: opts.Description,
		DateCreated: now,
	}
	if d.Pipeline.Metadata != nil {
		meta.Version = d.Pipeline.Metadata.Version
		meta.RAMUsage = d.Pipeline.Metadata.RAMUsage
		meta.GPUUsage = d.Pipeline.Metadata.GPUUsage
		meta.DiskUsage = d.Pipeline.Metadata.DiskUsage
	}
	out.Pipeline.Metadata = meta

	for _, doc := range out.Docs {
		if agent, ok := doc.Services[ContainerAgent]; ok {
			rewriteAgentCommand(agent, d.Name, opts.Name)
		}
	}
	return out
}

// rewriteAgentCommand swaps the assistant_dists/<name>/pipeline_conf.json
// path inside the agent command for the new distribution name.
func rewriteAgentCommand(agent *compose.Container, oldName, newName string) {
	oldPath := PipelinePath(oldName)
	newPath := PipelinePath(newName)
	if agent.Command.Shell != "" {
		agent.Command.Shell = strings.ReplaceAll(agent.Command.Shell, oldPath, newPath)
	}
	for i, arg := range agent.Command.Argv {
		agent.Command.Argv[i] = strings.ReplaceAll(arg, oldPath, newPath)
	}
}

// PipelinePath returns the repo-relative pipeline document path the agent
// command references for a distribution name.
func PipelinePath(name string) string {
	return path.Join(DistSubdir, name, PipelineFilename)
}
