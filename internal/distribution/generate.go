package distribution

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/compose"
	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/pipeline"
)

// =============================================================================
// Override Generation
// =============================================================================

// agentCommand builds the agent container command for a distribution name.
func agentCommand(name string) compose.Command {
	return compose.ShellCommand(fmt.Sprintf(
		"sh -c 'bin/wait && python -m deeppavlov_agent.run agent.pipeline_config=%s'",
		PipelinePath(name),
	))
}

// WaitHosts lists every host:port pair of the pipeline's addressable
// components, sorted. The agent blocks on these before starting.
func (d *Distribution) WaitHosts() ([]string, error) {
	seen := map[string]bool{}
	var hosts []string
	for _, ref := range d.Pipeline.Services.Components() {
		container := d.Pipeline.ResolveContainerName(ref.Service.Connector)
		if container == "" || container == ContainerAgent {
			continue
		}
		port, err := d.Pipeline.ServicePort(ref.Service)
		if err != nil {
			return nil, NewError(d.Name, "wait hosts", err)
		}
		if port == 0 {
			continue
		}
		pair := container + ":" + strconv.Itoa(port)
		if !seen[pair] {
			seen[pair] = true
			hosts = append(hosts, pair)
		}
	}
	sort.Strings(hosts)
	return hosts, nil
}

// GenerateOverride synthesizes the override document from the pipeline
// graph: one container per resolved container name, existing records carried
// over, missing ones stubbed, and the agent's WAIT_HOSTS recomputed. The
// receiver's document is replaced in memory.
func (d *Distribution) GenerateOverride() error {
	hosts, err := d.WaitHosts()
	if err != nil {
		return err
	}

	prev := d.Docs[compose.KindOverride]
	next := compose.NewDocument(compose.KindOverride)
	if prev != nil {
		next.Version = prev.Version
	}

	carry := func(name string) *compose.Container {
		if prev != nil {
			if c, ok := prev.Services[name]; ok {
				return c.Clone()
			}
		}
		return nil
	}

	for _, ref := range d.Pipeline.Services.Components() {
		container := d.Pipeline.ResolveContainerName(ref.Service.Connector)
		if container == "" {
			continue
		}
		if _, exists := next.Services[container]; exists {
			continue
		}
		record := carry(container)
		if record == nil {
			record = &compose.Container{EnvFile: compose.StringList{Values: []string{".env"}}}
		}
		next.Services[container] = record
	}

	for _, name := range mandatoryContainers {
		if _, exists := next.Services[name]; exists {
			continue
		}
		record := carry(name)
		if record == nil {
			record = &compose.Container{}
			if name == ContainerAgent {
				record.Command = agentCommand(d.Name)
			}
		}
		next.Services[name] = record
	}

	next.Services[ContainerAgent].Environment.Set("WAIT_HOSTS", strings.Join(hosts, ", "))

	d.Docs[compose.KindOverride] = next
	return nil
}

// =============================================================================
// Local Document Generation
// =============================================================================

// LocalOptions tunes local.yml generation.
type LocalOptions struct {
	// DropPorts strips host port bindings from every container except the
	// agent.
	DropPorts bool
	// SingleReplica pins each container to one replica.
	SingleReplica bool
}

// GenerateLocal builds the local document from the dev and proxy parts: dev
// records win for containers present in both, proxy records fill the rest.
// The result replaces the receiver's local document in memory.
func (d *Distribution) GenerateLocal(opts LocalOptions) error {
	dev, err := d.Doc(compose.KindDev)
	if err != nil {
		return err
	}
	proxy := d.Docs[compose.KindProxy]

	local := compose.NewDocument(compose.KindLocal)
	local.Version = dev.Version

	if proxy != nil {
		for name, c := range proxy.Services {
			local.Services[name] = c.Clone()
		}
	}
	for name, c := range dev.Services {
		local.Services[name] = c.Clone()
	}

	for name, c := range local.Services {
		if opts.DropPorts && name != ContainerAgent {
			c.Ports = nil
		}
		if opts.SingleReplica {
			if c.Deploy == nil {
				c.Deploy = &compose.DeployDefinition{}
			}
			c.Deploy.Mode = "replicated"
			c.Deploy.Replicas = 1
		}
	}

	d.Docs[compose.KindLocal] = local
	return nil
}

// =============================================================================
// DFF Skill Definitions
// =============================================================================

// DFFSkill is the set of records that wire one HTTP skill into a
// distribution: the pipeline service plus its override, dev and proxy
// container definitions.
type DFFSkill struct {
	Name      string
	Container string
	Service   *pipeline.Service
	Override  *compose.Container
	Dev       *compose.Container
	Proxy     *compose.Container
}

// NewDFFSkill synthesizes the definitions for an HTTP skill listening on
// port. The caller decides which documents to attach them to.
func NewDFFSkill(name string, port int) *DFFSkill {
	container := containerIdentity(name)
	portStr := strconv.Itoa(port)
	url := fmt.Sprintf("http://%s:%d/respond", container, port)

	return &DFFSkill{
		Name:      name,
		Container: container,
		Service: &pipeline.Service{
			Connector: pipeline.Connector{Inline: &pipeline.ConnectorSpec{
				Protocol: "http",
				URL:      url,
			}},
			DialogFormatter:    fmt.Sprintf("state_formatters.dp_formatters:%s_formatter", name),
			ResponseFormatter:  "state_formatters.dp_formatters:skill_with_attributes_formatter_service",
			PreviousServices:   []string{pipeline.GroupSkillSelectors},
			StateManagerMethod: "add_hypothesis",
		},
		Override: &compose.Container{
			EnvFile: compose.StringList{Values: []string{".env"}},
			Build: &compose.BuildDefinition{
				Context:    ".",
				Dockerfile: fmt.Sprintf("./skills/%s/Dockerfile", name),
				Args: compose.MapForm(map[string]string{
					"SERVICE_PORT": portStr,
					"SERVICE_NAME": name,
				}),
			},
			Command: compose.ShellCommand(fmt.Sprintf(
				"gunicorn --workers=1 server:app -b 0.0.0.0:%d --reload", port)),
			Deploy: &compose.DeployDefinition{
				Resources: &compose.DeployResources{
					Limits:       &compose.ResourceSpec{Memory: "128M"},
					Reservations: &compose.ResourceSpec{Memory: "128M"},
				},
			},
		},
		Dev: &compose.Container{
			Volumes: []string{fmt.Sprintf("./skills/%s:/src", name), "./common:/src/common"},
			Ports:   []string{portStr + ":" + portStr},
		},
		Proxy: &compose.Container{
			Command: compose.ArgvCommand("nginx", "-g", "daemon off;"),
			Build: &compose.BuildDefinition{
				Context:    "dp/proxy/",
				Dockerfile: "Dockerfile",
				Args: compose.MapForm(map[string]string{
					"PROXY_PASS": "dream.deeppavlov.ai:" + portStr,
					"PORT":       portStr,
				}),
			},
		},
	}
}

// AddDFFSkill wires a skill definition into the pipeline and into every
// loaded document the definition covers.
func (d *Distribution) AddDFFSkill(skill *DFFSkill) error {
	containers := map[compose.Kind]*compose.Container{}
	if _, ok := d.Docs[compose.KindOverride]; ok {
		containers[compose.KindOverride] = skill.Override
	}
	if _, ok := d.Docs[compose.KindDev]; ok {
		containers[compose.KindDev] = skill.Dev
	}
	if _, ok := d.Docs[compose.KindProxy]; ok {
		containers[compose.KindProxy] = skill.Proxy
	}
	return d.AddComponent(pipeline.GroupSkills, skill.Name, skill.Service, containers)
}

func containerIdentity(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}
