package compose

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/docker/go-connections/nat"
)

// =============================================================================
// Port Discovery
// =============================================================================

// PortSource names where a port declaration was found inside a container
// record.
type PortSource string

const (
	SourceBuildArg    PortSource = "build.args"
	SourceCommand     PortSource = "command"
	SourceEnvironment PortSource = "environment"
	SourcePortBinding PortSource = "ports"
)

// PortFinding is one discovered port declaration.
type PortFinding struct {
	Source PortSource
	Detail string
	Port   int
}

// buildArgPortKeys are the build arguments that conventionally carry the
// service port.
var buildArgPortKeys = []string{"SERVICE_PORT", "PORT"}

var (
	commandPortRegex = regexp.MustCompile(`(?:^|\s)(?:-p|--port)[\s=](\d{2,5})(?:\s|$)`)
	commandBindRegex = regexp.MustCompile(`0\.0\.0\.0:(\d{2,5})`)
)

// DiscoverPorts extracts every port declaration from a container record.
// Extraction is best effort: values that do not parse as ports yield no
// finding rather than an error. The consistency checker interprets the
// findings; this function only collects them.
func DiscoverPorts(c *Container) []PortFinding {
	var findings []PortFinding

	if c.Build != nil {
		for _, key := range buildArgPortKeys {
			if v, ok := c.Build.Args.Get(key); ok {
				if port, ok := parsePort(v); ok {
					findings = append(findings, PortFinding{
						Source: SourceBuildArg,
						Detail: key,
						Port:   port,
					})
				}
			}
		}
	}

	findings = append(findings, commandFindings(c.Command)...)
	findings = append(findings, commandFindings(c.Entrypoint)...)

	for _, key := range c.Environment.Keys() {
		v, _ := c.Environment.Get(key)
		switch key {
		case "PORT":
			if port, ok := parsePort(v); ok {
				findings = append(findings, PortFinding{
					Source: SourceEnvironment,
					Detail: key,
					Port:   port,
				})
			}
		case "PROXY_PASS":
			// host:port upstream address
			if _, after, ok := strings.Cut(v, ":"); ok {
				if port, ok := parsePort(after); ok {
					findings = append(findings, PortFinding{
						Source: SourceEnvironment,
						Detail: key,
						Port:   port,
					})
				}
			}
		}
	}

	for _, spec := range c.Ports {
		mappings, err := nat.ParsePortSpec(spec)
		if err != nil {
			continue
		}
		for _, m := range mappings {
			if port, ok := parsePort(m.Port.Port()); ok {
				findings = append(findings, PortFinding{
					Source: SourcePortBinding,
					Detail: spec,
					Port:   port,
				})
			}
		}
	}

	return findings
}

func commandFindings(cmd Command) []PortFinding {
	text := cmd.String()
	if text == "" {
		return nil
	}
	var findings []PortFinding
	if m := commandPortRegex.FindStringSubmatch(text); m != nil {
		if port, ok := parsePort(m[1]); ok {
			findings = append(findings, PortFinding{
				Source: SourceCommand,
				Detail: strings.TrimSpace(m[0]),
				Port:   port,
			})
		}
	}
	if m := commandBindRegex.FindStringSubmatch(text); m != nil {
		if port, ok := parsePort(m[1]); ok {
			findings = append(findings, PortFinding{
				Source: SourceCommand,
				Detail: m[0],
				Port:   port,
			})
		}
	}
	return findings
}

func parsePort(s string) (int, bool) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port <= 0 || port > 65535 {
		return 0, false
	}
	return port, true
}
