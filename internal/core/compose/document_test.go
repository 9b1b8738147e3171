package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const overrideFixture = `version: '3.7'
services:
  agent:
    command: sh -c 'bin/wait && python -m deeppavlov_agent.run'
    environment:
      WAIT_HOSTS: weather-skill:8037
      WAIT_HOSTS_TIMEOUT: ${WAIT_TIMEOUT:-480}
  weather-skill:
    env_file:
      - .env
    build:
      context: .
      dockerfile: ./skills/weather/Dockerfile
      args:
        SERVICE_PORT: "8037"
    command: gunicorn --workers=2 server:app -b 0.0.0.0:8037
    deploy:
      resources:
        limits:
          memory: 256M
        reservations:
          memory: 256M
`

// =============================================================================
// Parse Tests
// =============================================================================

func TestParseDocument_Override(t *testing.T) {
	doc, err := ParseDocument(KindOverride, []byte(overrideFixture))
	require.NoError(t, err)

	assert.Equal(t, "3.7", doc.Version)
	assert.Equal(t, []string{"agent", "weather-skill"}, doc.ContainerNames())

	skill, err := doc.Get("weather-skill")
	require.NoError(t, err)
	arg, ok := skill.Build.Args.Get("SERVICE_PORT")
	require.True(t, ok)
	assert.Equal(t, "8037", arg)
	assert.Equal(t, "256M", skill.Deploy.Resources.Limits.Memory)
}

func TestParseDocument_RejectsUnknownField(t *testing.T) {
	data := []byte("services:\n  agent:\n    imagee: typo:latest\n")
	_, err := ParseDocument(KindOverride, data)
	require.Error(t, err)

	var docErr *DocumentError
	assert.ErrorAs(t, err, &docErr)
	assert.Equal(t, KindOverride, docErr.Kind)
}

func TestParseDocument_RejectsTopLevelStranger(t *testing.T) {
	data := []byte("services: {}\nnetworks:\n  default: {}\n")
	_, err := ParseDocument(KindDev, data)
	assert.Error(t, err)
}

func TestDocument_MarshalRoundTrip(t *testing.T) {
	doc, err := ParseDocument(KindOverride, []byte(overrideFixture))
	require.NoError(t, err)

	data, err := doc.Marshal()
	require.NoError(t, err)

	back, err := ParseDocument(KindOverride, data)
	require.NoError(t, err)
	assert.Equal(t, doc, back)
}

// =============================================================================
// Mutation Tests
// =============================================================================

func TestDocument_AddRemove(t *testing.T) {
	doc := NewDocument(KindDev)

	got, err := doc.Add("weather-skill", &Container{Ports: []string{"8037:8037"}}, false)
	require.NoError(t, err)
	assert.Contains(t, got.Services, "weather-skill")
	assert.Empty(t, doc.Services, "functional mode must not touch the receiver")

	_, err = got.Add("weather-skill", &Container{}, true)
	assert.ErrorIs(t, err, ErrDuplicateContainer)

	got, err = got.Remove("weather-skill", true)
	require.NoError(t, err)
	assert.Empty(t, got.Services)

	_, err = got.Remove("weather-skill", true)
	assert.ErrorIs(t, err, ErrUnknownContainer)
}

func TestDocument_Filter(t *testing.T) {
	doc, err := ParseDocument(KindOverride, []byte(overrideFixture))
	require.NoError(t, err)

	kept := doc.Filter([]string{"agent", "no-such-container"})
	assert.Equal(t, []string{"agent"}, kept.ContainerNames())

	// independent copy
	kept.Services["agent"].Environment.Set("WAIT_HOSTS", "changed")
	orig, _ := doc.Services["agent"].Environment.Get("WAIT_HOSTS")
	assert.Equal(t, "weather-skill:8037", orig)
}

// =============================================================================
// Validation Tests
// =============================================================================

func TestDocument_Validate_MemoryFormat(t *testing.T) {
	doc := NewDocument(KindOverride)
	doc.Services["skill"] = &Container{
		Deploy: &DeployDefinition{
			Resources: &DeployResources{Limits: &ResourceSpec{Memory: "256 megabytes"}},
		},
	}

	err := doc.Validate()
	assert.ErrorIs(t, err, ErrInvalidMemoryFormat)
}

func TestDocument_Validate_DevForbidsBuildAndDeploy(t *testing.T) {
	doc := NewDocument(KindDev)
	doc.Services["skill"] = &Container{Build: &BuildDefinition{Context: "."}}
	assert.ErrorIs(t, doc.Validate(), ErrForbiddenField)

	doc.Services["skill"] = &Container{Deploy: &DeployDefinition{Replicas: 2}}
	assert.ErrorIs(t, doc.Validate(), ErrForbiddenField)

	doc.Services["skill"] = &Container{Ports: []string{"8037:8037"}, Volumes: []string{"./skills:/src"}}
	assert.NoError(t, doc.Validate())
}

func TestDocument_Validate_ProxyRequiresCommandAndBuild(t *testing.T) {
	doc := NewDocument(KindProxy)
	doc.Services["skill"] = &Container{Command: ShellCommand("nginx -g 'daemon off;'")}
	assert.ErrorIs(t, doc.Validate(), ErrMissingField)

	doc.Services["skill"] = &Container{
		Command: ArgvCommand("nginx", "-g", "daemon off;"),
		Build: &BuildDefinition{
			Context:    "dp/proxy",
			Dockerfile: "Dockerfile",
			Args:       MapForm(map[string]string{"PROXY_PASS": "dream.deeppavlov.ai:8037", "PORT": "8037"}),
		},
	}
	assert.NoError(t, doc.Validate())
}

// =============================================================================
// Loader Cross-Check Tests
// =============================================================================

func TestCheckLoadable(t *testing.T) {
	doc, err := ParseDocument(KindOverride, []byte(overrideFixture))
	require.NoError(t, err)
	data, err := doc.Marshal()
	require.NoError(t, err)

	assert.NoError(t, CheckLoadable(KindOverride, data))
}

func TestCheckLoadable_BadPortBinding(t *testing.T) {
	data := []byte("services:\n  skill:\n    image: x\n    ports:\n      - not-a-port\n")
	assert.Error(t, CheckLoadable(KindDev, data))
}
