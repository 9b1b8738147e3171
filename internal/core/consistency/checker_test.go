package consistency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/compose"
	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/connector"
	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/pipeline"
)

func pipelineWith(url string) *pipeline.Config {
	g := pipeline.NewGraph()
	g.Skills["weather_skill"] = &pipeline.Service{
		Connector: pipeline.Connector{Inline: &pipeline.ConnectorSpec{Protocol: "http", URL: url}},
	}
	return &pipeline.Config{Services: g}
}

func overrideWith(port string) *compose.Document {
	doc := compose.NewDocument(compose.KindOverride)
	doc.Services["weather-skill"] = &compose.Container{
		Build: &compose.BuildDefinition{Args: compose.MapForm(map[string]string{"SERVICE_PORT": port})},
	}
	return doc
}

func devWith(binding string) *compose.Document {
	doc := compose.NewDocument(compose.KindDev)
	doc.Services["weather-skill"] = &compose.Container{Ports: []string{binding}}
	return doc
}

// =============================================================================
// Checker Tests
// =============================================================================

func TestCheck_Consistent(t *testing.T) {
	cfg := pipelineWith("http://weather-skill:8080/respond")
	docs := map[compose.Kind]*compose.Document{
		compose.KindOverride: overrideWith("8080"),
		compose.KindDev:      devWith("8080:8080"),
	}

	report, err := Check(cfg, docs)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.NoError(t, report.Err())
}

func TestCheck_CrossDocumentMismatch(t *testing.T) {
	cfg := pipelineWith("http://weather-skill:8080/respond")
	docs := map[compose.Kind]*compose.Document{
		compose.KindOverride: overrideWith("8080"),
		compose.KindDev:      devWith("8081:8081"),
	}

	report, err := Check(cfg, docs)
	require.NoError(t, err)
	require.Len(t, report.Mismatches, 1)

	m := report.Mismatches[0]
	assert.Equal(t, CrossDocumentPortMismatch, m.Kind)
	assert.Equal(t, compose.KindDev, m.Document)
	assert.Equal(t, "weather-skill", m.Component)
	assert.Contains(t, m.Detail, "8080")
	assert.Contains(t, m.Detail, "8081")

	assert.ErrorIs(t, report.Err(), ErrInconsistent)
}

// The container side of a dev binding is what counts, not the host side.
func TestCheck_BindingComparesTargetPort(t *testing.T) {
	cfg := pipelineWith("http://weather-skill:9090/respond")
	docs := map[compose.Kind]*compose.Document{
		compose.KindDev: devWith("8080:9090"),
	}

	report, err := Check(cfg, docs)
	require.NoError(t, err)
	assert.True(t, report.OK())
}

func TestCheck_AmbiguousDeclaration(t *testing.T) {
	cfg := pipelineWith("http://weather-skill:8080/respond")

	doc := compose.NewDocument(compose.KindOverride)
	doc.Services["weather-skill"] = &compose.Container{
		Build:   &compose.BuildDefinition{Args: compose.MapForm(map[string]string{"SERVICE_PORT": "8080"})},
		Command: compose.ShellCommand("gunicorn server:app -b 0.0.0.0:9999"),
	}

	report, err := Check(cfg, map[compose.Kind]*compose.Document{compose.KindOverride: doc})
	require.NoError(t, err)
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, AmbiguousPortDeclaration, report.Mismatches[0].Kind)
}

func TestCheck_SkipsURLLessComponents(t *testing.T) {
	g := pipeline.NewGraph()
	g.LastChance = &pipeline.Service{
		Connector: pipeline.Connector{Inline: &pipeline.ConnectorSpec{Protocol: "python", ClassName: "PredefinedTextConnector"}},
	}
	cfg := &pipeline.Config{Services: g}

	report, err := Check(cfg, map[compose.Kind]*compose.Document{
		compose.KindOverride: overrideWith("8080"),
	})
	require.NoError(t, err)
	assert.True(t, report.OK())
}

// A URL with an unparseable port segment fails the check outright. A clean
// report for a component that could not be compared would be a lie.
func TestCheck_UnparseablePipelinePortFails(t *testing.T) {
	cfg := pipelineWith("http://weather-skill:${SERVICE_PORT}/respond")
	docs := map[compose.Kind]*compose.Document{
		compose.KindOverride: overrideWith("8080"),
	}

	report, err := Check(cfg, docs)
	require.Error(t, err)
	assert.ErrorIs(t, err, connector.ErrPortParse)
	assert.Contains(t, err.Error(), "skills.weather_skill")
	assert.Nil(t, report)
}

func TestCheck_SkipsAbsentContainers(t *testing.T) {
	cfg := pipelineWith("http://weather-skill:8080/respond")
	docs := map[compose.Kind]*compose.Document{
		compose.KindProxy: compose.NewDocument(compose.KindProxy),
	}

	report, err := Check(cfg, docs)
	require.NoError(t, err)
	assert.True(t, report.OK())
}
