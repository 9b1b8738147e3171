package deploy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/compose"
	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/pipeline"
	"github.com/deeppavlov/deeppavlov-dreamtools/internal/distribution"
)

func namespacedFixture() *distribution.Distribution {
	g := pipeline.NewGraph()
	g.Skills["weather_skill"] = &pipeline.Service{
		Connector: pipeline.Connector{Inline: &pipeline.ConnectorSpec{
			Protocol: "http",
			URL:      "http://weather-skill:8037/respond",
		}},
	}
	g.Annotators["sentseg"] = &pipeline.Service{
		Connector: pipeline.Connector{Ref: "connectors.sentseg"},
	}
	cfg := &pipeline.Config{
		Connectors: map[string]*pipeline.ConnectorSpec{
			"sentseg": {Protocol: "http", URL: "http://sentseg:8011/sentseg"},
		},
		Services: g,
	}

	override := compose.NewDocument(compose.KindOverride)
	agent := &compose.Container{}
	agent.Environment.Set("WAIT_HOSTS", "sentseg:8011, weather-skill:8037")
	override.Services[distribution.ContainerAgent] = agent
	override.Services[distribution.ContainerMongo] = &compose.Container{Image: "mongo:4.0.0"}
	override.Services["weather-skill"] = &compose.Container{Image: "dream/weather-skill"}
	override.Services["sentseg"] = &compose.Container{Image: "dream/sentseg"}

	return distribution.New("/dream", "dream_weather", cfg, map[compose.Kind]*compose.Document{
		compose.KindOverride: override,
	})
}

// =============================================================================
// Namespacing Tests
// =============================================================================

func TestNamespace_RewritesEverythingInLockstep(t *testing.T) {
	dist := namespacedFixture()

	got, err := Namespace(dist, "user42_")
	require.NoError(t, err)

	skill := got.Pipeline.Services.Skills["weather_skill"]
	assert.Equal(t, "http://user42_weather-skill:8037/respond", skill.Connector.Inline.URL)
	assert.Equal(t, "http://user42_sentseg:8011/sentseg", got.Pipeline.Connectors["sentseg"].URL)

	override := got.Docs[compose.KindOverride]
	assert.Contains(t, override.Services, "user42_weather-skill")
	assert.Contains(t, override.Services, "user42_sentseg")
	assert.Contains(t, override.Services, distribution.ContainerAgent)
	assert.Contains(t, override.Services, distribution.ContainerMongo)
	assert.NotContains(t, override.Services, "weather-skill")

	wait, _ := override.Services[distribution.ContainerAgent].Environment.Get("WAIT_HOSTS")
	assert.Equal(t, "user42_sentseg:8011, user42_weather-skill:8037", wait)
}

func TestNamespace_DoesNotMutateSource(t *testing.T) {
	dist := namespacedFixture()

	_, err := Namespace(dist, "user42_")
	require.NoError(t, err)

	skill := dist.Pipeline.Services.Skills["weather_skill"]
	assert.Equal(t, "http://weather-skill:8037/respond", skill.Connector.Inline.URL)
	assert.Contains(t, dist.Docs[compose.KindOverride].Services, "weather-skill")
}
