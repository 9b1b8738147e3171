package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig builds a small but structurally complete pipeline: a weather
// skill requiring a response selector, an unrelated skill, the mandatory
// singletons and one skill selector.
func testConfig() *Config {
	g := NewGraph()

	selector := httpService("http://selector-a:8002/respond")
	g.ResponseSelectors["selector_a"] = selector

	weather := httpService("http://weather-skill:8037/respond")
	weather.RequiredPreviousServices = []string{"response_selectors.selector_a"}
	g.Skills["weather_skill"] = weather

	g.Skills["trivia_skill"] = httpService("http://trivia-skill:8038/respond")

	g.SkillSelectors["rule_based_selector"] = httpService("http://skill-selector:8081/selected_skills")
	g.LastChance = inProcessService("PredefinedTextConnector")
	g.Timeout = inProcessService("PredefinedTextConnector")
	g.ResponseAnnotatorSelectors = httpService("http://response-annotator-selector:8009/respond")

	return &Config{Services: g}
}

// =============================================================================
// Closure Tests
// =============================================================================

func TestClose_ExpandsRequirements(t *testing.T) {
	cfg := testConfig()

	closure := Close(cfg, []string{"weather_skill"})

	assert.True(t, closure.Contains("weather_skill"))
	assert.True(t, closure.Contains("selector_a"))
	assert.True(t, closure.Contains(GroupLastChance))
	assert.True(t, closure.Contains(GroupTimeout))
	assert.True(t, closure.Contains(GroupResponseAnnotatorSelectors))
	assert.True(t, closure.Contains("rule_based_selector"))

	assert.Contains(t, closure.Config.Services.Skills, "weather_skill")
	assert.Contains(t, closure.Config.Services.ResponseSelectors, "selector_a")
	assert.NotContains(t, closure.Config.Services.Skills, "trivia_skill")
	assert.NotNil(t, closure.Config.Services.LastChance)
	assert.NotNil(t, closure.Config.Services.Timeout)
	assert.NotNil(t, closure.Config.Services.ResponseAnnotatorSelectors)
	assert.Contains(t, closure.Config.Services.SkillSelectors, "rule_based_selector")
}

func TestClose_MatchesContainerName(t *testing.T) {
	cfg := testConfig()

	closure := Close(cfg, []string{"weather-skill"})
	assert.Contains(t, closure.Config.Services.Skills, "weather_skill")
}

func TestClose_Superset(t *testing.T) {
	cfg := testConfig()
	seeds := []string{"trivia_skill", "weather_skill"}

	closure := Close(cfg, seeds)
	for _, s := range seeds {
		assert.True(t, closure.Contains(s))
	}
}

func TestClose_Idempotent(t *testing.T) {
	cfg := testConfig()

	once := Close(cfg, []string{"weather_skill"})
	twice := Close(once.Config, once.Names)

	assert.ElementsMatch(t, once.Names, twice.Names)
	assert.Equal(t, once.Config.Services, twice.Config.Services)
}

func TestClose_TerminatesOnCycle(t *testing.T) {
	g := NewGraph()

	a := httpService("http://skill-a:8001/respond")
	a.RequiredPreviousServices = []string{"skills.skill_b"}
	b := httpService("http://skill-b:8002/respond")
	b.RequiredPreviousServices = []string{"skills.skill_a"}
	g.Skills["skill_a"] = a
	g.Skills["skill_b"] = b
	cfg := &Config{Services: g}

	closure := Close(cfg, []string{"skill_a"})
	assert.True(t, closure.Contains("skill_a"))
	assert.True(t, closure.Contains("skill_b"))
}

func TestClose_SkipsDanglingReference(t *testing.T) {
	g := NewGraph()
	skill := httpService("http://weather-skill:8037/respond")
	skill.RequiredPreviousServices = []string{"response_selectors.removed_long_ago", "skill_selectors"}
	g.Skills["weather_skill"] = skill
	cfg := &Config{Services: g}

	closure := Close(cfg, []string{"weather_skill"})
	assert.True(t, closure.Contains("weather_skill"))
	assert.Empty(t, closure.Config.Services.ResponseSelectors)
}

func TestClose_DoesNotMutateSource(t *testing.T) {
	cfg := testConfig()

	closure := Close(cfg, []string{"weather_skill"})
	closure.Config.Services.Skills["weather_skill"].Connector.Inline.URL = "http://mutated:1/x"

	require.Contains(t, cfg.Services.Skills, "trivia_skill")
	assert.Equal(t, "http://weather-skill:8037/respond", cfg.Services.Skills["weather_skill"].Connector.Inline.URL)
}
