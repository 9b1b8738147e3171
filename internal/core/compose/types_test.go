package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Union Field Tests
// =============================================================================

func TestCommand_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"shell form", "command: gunicorn --workers=2 server:app\n"},
		{"list form", "command:\n    - nginx\n    - -g\n    - daemon off;\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var holder struct {
				Command Command `yaml:"command"`
			}
			require.NoError(t, yaml.Unmarshal([]byte(tt.in), &holder))

			out, err := yaml.Marshal(holder)
			require.NoError(t, err)
			assert.YAMLEq(t, tt.in, string(out))
		})
	}
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "nginx -g daemon off;", ArgvCommand("nginx", "-g", "daemon off;").String())
	assert.Equal(t, "python server.py", ShellCommand("python server.py").String())
	assert.True(t, Command{}.IsZero())
}

func TestMapping_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"map form", "environment:\n    PORT: \"8011\"\n    CUDA_VISIBLE_DEVICES: \"\"\n"},
		{"list form", "environment:\n    - PORT=8011\n    - FLASK_APP=server\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var holder struct {
				Environment Mapping `yaml:"environment"`
			}
			require.NoError(t, yaml.Unmarshal([]byte(tt.in), &holder))

			port, ok := holder.Environment.Get("PORT")
			require.True(t, ok)
			assert.Equal(t, "8011", port)

			out, err := yaml.Marshal(holder)
			require.NoError(t, err)
			assert.YAMLEq(t, tt.in, string(out))
		})
	}
}

func TestMapping_SetPreservesOrder(t *testing.T) {
	m := MapForm(map[string]string{"B": "2", "A": "1"})
	m.Set("C", "3")
	m.Set("A", "one")

	assert.Equal(t, []string{"A", "B", "C"}, m.Keys())
	v, _ := m.Get("A")
	assert.Equal(t, "one", v)
}

func TestStringList_RoundTrip(t *testing.T) {
	var single struct {
		EnvFile StringList `yaml:"env_file"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("env_file: .env\n"), &single))
	assert.Equal(t, []string{".env"}, single.EnvFile.Values)

	out, err := yaml.Marshal(single)
	require.NoError(t, err)
	assert.Equal(t, "env_file: .env\n", string(out))
}

// =============================================================================
// Memory Format Tests
// =============================================================================

func TestValidMemoryFormat(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"256M", true},
		{"2.5G", true},
		{"512m", true},
		{"100b", true},
		{"2k", true},
		{"", true},
		{"256", false},
		{"lots", false},
		{"2.5GB", false},
		{"M256", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidMemoryFormat(tt.value))
		})
	}
}

// =============================================================================
// Clone Tests
// =============================================================================

func TestContainer_Clone_Isolated(t *testing.T) {
	c := &Container{
		Image:       "weather-skill:latest",
		Environment: MapForm(map[string]string{"PORT": "8037"}),
		Ports:       []string{"8037:8037"},
		Deploy: &DeployDefinition{
			Resources: &DeployResources{Limits: &ResourceSpec{Memory: "256M"}},
		},
	}

	clone := c.Clone()
	clone.Environment.Set("PORT", "9999")
	clone.Ports[0] = "1:1"
	clone.Deploy.Resources.Limits.Memory = "1G"

	port, _ := c.Environment.Get("PORT")
	assert.Equal(t, "8037", port)
	assert.Equal(t, "8037:8037", c.Ports[0])
	assert.Equal(t, "256M", c.Deploy.Resources.Limits.Memory)
}
