package connector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Parse Tests
// =============================================================================

func TestParse_FullURL(t *testing.T) {
	host, port, endpoint, err := Parse("http://my-service:8080/respond")
	require.NoError(t, err)
	assert.Equal(t, "my-service", host)
	assert.Equal(t, "8080", port)
	assert.Equal(t, "respond", endpoint)
}

func TestParse_NoEndpoint(t *testing.T) {
	host, port, endpoint, err := Parse("http://sentseg:8011")
	require.NoError(t, err)
	assert.Equal(t, "sentseg", host)
	assert.Equal(t, "8011", port)
	assert.Equal(t, "", endpoint)
}

func TestParse_TrailingSlash(t *testing.T) {
	_, _, endpoint, err := Parse("http://sentseg:8011/")
	require.NoError(t, err)
	assert.Equal(t, "", endpoint)
}

func TestParse_NestedEndpoint(t *testing.T) {
	host, port, endpoint, err := Parse("http://combined-classification:8087/model/batch")
	require.NoError(t, err)
	assert.Equal(t, "combined-classification", host)
	assert.Equal(t, "8087", port)
	assert.Equal(t, "model/batch", endpoint)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"no_port", "http://my-service/respond"},
		{"no_host", "http://:8080/respond"},
		{"bare_host", "my-service"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := Parse(tt.url)
			assert.ErrorIs(t, err, ErrMalformedAddress)
		})
	}
}

func TestParseAddress_KeepsProtocol(t *testing.T) {
	addr, err := ParseAddress("https://svc:443/v1")
	require.NoError(t, err)
	assert.Equal(t, "https", addr.Protocol)
}

// =============================================================================
// Build / Round-Trip Tests
// =============================================================================

func TestBuild_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		port     string
		endpoint string
	}{
		{"simple", "my-service", "8080", "respond"},
		{"no_endpoint", "sentseg", "8011", ""},
		{"nested_endpoint", "ner", "8021", "model/batch"},
		{"numeric_host", "10-0-0-1", "80", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, endpoint, err := Parse(Build(tt.host, tt.port, tt.endpoint))
			require.NoError(t, err)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.port, port)
			assert.Equal(t, tt.endpoint, endpoint)
		})
	}
}

func TestAddress_URL(t *testing.T) {
	addr := Address{Protocol: "http", Host: "svc", Port: "8080", Endpoint: "respond"}
	assert.Equal(t, "http://svc:8080/respond", addr.URL())
}

func TestAddress_PortNumber(t *testing.T) {
	addr := Address{Host: "svc", Port: "8080"}
	n, err := addr.PortNumber()
	require.NoError(t, err)
	assert.Equal(t, 8080, n)
}

func TestAddress_PortNumber_NotInteger(t *testing.T) {
	addr := Address{Host: "svc", Port: "${SERVICE_PORT}"}
	_, err := addr.PortNumber()
	assert.ErrorIs(t, err, ErrPortParse)
}

// =============================================================================
// Rebase Tests
// =============================================================================

func TestRebase_PrefixesHostOnly(t *testing.T) {
	got, err := Rebase("http://svc:8080/respond", "user_")
	require.NoError(t, err)
	assert.Equal(t, "http://user_svc:8080/respond", got)
}

func TestRebase_PreservesPortAndEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		prefix string
		want   string
	}{
		{"no_endpoint", "http://svc:8080", "t1_", "http://t1_svc:8080"},
		{"trailing_slash", "http://svc:8080/", "t1_", "http://t1_svc:8080/"},
		{"nested", "https://svc:443/model/batch", "a-", "https://a-svc:443/model/batch"},
		{"empty_prefix", "http://svc:8080/respond", "", "http://svc:8080/respond"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Rebase(tt.url, tt.prefix)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRebase_Malformed(t *testing.T) {
	_, err := Rebase("http://no-port/respond", "user_")
	assert.ErrorIs(t, err, ErrMalformedAddress)
}
