package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Portainer Stack Client
// =============================================================================

// PortainerConfig holds Portainer client configuration.
type PortainerConfig struct {
	BaseURL string // e.g. "https://portainer.example.com"
	APIKey  string // X-API-Key value
	Timeout time.Duration
}

// Portainer is a client for the Portainer stack API of a swarm endpoint.
type Portainer struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger

	endpointID int
	swarmID    string
}

// NewPortainer creates a new client. Endpoint and swarm identifiers are
// resolved lazily on first use.
func NewPortainer(cfg PortainerConfig, logger *slog.Logger) *Portainer {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Portainer{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Stack is one Portainer stack record. Field names follow the Portainer API.
type Stack struct {
	ID         int    `json:"Id"`
	Name       string `json:"Name"`
	Type       int    `json:"Type"`
	EndpointID int    `json:"EndpointId"`
	SwarmID    string `json:"SwarmId"`
	Status     int    `json:"Status"`
}

// StackStatusActive is the Status value of a running stack.
const StackStatusActive = 1

func (p *Portainer) do(ctx context.Context, method, apiPath string, query url.Values, contentType string, body io.Reader, out any) error {
	u := p.baseURL + apiPath
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-Key", p.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("portainer %s %s: unexpected status %d: %s", method, apiPath, resp.StatusCode, string(payload))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// EndpointID resolves and caches the single endpoint the instance manages.
func (p *Portainer) EndpointID(ctx context.Context) (int, error) {
	if p.endpointID != 0 {
		return p.endpointID, nil
	}

	var endpoints []struct {
		ID int `json:"Id"`
	}
	if err := p.do(ctx, http.MethodGet, "/api/endpoints", nil, "", nil, &endpoints); err != nil {
		return 0, err
	}
	if len(endpoints) != 1 {
		return 0, fmt.Errorf("expected exactly one Portainer endpoint, got %d", len(endpoints))
	}
	p.endpointID = endpoints[0].ID
	return p.endpointID, nil
}

// SwarmID resolves and caches the swarm identifier of the endpoint.
func (p *Portainer) SwarmID(ctx context.Context) (string, error) {
	if p.swarmID != "" {
		return p.swarmID, nil
	}

	endpointID, err := p.EndpointID(ctx)
	if err != nil {
		return "", err
	}

	var swarm struct {
		ID string `json:"ID"`
	}
	apiPath := fmt.Sprintf("/api/endpoints/%d/docker/swarm", endpointID)
	if err := p.do(ctx, http.MethodGet, apiPath, nil, "", nil, &swarm); err != nil {
		return "", err
	}
	p.swarmID = swarm.ID
	return p.swarmID, nil
}

// CreateStack deploys a new stack from a compose file.
func (p *Portainer) CreateStack(ctx context.Context, name string, stackFile []byte) (*Stack, error) {
	endpointID, err := p.EndpointID(ctx)
	if err != nil {
		return nil, err
	}
	swarmID, err := p.SwarmID(ctx)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "docker-compose.yml")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(stackFile); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	query := url.Values{
		"type":       {"1"},
		"method":     {"file"},
		"SwarmID":    {swarmID},
		"endpointId": {strconv.Itoa(endpointID)},
		"Name":       {name},
	}

	stack := &Stack{}
	if err := p.do(ctx, http.MethodPost, "/api/stacks", query, form.FormDataContentType(), &body, stack); err != nil {
		return nil, err
	}
	p.logger.Info("created stack", "name", name, "id", stack.ID)
	return stack, nil
}

// GetStacks lists all stacks.
func (p *Portainer) GetStacks(ctx context.Context) ([]Stack, error) {
	var stacks []Stack
	if err := p.do(ctx, http.MethodGet, "/api/stacks", nil, "", nil, &stacks); err != nil {
		return nil, err
	}
	return stacks, nil
}

// DeleteStack removes a stack.
func (p *Portainer) DeleteStack(ctx context.Context, stackID int) error {
	endpointID, err := p.EndpointID(ctx)
	if err != nil {
		return err
	}
	query := url.Values{
		"external":   {"true"},
		"endpointId": {strconv.Itoa(endpointID)},
	}
	return p.do(ctx, http.MethodDelete, "/api/stacks/"+strconv.Itoa(stackID), query, "", nil, nil)
}

// UpdateStack replaces a stack's compose file. prune removes services no
// longer present; pullImage forces re-pulling current tags.
func (p *Portainer) UpdateStack(ctx context.Context, stackID int, stackFile []byte, prune, pullImage bool) error {
	endpointID, err := p.EndpointID(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"prune":            prune,
		"pullImage":        pullImage,
		"stackFileContent": string(stackFile),
	})
	if err != nil {
		return err
	}

	query := url.Values{
		"endpointId": {strconv.Itoa(endpointID)},
	}
	apiPath := "/api/stacks/" + strconv.Itoa(stackID)
	return p.do(ctx, http.MethodPut, apiPath, query, "application/json", bytes.NewReader(payload), nil)
}

// GetStackFile fetches and decodes a stack's compose file.
func (p *Portainer) GetStackFile(ctx context.Context, stackID int) (map[string]any, error) {
	var resp struct {
		StackFileContent string `json:"StackFileContent"`
	}
	apiPath := fmt.Sprintf("/api/stacks/%d/file", stackID)
	if err := p.do(ctx, http.MethodGet, apiPath, nil, "", nil, &resp); err != nil {
		return nil, err
	}

	var file map[string]any
	if err := yaml.Unmarshal([]byte(resp.StackFileContent), &file); err != nil {
		return nil, fmt.Errorf("decode stack file: %w", err)
	}
	return file, nil
}

// Reservations sums the deploy memory reservations of every stack, in bytes,
// keyed by stack name. The "total" key holds the grand total.
func (p *Portainer) Reservations(ctx context.Context) (map[string]int64, error) {
	stacks, err := p.GetStacks(ctx)
	if err != nil {
		return nil, err
	}

	out := map[string]int64{}
	var total int64
	for _, stack := range stacks {
		file, err := p.GetStackFile(ctx, stack.ID)
		if err != nil {
			return nil, err
		}
		sum := sumReservations(file)
		out[stack.Name] = sum
		total += sum
	}
	out["total"] = total
	return out, nil
}

// UsedPorts maps each active stack to the published port of its agent
// container. Stacks whose file cannot be fetched are skipped with a log
// line.
func (p *Portainer) UsedPorts(ctx context.Context) (map[int]int, error) {
	stacks, err := p.GetStacks(ctx)
	if err != nil {
		return nil, err
	}

	out := map[int]int{}
	for _, stack := range stacks {
		if stack.Status != StackStatusActive {
			continue
		}
		file, err := p.GetStackFile(ctx, stack.ID)
		if err != nil {
			p.logger.Error("fetching stack file failed", "stack_id", stack.ID, "error", err)
			continue
		}
		if port, ok := agentPublishedPort(file); ok {
			out[stack.ID] = port
		}
	}
	return out, nil
}

// =============================================================================
// Stack File Introspection
// =============================================================================

func stackServices(file map[string]any) map[string]any {
	services, _ := file["services"].(map[string]any)
	return services
}

func sumReservations(file map[string]any) int64 {
	var total int64
	for _, svc := range stackServices(file) {
		record, _ := svc.(map[string]any)
		deploy, _ := record["deploy"].(map[string]any)
		resources, _ := deploy["resources"].(map[string]any)
		reservations, _ := resources["reservations"].(map[string]any)
		if mem, ok := parseMemoryBytes(reservations["memory"]); ok {
			total += mem
		}
	}
	return total
}

func agentPublishedPort(file map[string]any) (int, bool) {
	agent, _ := stackServices(file)["agent"].(map[string]any)
	ports, _ := agent["ports"].([]any)
	if len(ports) == 0 {
		return 0, false
	}
	switch binding := ports[0].(type) {
	case map[string]any:
		// long syntax
		if published, ok := asInt(binding["published"]); ok {
			return published, true
		}
	case string:
		// short syntax "published:target"
		for i := 0; i < len(binding); i++ {
			if binding[i] == ':' {
				if published, err := strconv.Atoi(binding[:i]); err == nil {
					return published, true
				}
				return 0, false
			}
		}
	}
	return 0, false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// parseMemoryBytes accepts the memory forms found in stack files: plain byte
// counts and compose amounts with a b/k/m/g suffix.
func parseMemoryBytes(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		if n == "" {
			return 0, false
		}
		unit := int64(1)
		value := n
		switch n[len(n)-1] {
		case 'b', 'B':
			value = n[:len(n)-1]
		case 'k', 'K':
			unit = 1 << 10
			value = n[:len(n)-1]
		case 'm', 'M':
			unit = 1 << 20
			value = n[:len(n)-1]
		case 'g', 'G':
			unit = 1 << 30
			value = n[:len(n)-1]
		}
		amount, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, false
		}
		return int64(amount * float64(unit)), true
	}
	return 0, false
}
