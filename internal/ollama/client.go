// Package ollama is a small client for the Ollama management API. It backs
// the readiness probe and the doctor command; embedding and generation calls
// live in the embedder and generator packages.
package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/54b3r/findai-go/internal/remote"
)

const op = "ollama"

// defaultTimeout bounds management calls, which should answer quickly.
const defaultTimeout = 5 * time.Second

// Model is one entry of GET /api/tags.
type Model struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Client talks to an Ollama server.
type Client struct {
	host    string
	timeout time.Duration
	client  *http.Client
}

// New returns a Client for host. A zero timeout uses 5s.
func New(host string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		host:    strings.TrimRight(host, "/"),
		timeout: timeout,
		client:  &http.Client{},
	}
}

// Host returns the base URL.
func (c *Client) Host() string { return c.host }

// ListModels returns the locally installed models.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return nil, remote.New(op, remote.KindUnreachable, "create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, remote.Classify(op, err)
	}
	defer resp.Body.Close()

	if err := remote.CheckStatus(op, resp); err != nil {
		return nil, err
	}

	var body struct {
		Models []Model `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, remote.New(op, remote.KindBadResponse, "decode tags: %w", err)
	}
	return body.Models, nil
}

// HasModel reports whether name is installed. A name without a tag matches
// its ":latest" variant.
func (c *Client) HasModel(ctx context.Context, name string) (bool, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return false, err
	}
	return containsModel(models, name), nil
}

func containsModel(models []Model, name string) bool {
	want := name
	if !strings.Contains(want, ":") {
		want += ":latest"
	}
	for _, m := range models {
		if m.Name == name || m.Name == want {
			return true
		}
	}
	return false
}

// Pinger probes Ollama for GET /ready. It optionally requires models to be
// installed.
type Pinger struct {
	client *Client
	models []string
}

// NewPinger returns a Pinger that also checks each of models is installed.
func NewPinger(c *Client, models ...string) *Pinger {
	return &Pinger{client: c, models: models}
}

// Name returns the dependency label used in readiness responses.
func (p *Pinger) Name() string { return "ollama" }

// Ping lists the installed models and checks the required ones are present.
func (p *Pinger) Ping(ctx context.Context) error {
	models, err := p.client.ListModels(ctx)
	if err != nil {
		return err
	}
	var missing []string
	for _, m := range p.models {
		if !containsModel(models, m) {
			missing = append(missing, m)
		}
	}
	if len(missing) > 0 {
		return remote.New(op, remote.KindBadResponse, "models not installed: %s", strings.Join(missing, ", "))
	}
	return nil
}
