package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// RemoteConfig describes an inventory REST API protected by OAuth2 client
// credentials. Leave ClientID empty for an unauthenticated API.
type RemoteConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
	Timeout      time.Duration
}

// Remote reads and writes the catalog through the inventory REST API.
type Remote struct {
	httpClient *http.Client
	baseAPI    string
}

var _ Store = (*Remote)(nil)

func NewRemote(ctx context.Context, cfg RemoteConfig) *Remote {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	if cfg.ClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		client = cc.Client(ctx)
		client.Timeout = timeout
	}

	return &Remote{
		httpClient: client,
		baseAPI:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

func (r *Remote) ListMaintainers(ctx context.Context) ([]Maintainer, error) {
	var out []Maintainer
	if err := r.getJSON(ctx, "/maintainers?active=true", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Remote) ListLocations(ctx context.Context) ([]Location, error) {
	var out []Location
	if err := r.getJSON(ctx, "/locations?active=true", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Remote) ListAssignees(ctx context.Context) ([]Assignee, error) {
	var out []Assignee
	if err := r.getJSON(ctx, "/assignees?active=true", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Remote) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := r.getJSON(ctx, "/products?active=true", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Remote) CreateMaintainer(ctx context.Context, m Maintainer) (string, error) {
	m.Active = true
	return r.create(ctx, "/maintainers", m)
}

func (r *Remote) CreateLocation(ctx context.Context, l Location) (string, error) {
	l.Active = true
	return r.create(ctx, "/locations", l)
}

// ---- Helpers ----

func (r *Remote) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, r.baseAPI+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return r.httpClient.Do(req)
}

func (r *Remote) getJSON(ctx context.Context, path string, out any) error {
	resp, err := r.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("catalog api %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("catalog api %s failed: %d %s", path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (r *Remote) create(ctx context.Context, path string, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	resp, err := r.do(ctx, http.MethodPost, path, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("catalog api %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("catalog api %s failed: %d %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode created id: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("catalog api %s returned no id", path)
	}
	return created.ID, nil
}
