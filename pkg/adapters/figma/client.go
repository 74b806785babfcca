// Package figma implements ports.SceneGraph on the Figma REST API.
package figma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/flowstory/internal/logging"
	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/aretw0/flowstory/pkg/ports"
)

// DefaultBaseURL is the public Figma API.
const DefaultBaseURL = "https://api.figma.com"

// Client resolves nodes and renders images of one Figma file.
// Resolved nodes are cached for the lifetime of the client.
type Client struct {
	baseURL    string
	token      string
	fileKey    string
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.Mutex
	cache map[string]*domain.SceneNode
}

type Option func(*Client)

// WithBaseURL points the client at another API host.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient sets the HTTP client used for API calls and image downloads.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for fileKey authenticated with a personal access token.
func New(fileKey, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		token:      token,
		fileKey:    fileKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logging.NewNop(),
		cache:      make(map[string]*domain.SceneNode),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FileKey returns the key of the file the client reads.
func (c *Client) FileKey() string {
	return c.fileKey
}

type nodesResponse struct {
	Name  string `json:"name"`
	Nodes map[string]*struct {
		Document domain.SceneNode `json:"document"`
	} `json:"nodes"`
}

// ResolveNode fetches a node and its subtree. Unknown ids return domain.ErrNodeNotFound.
func (c *Client) ResolveNode(ctx context.Context, id string) (*domain.SceneNode, error) {
	c.mu.Lock()
	node, ok := c.cache[id]
	c.mu.Unlock()
	if ok {
		return node, nil
	}

	q := url.Values{"ids": {id}}
	var resp nodesResponse
	if err := c.get(ctx, "/v1/files/"+url.PathEscape(c.fileKey)+"/nodes", q, &resp); err != nil {
		return nil, err
	}

	entry := resp.Nodes[id]
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	node = &entry.Document

	c.mu.Lock()
	c.cache[id] = node
	c.mu.Unlock()
	c.logger.Debug("figma: resolved node", "id", id, "type", node.Type)
	return node, nil
}

type imagesResponse struct {
	Err    *string           `json:"err"`
	Images map[string]string `json:"images"`
}

// ExportImage asks the API to render node and downloads the result.
func (c *Client) ExportImage(ctx context.Context, node *domain.SceneNode, settings ports.ExportSettings) ([]byte, error) {
	format := settings.Format
	if format == "" {
		format = ports.FormatPNG
	}
	scale := settings.Scale
	if scale == 0 {
		scale = 1
	}

	q := url.Values{
		"ids":    {node.ID},
		"format": {format},
		"scale":  {strconv.FormatFloat(scale, 'f', -1, 64)},
	}
	var resp imagesResponse
	if err := c.get(ctx, "/v1/images/"+url.PathEscape(c.fileKey), q, &resp); err != nil {
		return nil, err
	}
	if resp.Err != nil && *resp.Err != "" {
		return nil, fmt.Errorf("figma: render %s: %s", node.ID, *resp.Err)
	}
	imageURL := resp.Images[node.ID]
	if imageURL == "" {
		return nil, fmt.Errorf("figma: no image rendered for %s", node.ID)
	}

	return c.download(ctx, imageURL)
}

func (c *Client) get(ctx context.Context, path string, q url.Values, v any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("figma: %w", err)
	}
	req.Header.Set("X-Figma-Token", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("figma: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("figma: GET %s: status %d: %s", path, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("figma: decode %s: %w", path, err)
	}
	return nil
}

// download fetches a rendered image. Image URLs are pre-signed and take no token.
func (c *Client) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("figma: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("figma: download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("figma: download image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("figma: download image: %w", err)
	}
	return data, nil
}
