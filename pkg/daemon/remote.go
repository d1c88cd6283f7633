package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kilntools/kiln/errors"
	"github.com/kilntools/kiln/pkg/buildcfg"
)

// RemoteClient implements Client by calling kilnd's HTTP API over its Unix
// socket.
type RemoteClient struct {
	httpClient *http.Client
	socketPath string
}

// NewRemoteClient creates a RemoteClient connected to the daemon socket.
func NewRemoteClient(socketPath string) (*RemoteClient, error) {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
		DisableKeepAlives: false,
		MaxIdleConns:      10,
		IdleConnTimeout:   90 * time.Second,
	}

	return &RemoteClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   10 * time.Second,
		},
		socketPath: socketPath,
	}, nil
}

// baseURL is the dummy host used for Unix socket HTTP requests.
// The actual connection goes through the Unix socket, not this URL.
const baseURL = "http://unix"

// rootQuery renders the ?root= query for per-root endpoints. The empty
// root is omitted so the daemon resolves its default.
func rootQuery(root string) string {
	if root == "" {
		return ""
	}
	return "?root=" + url.QueryEscape(root)
}

// decodeError turns a non-OK response into an error, re-materializing the
// daemon's structured error when the body carries one so callers keep the
// error code across the socket.
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var kerr errors.KilnError
	if json.Unmarshal(body, &kerr) == nil && kerr.Code != "" {
		return &kerr
	}
	return fmt.Errorf("daemon returned status %d", resp.StatusCode)
}

// get performs a GET against the daemon and decodes the JSON response into
// out.
func (c *RemoteClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode daemon response: %w", err)
	}
	return nil
}

// send performs a request with a JSON body. out may be nil when the caller
// does not need the response payload.
func (c *RemoteClient) send(ctx context.Context, method, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode daemon response: %w", err)
	}
	return nil
}

// GetRoots returns the known workspace roots, default root first.
func (c *RemoteClient) GetRoots(ctx context.Context) ([]string, error) {
	var resp rootsResponse
	if err := c.get(ctx, "/api/roots", &resp); err != nil {
		return nil, err
	}
	return resp.Roots, nil
}

// GetConfigs returns a root's declared configuration list, unfiltered.
func (c *RemoteClient) GetConfigs(ctx context.Context, root string) ([]*buildcfg.Configuration, error) {
	var configs []*buildcfg.Configuration
	if err := c.get(ctx, "/api/configs"+rootQuery(root), &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// GetValidConfigs returns only well-formed configurations, sorted by name.
func (c *RemoteClient) GetValidConfigs(ctx context.Context, root string) ([]*buildcfg.Configuration, error) {
	var configs []*buildcfg.Configuration
	if err := c.get(ctx, "/api/configs/valid"+rootQuery(root), &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// GetActive returns a root's active configuration.
func (c *RemoteClient) GetActive(ctx context.Context, root string) (*ActiveConfig, error) {
	var active ActiveConfig
	if err := c.get(ctx, "/api/active"+rootQuery(root), &active); err != nil {
		return nil, err
	}
	return &active, nil
}

// GetAllActive returns the per-root selection map.
func (c *RemoteClient) GetAllActive(ctx context.Context) (map[string]*buildcfg.Configuration, error) {
	var all map[string]*buildcfg.Configuration
	if err := c.get(ctx, "/api/active/all", &all); err != nil {
		return nil, err
	}
	return all, nil
}

// SetActive selects a root's configuration by name. The daemon answers
// after the selection has been persisted.
func (c *RemoteClient) SetActive(ctx context.Context, root, name string) (*ActiveConfig, error) {
	var active ActiveConfig
	err := c.send(ctx, http.MethodPut, "/api/active", setActiveRequest{Root: root, Name: name}, &active)
	if err != nil {
		return nil, err
	}
	return &active, nil
}

// ClearActive drops a root's selection.
func (c *RemoteClient) ClearActive(ctx context.Context, root string) error {
	return c.send(ctx, http.MethodPut, "/api/active", setActiveRequest{Root: root, Clear: true}, nil)
}

// GetRunningConfig returns the daemon's running settings and effective
// configuration.
func (c *RemoteClient) GetRunningConfig(ctx context.Context) (*ConfigInfo, error) {
	var info ConfigInfo
	if err := c.get(ctx, "/api/config", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// MergeCompilationDatabases forwards a merge request to the daemon.
func (c *RemoteClient) MergeCompilationDatabases(ctx context.Context, directories []string) (string, error) {
	var merged mergedResponse
	err := c.send(ctx, http.MethodPost, "/api/merged", mergeRequest{Directories: directories}, &merged)
	if err != nil {
		return "", err
	}
	return merged.Path, nil
}

// IsRunning returns true if the daemon is available and responding.
func (c *RemoteClient) IsRunning() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// StreamChanges subscribes to configuration changes over the daemon's
// websocket endpoint. The returned channel receives a snapshot event first
// and closes when the context is cancelled or the connection is lost.
func (c *RemoteClient) StreamChanges(ctx context.Context) (<-chan StreamEvent, error) {
	dialer := websocket.Dialer{
		NetDialContext: func(dialCtx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(dialCtx, "unix", c.socketPath)
		},
		HandshakeTimeout: 5 * time.Second,
	}

	conn, resp, err := dialer.DialContext(ctx, "ws://unix/api/stream", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to stream: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	ch := make(chan StreamEvent, 10)
	done := make(chan struct{})

	// Closing the connection is the only way to unblock a pending read.
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	go func() {
		defer close(ch)
		defer close(done)
		defer conn.Close()
		for {
			var evt StreamEvent
			if err := conn.ReadJSON(&evt); err != nil {
				return
			}
			select {
			case ch <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// Close cleans up any resources used by the client.
func (c *RemoteClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Ensure RemoteClient implements both the client interface and the
// optional merge capability.
var (
	_ Client = (*RemoteClient)(nil)
	_ Merger = (*RemoteClient)(nil)
)
