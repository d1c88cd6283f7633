// Package compdb forwards compilation-database merge requests to an
// external merge service. kiln never merges compile_commands.json itself;
// it brokers the request and hands back the path of the merged artifact.
package compdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kilntools/kiln/errors"
	"github.com/kilntools/kiln/logging"
)

// Merger merges the compilation databases found in a set of build
// directories and returns the path of the merged artifact.
type Merger interface {
	Merge(ctx context.Context, directories []string) (string, error)
}

// MergeRequest is the payload posted to the merge service.
type MergeRequest struct {
	Directories []string `json:"directories"`
	OutputDir   string   `json:"output_dir,omitempty"`
}

// MergeResponse is the payload the merge service answers with.
type MergeResponse struct {
	Path string `json:"path"`
}

// HTTPMerger implements Merger against the HTTP service configured in the
// compdb section of kiln.yml.
type HTTPMerger struct {
	endpoint   string
	outputDir  string
	httpClient *http.Client
	logger     *logrus.Entry
}

// NewHTTPMerger creates a merger that posts to endpoint. outputDir is
// passed along so the service writes the artifact where the workspace
// expects it; empty means the service picks.
func NewHTTPMerger(endpoint, outputDir string) *HTTPMerger {
	return &HTTPMerger{
		endpoint:  endpoint,
		outputDir: outputDir,
		httpClient: &http.Client{
			// Merging large databases is slow; well beyond an API timeout.
			Timeout: 2 * time.Minute,
		},
		logger: logging.NewLogger("compdb"),
	}
}

// Merge posts the directory list and returns the artifact path from the
// service's response.
func (m *HTTPMerger) Merge(ctx context.Context, directories []string) (string, error) {
	if len(directories) == 0 {
		return "", errors.New(errors.ErrCodeInvalidInput, "merge request requires at least one directory")
	}

	body, err := json.Marshal(MergeRequest{
		Directories: directories,
		OutputDir:   m.outputDir,
	})
	if err != nil {
		return "", errors.MergeFailed(fmt.Errorf("encode merge request: %w", err), directories)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.MergeFailed(fmt.Errorf("create merge request: %w", err), directories)
	}
	req.Header.Set("Content-Type", "application/json")

	m.logger.WithFields(logrus.Fields{
		"endpoint":    m.endpoint,
		"directories": len(directories),
	}).Debug("Forwarding merge request")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", errors.MergeFailed(fmt.Errorf("merge service unreachable: %w", err), directories)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail := readErrorBody(resp.Body)
		if detail != "" {
			return "", errors.MergeFailed(fmt.Errorf("merge service returned status %d: %s", resp.StatusCode, detail), directories)
		}
		return "", errors.MergeFailed(fmt.Errorf("merge service returned status %d", resp.StatusCode), directories)
	}

	var result MergeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", errors.MergeFailed(fmt.Errorf("decode merge response: %w", err), directories)
	}
	if result.Path == "" {
		return "", errors.MergeFailed(fmt.Errorf("merge service returned no artifact path"), directories)
	}

	m.logger.WithField("path", result.Path).Debug("Merge completed")
	return result.Path, nil
}

// Ensure HTTPMerger implements Merger.
var _ Merger = (*HTTPMerger)(nil)

// readErrorBody extracts a short diagnostic from an error response. The
// service may answer with JSON {"error": "..."} or plain text.
func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(data))
}
