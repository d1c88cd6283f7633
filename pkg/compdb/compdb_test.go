package compdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kilnerrors "github.com/kilntools/kiln/errors"
)

func TestHTTPMergerPostsDirectories(t *testing.T) {
	var got MergeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(MergeResponse{Path: "/cache/kiln/compdb/compile_commands.json"})
	}))
	defer server.Close()

	merger := NewHTTPMerger(server.URL, "/cache/kiln/compdb")

	dirs := []string{"/ws/app/build/debug", "/ws/lib/build/debug"}
	path, err := merger.Merge(context.Background(), dirs)
	require.NoError(t, err)

	assert.Equal(t, "/cache/kiln/compdb/compile_commands.json", path)
	assert.Equal(t, dirs, got.Directories)
	assert.Equal(t, "/cache/kiln/compdb", got.OutputDir)
}

func TestHTTPMergerOmitsEmptyOutputDir(t *testing.T) {
	var rawBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rawBody))
		json.NewEncoder(w).Encode(MergeResponse{Path: "/tmp/merged.json"})
	}))
	defer server.Close()

	merger := NewHTTPMerger(server.URL, "")
	_, err := merger.Merge(context.Background(), []string{"/ws/app/build/debug"})
	require.NoError(t, err)

	assert.NotContains(t, rawBody, "output_dir")
}

func TestHTTPMergerEmptyDirectories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("the service must not be called for an empty request")
	}))
	defer server.Close()

	merger := NewHTTPMerger(server.URL, "")
	_, err := merger.Merge(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, kilnerrors.ErrCodeInvalidInput, kilnerrors.GetCode(err))
}

func TestHTTPMergerServiceJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "clang tooling crashed"})
	}))
	defer server.Close()

	merger := NewHTTPMerger(server.URL, "")
	_, err := merger.Merge(context.Background(), []string{"/d"})
	require.Error(t, err)
	assert.Equal(t, kilnerrors.ErrCodeMergeFailed, kilnerrors.GetCode(err))
	assert.Contains(t, err.Error(), "clang tooling crashed")
}

func TestHTTPMergerServiceTextError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request: unknown directory", http.StatusBadRequest)
	}))
	defer server.Close()

	merger := NewHTTPMerger(server.URL, "")
	_, err := merger.Merge(context.Background(), []string{"/d"})
	require.Error(t, err)
	assert.Equal(t, kilnerrors.ErrCodeMergeFailed, kilnerrors.GetCode(err))
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "unknown directory")
}

func TestHTTPMergerMissingArtifactPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	merger := NewHTTPMerger(server.URL, "")
	_, err := merger.Merge(context.Background(), []string{"/d"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no artifact path")
}

func TestHTTPMergerUnreachableService(t *testing.T) {
	merger := NewHTTPMerger("http://127.0.0.1:1/merge", "")
	_, err := merger.Merge(context.Background(), []string{"/d"})
	require.Error(t, err)
	assert.Equal(t, kilnerrors.ErrCodeMergeFailed, kilnerrors.GetCode(err))
}
