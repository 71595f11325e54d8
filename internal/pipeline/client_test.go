package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanvault/orchestrator/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL}, logger.NewTestLogger())
}

func TestFetchStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/documents/doc-1/status", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"hasFolder": true,
			"hasPdf":    true,
			"dbId":      "db-1",
		})
	}))

	snap, err := client.FetchStatus(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.True(t, snap.HasFolder)
	assert.True(t, snap.HasPDF)
	assert.False(t, snap.HasPNGs)
	assert.Equal(t, "db-1", snap.DBID)
}

func TestListDocuments_PageFailureIsDiscoveryError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "catalog unavailable", http.StatusBadGateway)
	}))

	_, err := client.ListDocuments(context.Background(), 3, 50)
	require.Error(t, err)

	var discErr *DiscoveryError
	require.True(t, errors.As(err, &discErr))
	assert.Equal(t, 3, discErr.Page)
}

func TestListDocuments(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("pageSize"))
		json.NewEncoder(w).Encode(CatalogPage{
			Documents: []CatalogEntry{
				{ID: "doc-1", Status: "pending", PageCount: 12},
			},
			TotalPages: 4,
			TotalCount: 180,
		})
	}))

	page, err := client.ListDocuments(context.Background(), 1, 50)
	require.NoError(t, err)
	assert.Len(t, page.Documents, 1)
	assert.Equal(t, 4, page.TotalPages)
}

func TestDispatch_BackendRejectionIsDispatchError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req DispatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "doc-1", req.DocumentID)
		json.NewEncoder(w).Encode(DispatchResponse{Status: "error", Message: "no such document"})
	}))

	_, err := client.Dispatch(context.Background(), DispatchRequest{
		DocumentID: "doc-1",
		Steps:      []string{"createFolder"},
	})
	require.Error(t, err)

	var dispErr *DispatchError
	require.True(t, errors.As(err, &dispErr))
	assert.Equal(t, "doc-1", dispErr.DocumentID)
}

func TestDispatch_TerminalResponse(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(DispatchResponse{
			Status: "completed",
			DBID:   "db-5",
		})
	}))

	resp, err := client.Dispatch(context.Background(), DispatchRequest{DocumentID: "doc-1"})
	require.NoError(t, err)
	assert.True(t, resp.Terminal())
	assert.Equal(t, "db-5", resp.DBID)
}

func TestRepair(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req DispatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "repair", req.ProcessType)
		assert.True(t, req.ForceDataUpdate)
		json.NewEncoder(w).Encode(DispatchResponse{Status: "completed", DBID: "db-2"})
	}))

	resp, err := client.Repair(context.Background(), "doc-2")
	require.NoError(t, err)
	assert.Equal(t, "db-2", resp.DBID)
}

func TestRepair_FailureIsRepairError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(DispatchResponse{Status: "failed", Message: "repair not possible"})
	}))

	_, err := client.Repair(context.Background(), "doc-2")
	require.Error(t, err)

	var repErr *RepairError
	require.True(t, errors.As(err, &repErr))
	assert.Equal(t, "doc-2", repErr.DocumentID)
}

func TestFindBroken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]bool
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req["findBrokenOnly"])
		json.NewEncoder(w).Encode(map[string][]string{
			"brokenDocIds": {"doc-3", "doc-8"},
		})
	}))

	ids, err := client.FindBroken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-3", "doc-8"}, ids)
}

func TestNeedsRepair(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/documents/doc-4/needs-repair", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]bool{"needsRepair": true})
	}))

	needs, err := client.NeedsRepair(context.Background(), "doc-4")
	require.NoError(t, err)
	assert.True(t, needs)
}
