// Package pipeline is the HTTP client for the remote document pipeline: the
// paginated catalog, per-document status queries, stage dispatch, repair
// requests, and the per-document server-push progress stream.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/r3labs/sse/v2"
	backoff "gopkg.in/cenkalti/backoff.v1"

	"github.com/scanvault/orchestrator/internal/models"
	"github.com/scanvault/orchestrator/pkg/logger"
)

// CatalogEntry is one document row from the paginated catalog listing.
type CatalogEntry struct {
	ID               string   `json:"id"`
	Status           string   `json:"status"`
	ProcessingStatus string   `json:"processingStatus"`
	Stages           []string `json:"stages"`
	PageCount        int      `json:"pageCount"`
}

// CatalogPage is one page of the remote catalog.
type CatalogPage struct {
	Documents  []CatalogEntry `json:"documents"`
	TotalPages int            `json:"totalPages"`
	TotalCount int            `json:"totalCount"`
}

// DispatchRequest starts pipeline work for one document.
type DispatchRequest struct {
	DocumentID      string   `json:"documentId"`
	DocumentURL     string   `json:"documentUrl,omitempty"`
	ArchiveID       string   `json:"archiveId,omitempty"`
	Steps           []string `json:"steps,omitempty"`
	ProcessType     string   `json:"processType,omitempty"`
	ForceDataUpdate bool     `json:"forceDataUpdate,omitempty"`
}

// DispatchResponse is the synchronous reply to a dispatch or repair request.
type DispatchResponse struct {
	Status           string   `json:"status"`
	Message          string   `json:"message"`
	Steps            []string `json:"steps,omitempty"`
	AnalysisComplete bool     `json:"analysisComplete,omitempty"`
	DBID             string   `json:"dbId,omitempty"`
}

// Terminal reports whether the synchronous reply already represents a
// finished pipeline run, so no progress stream will follow.
func (r *DispatchResponse) Terminal() bool {
	return r.Status == "completed" || r.Status == "ready"
}

// Config holds the remote endpoint settings.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// Client talks to the remote pipeline executor and catalog.
type Client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log.Named("pipeline"),
	}
}

// FetchStatus returns a document's completion snapshot.
func (c *Client) FetchStatus(ctx context.Context, documentID string) (models.StatusSnapshot, error) {
	var snap models.StatusSnapshot
	url := fmt.Sprintf("%s/documents/%s/status", c.baseURL, documentID)
	if err := c.getJSON(ctx, url, &snap); err != nil {
		return models.StatusSnapshot{}, fmt.Errorf("fetch status for %s: %w", documentID, err)
	}
	return snap, nil
}

// ListDocuments fetches one page of the remote catalog. Pages are 1-based.
func (c *Client) ListDocuments(ctx context.Context, page, pageSize int) (CatalogPage, error) {
	var out CatalogPage
	url := fmt.Sprintf("%s/documents?page=%d&pageSize=%d", c.baseURL, page, pageSize)
	if err := c.getJSON(ctx, url, &out); err != nil {
		return CatalogPage{}, &DiscoveryError{Page: page, Err: err}
	}
	return out, nil
}

// Dispatch sends a pipeline start request. A non-2xx reply or a reply with
// status "error" is a DispatchError.
func (c *Client) Dispatch(ctx context.Context, req DispatchRequest) (DispatchResponse, error) {
	var resp DispatchResponse
	if err := c.postJSON(ctx, c.baseURL+"/process", req, &resp); err != nil {
		return DispatchResponse{}, &DispatchError{DocumentID: req.DocumentID, Err: err}
	}
	if resp.Status == "error" || resp.Status == "failed" {
		return DispatchResponse{}, &DispatchError{
			DocumentID: req.DocumentID,
			Err:        fmt.Errorf("backend rejected request: %s", resp.Message),
		}
	}
	return resp, nil
}

// Repair sends a synchronous repair request with a forced data update.
func (c *Client) Repair(ctx context.Context, documentID string) (DispatchResponse, error) {
	req := DispatchRequest{
		DocumentID:      documentID,
		ProcessType:     "repair",
		ForceDataUpdate: true,
	}
	var resp DispatchResponse
	if err := c.postJSON(ctx, c.baseURL+"/process", req, &resp); err != nil {
		return DispatchResponse{}, &RepairError{DocumentID: documentID, Err: err}
	}
	if resp.Status == "error" || resp.Status == "failed" {
		return DispatchResponse{}, &RepairError{
			DocumentID: documentID,
			Err:        fmt.Errorf("backend rejected repair: %s", resp.Message),
		}
	}
	return resp, nil
}

// FindBroken asks the backend for its own list of known-broken document ids.
func (c *Client) FindBroken(ctx context.Context) ([]string, error) {
	body := map[string]bool{"findBrokenOnly": true}
	var out struct {
		BrokenDocIDs []string `json:"brokenDocIds"`
	}
	if err := c.postJSON(ctx, c.baseURL+"/repair/find", body, &out); err != nil {
		return nil, fmt.Errorf("find broken documents: %w", err)
	}
	return out.BrokenDocIDs, nil
}

// NeedsRepair confirms a scanner heuristic against the backend before a
// document is accepted as a repair candidate.
func (c *Client) NeedsRepair(ctx context.Context, documentID string) (bool, error) {
	var out struct {
		NeedsRepair bool `json:"needsRepair"`
	}
	url := fmt.Sprintf("%s/documents/%s/needs-repair", c.baseURL, documentID)
	if err := c.getJSON(ctx, url, &out); err != nil {
		return false, fmt.Errorf("needs-repair probe for %s: %w", documentID, err)
	}
	return out.NeedsRepair, nil
}

// Subscribe opens the push-event stream scoped to one document. The returned
// subscription's channel closes when the stream ends for any reason;
// reconnection is disabled so a drop is terminal.
func (c *Client) Subscribe(ctx context.Context, documentID string) (*Subscription, error) {
	streamURL := fmt.Sprintf("%s/events/%s", c.baseURL, documentID)

	client := sse.NewClient(streamURL)
	client.ReconnectStrategy = &backoff.StopBackOff{}

	subCtx, cancel := context.WithCancel(ctx)
	sub := newSubscription(cancel)

	go func() {
		defer close(sub.events)
		err := client.SubscribeRawWithContext(subCtx, func(msg *sse.Event) {
			ev := Event{
				Type:    EventType(string(msg.Event)),
				Payload: DecodePayload(msg.Data),
			}
			select {
			case sub.events <- ev:
			case <-subCtx.Done():
			}
		})
		if err != nil && subCtx.Err() == nil {
			c.log.Warn("progress stream ended with error",
				logger.String("documentId", documentID),
				logger.Error(err),
			)
		}
	}()

	return sub, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, url string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
