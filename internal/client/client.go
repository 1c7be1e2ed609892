// File: internal/client/client.go

// Package client implements the HTTP and websocket consumers for the
// orchestration backend. It owns the wire contracts only; all state
// reconciliation happens in the console package.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/google/uuid"
	"github.com/periscope-sec/periscope-cli/api/schemas"
	"github.com/periscope-sec/periscope-cli/internal/config"
	"go.uber.org/zap"
)

// json is the project-wide JSON codec. jsoniter keeps decode cost low for the
// large snapshot payloads arriving every couple of seconds.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// APIError is a non-2xx response from the backend, carrying the HTTP status
// and the backend's error message when one was provided.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

// errorBody is the backend's standard error envelope.
type errorBody struct {
	Error string `json:"error"`
}

// Client is a thin, stateless wrapper over the backend's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a backend client from server configuration.
func New(cfg config.ServerConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger.Named("client"),
	}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// get performs a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	return c.do(req, out)
}

// post performs a POST request with a JSON body and decodes the response into out.
func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body for %s: %w", path, err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do executes the request, maps non-2xx statuses to *APIError and decodes the
// body into out when out is non-nil.
func (c *Client) do(req *http.Request, out interface{}) error {
	// Correlation ID so client and backend logs can be lined up.
	req.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var body errorBody
		if err := json.Unmarshal(payload, &body); err == nil {
			apiErr.Message = body.Error
		}
		c.logger.Debug("Backend request failed",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}

// Snapshot fetches the full workspace snapshot.
func (c *Client) Snapshot(ctx context.Context) (*schemas.Snapshot, error) {
	var snap schemas.Snapshot
	if err := c.get(ctx, "/api/snapshot", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ToolPage fetches one page of the tool catalog. An empty service selects the
// full catalog.
func (c *Client) ToolPage(ctx context.Context, service string, limit, offset int) (*schemas.ToolPage, error) {
	query := url.Values{}
	if service != "" {
		query.Set("service", service)
	}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var page schemas.ToolPage
	if err := c.get(ctx, "/api/workspace/tools", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// HostDetail fetches the full workspace view of one host.
func (c *Client) HostDetail(ctx context.Context, hostID int) (*schemas.HostDetail, error) {
	var detail schemas.HostDetail
	if err := c.get(ctx, fmt.Sprintf("/api/workspace/hosts/%d", hostID), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ProcessOutput fetches the next output chunk of a process starting at offset.
func (c *Client) ProcessOutput(ctx context.Context, processID, offset, maxChars int) (*schemas.ProcessOutput, error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("max_chars", strconv.Itoa(maxChars))

	var out schemas.ProcessOutput
	if err := c.get(ctx, fmt.Sprintf("/api/processes/%d/output", processID), query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitScan submits a structured scan request. The backend validates the
// request and builds the actual invocation itself; the client-side preview
// string is never sent.
func (c *Client) SubmitScan(ctx context.Context, req *schemas.ScanRequest) (*schemas.JobAccepted, error) {
	var accepted schemas.JobAccepted
	if err := c.post(ctx, "/api/nmap/scan", req, &accepted); err != nil {
		return nil, err
	}
	return &accepted, nil
}

// Job fetches the current state of one job.
func (c *Client) Job(ctx context.Context, jobID int) (*schemas.Job, error) {
	var job schemas.Job
	if err := c.get(ctx, fmt.Sprintf("/api/jobs/%d", jobID), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Jobs lists recent jobs, newest first.
func (c *Client) Jobs(ctx context.Context, limit int) ([]schemas.Job, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	var list schemas.JobList
	if err := c.get(ctx, "/api/jobs", query, &list); err != nil {
		return nil, err
	}
	return list.Jobs, nil
}

// StopJob requests cancellation of a queued or running job.
func (c *Client) StopJob(ctx context.Context, jobID int) error {
	return c.post(ctx, fmt.Sprintf("/api/jobs/%d/stop", jobID), nil, nil)
}

// RunScheduler asks the backend to queue a scheduler pass.
func (c *Client) RunScheduler(ctx context.Context) (*schemas.JobAccepted, error) {
	var accepted schemas.JobAccepted
	if err := c.post(ctx, "/api/scheduler/run", nil, &accepted); err != nil {
		return nil, err
	}
	return &accepted, nil
}

// ApproveApproval accepts a pending scheduler approval. approveFamily
// pre-approves the whole command family; runNow queues the action immediately.
func (c *Client) ApproveApproval(ctx context.Context, approvalID int, approveFamily, runNow bool) (*schemas.ApprovalDecisionResult, error) {
	req := schemas.ApprovalApproveRequest{ApproveFamily: approveFamily, RunNow: runNow}
	var result schemas.ApprovalDecisionResult
	if err := c.post(ctx, fmt.Sprintf("/api/scheduler/approvals/%d/approve", approvalID), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RejectApproval rejects a pending scheduler approval with a reason.
func (c *Client) RejectApproval(ctx context.Context, approvalID int, reason string) (*schemas.ApprovalDecisionResult, error) {
	req := schemas.ApprovalRejectRequest{Reason: reason}
	var result schemas.ApprovalDecisionResult
	if err := c.post(ctx, fmt.Sprintf("/api/scheduler/approvals/%d/reject", approvalID), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
