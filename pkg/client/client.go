package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// RejectReasonRequiredMessage is the fixed user-facing message for a blank
// rejection reason.
const RejectReasonRequiredMessage = "반려 사유를 입력해주세요 (Please provide a rejection reason)"

// ValidationError is a local validation failure raised before any network
// call. It is never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrRejectReasonRequired is returned by Reject when the reason is empty or
// whitespace-only.
var ErrRejectReasonRequired = &ValidationError{Message: RejectReasonRequiredMessage}

// APIError is a non-2xx response from the server, carried verbatim.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d [%s]: %s", e.StatusCode, e.Code, e.Message)
}

// Doer issues one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the approval service REST API.
type Client struct {
	baseURL string
	http    Doer
	token   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// WithToken sets the bearer token attached to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a Client for the given base URL, e.g.
// "https://approvals.example.com/api/v1".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ApproveRequest approves the current level of one approval.
type ApproveRequest struct {
	ID       int64
	Comments string
}

// Approve issues the approve command. Comments that are empty after trimming
// are omitted entirely: the request then carries no body at all. The returned
// acknowledgment is not the updated aggregate; refetch to observe new state.
func (c *Client) Approve(ctx context.Context, req ApproveRequest) (*CommandAck, error) {
	if req.ID <= 0 {
		return nil, &ValidationError{Message: "approval id must be positive"}
	}

	var body any
	if comments := strings.TrimSpace(req.Comments); comments != "" {
		body = map[string]string{"comments": comments}
	}

	ack := &CommandAck{}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/approvals/%d/approve", req.ID), nil, body, ack); err != nil {
		return nil, err
	}
	return ack, nil
}

// RejectRequest rejects the current level of one approval.
type RejectRequest struct {
	ID       int64
	Reason   string
	Comments string
}

// Reject issues the reject command. The reason is validated locally first: if
// it is empty after trimming, Reject fails with ErrRejectReasonRequired and
// performs zero network calls. Comments follow the same omission rule as
// Approve.
func (c *Client) Reject(ctx context.Context, req RejectRequest) (*CommandAck, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, ErrRejectReasonRequired
	}
	if req.ID <= 0 {
		return nil, &ValidationError{Message: "approval id must be positive"}
	}

	body := map[string]string{"reason": reason}
	if comments := strings.TrimSpace(req.Comments); comments != "" {
		body["comments"] = comments
	}

	ack := &CommandAck{}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/approvals/%d/reject", req.ID), nil, body, ack); err != nil {
		return nil, err
	}
	return ack, nil
}

// List fetches one page of approvals. Absent optional filters are omitted
// from the query string rather than sent as empty values.
func (c *Client) List(ctx context.Context, p ListParams) (*ApprovalPage, error) {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Size > 0 {
		q.Set("size", strconv.Itoa(p.Size))
	}
	if p.EntityType != "" {
		q.Set("entityType", string(p.EntityType))
	}
	if p.Status != "" {
		q.Set("status", string(p.Status))
	}
	if p.MyPending {
		q.Set("myPending", "true")
	}

	var wire listResponseWire
	if err := c.do(ctx, http.MethodGet, "/approvals", q, nil, &wire); err != nil {
		return nil, err
	}

	items := make([]ApprovalListItem, 0, len(wire.Items))
	for _, w := range wire.Items {
		items = append(items, mapListItem(w))
	}
	return &ApprovalPage{
		Items:      items,
		Pagination: Pagination{Total: wire.Total, Page: wire.Page, Size: wire.Size},
	}, nil
}

// Detail fetches one approval including its level chain.
func (c *Client) Detail(ctx context.Context, id int64) (*Approval, error) {
	var wire approvalWire
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/approvals/%d", id), nil, nil, &wire); err != nil {
		return nil, err
	}
	a := mapApproval(wire)
	return &a, nil
}

// History fetches the audit trail of one approval in creation order.
func (c *Client) History(ctx context.Context, id int64) ([]ApprovalHistory, error) {
	var wire []historyWire
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/approvals/%d/history", id), nil, nil, &wire); err != nil {
		return nil, err
	}
	entries := make([]ApprovalHistory, 0, len(wire))
	for _, w := range wire {
		entries = append(entries, mapHistory(w))
	}
	return entries, nil
}

// PendingCount fetches how many approvals currently await the caller.
func (c *Client) PendingCount(ctx context.Context) (int, error) {
	var count int
	if err := c.do(ctx, http.MethodGet, "/approvals/pending-count", nil, nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// do issues one request and decodes the response. Transport errors propagate
// unchanged; non-2xx responses surface as *APIError with the server's error
// envelope. No retries, no backoff.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if readErr == nil {
			_ = json.Unmarshal(raw, apiErr)
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
