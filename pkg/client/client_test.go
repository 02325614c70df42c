package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingDoer counts requests without performing any.
type countingDoer struct {
	calls int
}

func (d *countingDoer) Do(*http.Request) (*http.Response, error) {
	d.calls++
	return nil, errors.New("transport should not be reached")
}

func TestRejectBlankReasonFailsLocally(t *testing.T) {
	for _, reason := range []string{"", "   ", "\t\n"} {
		doer := &countingDoer{}
		c := New("http://example.invalid/api/v1", WithHTTPClient(doer))

		_, err := c.Reject(context.Background(), RejectRequest{ID: 123, Reason: reason})
		require.Error(t, err, "reason %q", reason)

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, RejectReasonRequiredMessage, vErr.Message)
		assert.Equal(t, 0, doer.calls, "reason %q reached the transport", reason)
	}
}

func TestApproveEmptyCommentsSendsNoBody(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewEncoder(w).Encode(CommandAck{ID: 123, Message: "approved"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	for _, comments := range []string{"", "   "} {
		ack, err := c.Approve(context.Background(), ApproveRequest{ID: 123, Comments: comments})
		require.NoError(t, err)
		assert.Equal(t, int64(123), ack.ID)
		assert.Empty(t, gotBody, "comments %q produced a body", comments)
		assert.Empty(t, gotContentType)
	}
}

func TestApproveWithCommentsSendsTrimmedBody(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(CommandAck{ID: 123, Message: "approved"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Approve(context.Background(), ApproveRequest{ID: 123, Comments: "  fine by me  "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"comments": "fine by me"}, gotBody)
}

func TestRejectSendsTrimmedReasonAndComments(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(CommandAck{ID: 123, Message: "rejected"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Reject(context.Background(), RejectRequest{
		ID: 123, Reason: "Budget exceeded", Comments: "  note  ",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"reason": "Budget exceeded", "comments": "note"}, gotBody)
}

func TestRejectOmitsEmptyComments(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(CommandAck{ID: 123, Message: "rejected"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Reject(context.Background(), RejectRequest{ID: 123, Reason: "dup", Comments: "  "})
	require.NoError(t, err)
	_, hasComments := gotBody["comments"]
	assert.False(t, hasComments, "empty comments must be omitted, got %v", gotBody)
}

func TestListOmitsAbsentFilters(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(listResponseWire{
			Items: []listItemWire{{ID: 1, EntityType: "QUOTATION", Status: "PENDING", SubmittedByName: " Lee "}},
			Total: 1, Page: 1, Size: 20,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	page, err := c.List(context.Background(), ListParams{Page: 1, Size: 20})
	require.NoError(t, err)

	assert.NotContains(t, gotQuery, "entityType")
	assert.NotContains(t, gotQuery, "status")
	assert.NotContains(t, gotQuery, "myPending")
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Lee", page.Items[0].SubmittedByName)
	assert.Equal(t, Pagination{Total: 1, Page: 1, Size: 20}, page.Pagination)
}

func TestAPIErrorCarriesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "APPROVAL_ALREADY_COMPLETED",
			"message": "approval is already completed",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Approve(context.Background(), ApproveRequest{ID: 123})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "APPROVAL_ALREADY_COMPLETED", apiErr.Code)
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(2)
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("tok-123"))
	count, err := c.PendingCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}
