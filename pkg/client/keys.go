package client

import (
	"fmt"
	"net/url"
	"strings"
)

// Cache keys are ordered tuples rendered to a canonical string so two
// logically equal parameter sets always collide and two different sets never
// do. Absent optional filters normalize to fixed placeholders (null for
// enums, false for myPending) before rendering.

const keyDomain = "approvals"

// Key identifies one cached read. Keys compare by value and support prefix
// matching for invalidation.
type Key struct {
	parts []string
}

// String renders the canonical form, e.g.
// "approvals/list/0/10/null/PENDING/false". Parts are path-escaped so a "/"
// inside a raw part (unvalidated enums pass through the mapper uncast) can
// never make two different tuples render identically.
func (k Key) String() string {
	escaped := make([]string, len(k.parts))
	for i, p := range k.parts {
		escaped[i] = url.PathEscape(p)
	}
	return strings.Join(escaped, "/")
}

// Equal reports value equality of two keys.
func (k Key) Equal(other Key) bool {
	return k.String() == other.String()
}

// HasPrefix reports whether other is a tuple-wise prefix of k.
func (k Key) HasPrefix(other Key) bool {
	if len(other.parts) > len(k.parts) {
		return false
	}
	for i, p := range other.parts {
		if k.parts[i] != p {
			return false
		}
	}
	return true
}

func newKey(parts ...string) Key {
	return Key{parts: parts}
}

// ListParams are the optional list filters. Zero values mean absent.
type ListParams struct {
	Page       int
	Size       int
	EntityType EntityType
	Status     ApprovalStatus
	MyPending  bool
}

// AllKey prefixes every key of this domain; invalidating it drops all
// cached approval reads.
func AllKey() Key {
	return newKey(keyDomain)
}

// ListKey builds the key for one list read. Defaults are part of the key, so
// ListKey(ListParams{}) and a fully defaulted parameter set are identical.
func ListKey(p ListParams) Key {
	page := p.Page
	if page < 0 {
		page = 0
	}
	size := p.Size
	if size <= 0 {
		size = 10
	}
	entityType := "null"
	if p.EntityType != "" {
		entityType = string(p.EntityType)
	}
	status := "null"
	if p.Status != "" {
		status = string(p.Status)
	}
	return newKey(keyDomain, "list",
		fmt.Sprintf("%d", page),
		fmt.Sprintf("%d", size),
		entityType,
		status,
		fmt.Sprintf("%t", p.MyPending),
	)
}

// DetailKey builds the key for one detail read.
func DetailKey(id int64) Key {
	return newKey(keyDomain, "detail", fmt.Sprintf("%d", id))
}

// HistoryKey builds the key for one history read.
func HistoryKey(id int64) Key {
	return newKey(keyDomain, "history", fmt.Sprintf("%d", id))
}

// PendingCountKey builds the key for the pending-count read. Consumers poll
// this on a short fixed interval rather than receiving pushes.
func PendingCountKey() Key {
	return newKey(keyDomain, "pending-count")
}

// ReadEnabled reports whether an id-keyed read should run at all. Detail and
// history reads are disabled for non-positive ids.
func ReadEnabled(id int64) bool {
	return id > 0
}
