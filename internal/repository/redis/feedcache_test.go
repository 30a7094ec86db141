package redis

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clarionhq/daypress/internal/domain"
)

func TestFeedKey_FilterDimensions(t *testing.T) {
	workspaceID := uuid.New()
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	base := domain.ListFilter{Type: "article", Page: 1, PageSize: 20}

	variants := []struct {
		name   string
		filter domain.ListFilter
	}{
		{"from", domain.ListFilter{Type: "article", From: &from, Page: 1, PageSize: 20}},
		{"to", domain.ListFilter{Type: "article", To: &to, Page: 1, PageSize: 20}},
		{"from and to", domain.ListFilter{Type: "article", From: &from, To: &to, Page: 1, PageSize: 20}},
		{"category", domain.ListFilter{Type: "article", Category: "events", Page: 1, PageSize: 20}},
		{"region", domain.ListFilter{Type: "article", RegionID: uuid.New(), Page: 1, PageSize: 20}},
		{"search", domain.ListFilter{Type: "article", Search: "market", Page: 1, PageSize: 20}},
		{"page", domain.ListFilter{Type: "article", Page: 2, PageSize: 20}},
	}

	baseKey := feedKey(workspaceID, base)
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			if key := feedKey(workspaceID, v.filter); key == baseKey {
				t.Errorf("filter differing by %s shares cache key %q", v.name, key)
			}
		})
	}
}

func TestFeedKey_Stable(t *testing.T) {
	workspaceID := uuid.New()
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	a := feedKey(workspaceID, domain.ListFilter{Type: "notice", From: &from, Page: 1, PageSize: 20})
	b := feedKey(workspaceID, domain.ListFilter{Type: "notice", From: &from, Page: 1, PageSize: 20})
	if a != b {
		t.Errorf("identical filters produced different keys: %q vs %q", a, b)
	}
}

func TestFeedKey_WorkspacePrefix(t *testing.T) {
	workspaceID := uuid.New()
	key := feedKey(workspaceID, domain.ListFilter{Page: 1, PageSize: 20})

	// Invalidate scans on this prefix; every key must start with it.
	prefix := feedCachePrefix + workspaceID.String() + ":"
	if !strings.HasPrefix(key, prefix) {
		t.Errorf("key %q does not start with workspace prefix %q", key, prefix)
	}
}
