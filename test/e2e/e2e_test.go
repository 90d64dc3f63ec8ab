//go:build e2e

package e2e_test

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"

	"github.com/vyrodovalexey/catalog-api/internal/client"
	"github.com/vyrodovalexey/catalog-api/internal/model"
)

// TestE2E_CreateSearchReadWorkflow exercises the user journey:
// create → search → read by id → paginate.
func TestE2E_CreateSearchReadWorkflow(t *testing.T) {
	skipIfServerUnavailable(t)

	c := newClient()
	ctx := testContext(t)
	name := uniqueName("E2E Workflow Item")

	// Step 1: Create
	t.Log("Step 1: Create item")
	created, err := c.CreateItem(ctx, map[string]any{
		"name":     name,
		"price":    99.99,
		"category": "E2E",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("Created item has no id")
	}
	t.Logf("Created item ID=%d", created.ID)

	// Step 2: Search, in a different case
	t.Log("Step 2: Search item")
	listing, err := c.FetchItems(ctx, client.Options{Q: name})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if listing.Pagination != nil {
		t.Errorf("Expected a bare listing, got pagination %+v", listing.Pagination)
	}
	if len(listing.Items) != 1 || listing.Items[0].ID != created.ID {
		t.Errorf("Expected exactly the created item, got %d items", len(listing.Items))
	}

	// Step 3: Read
	t.Log("Step 3: Read item")
	read, err := c.GetItem(ctx, strconv.FormatInt(created.ID, 10))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if read.Name != name || read.Category() != "E2E" {
		t.Errorf("Read item mismatch: %+v", read)
	}
	if price, ok := read.Price(); !ok || price != 99.99 {
		t.Errorf("Expected price 99.99, got %v (%t)", price, ok)
	}

	// Step 4: Paginate
	t.Log("Step 4: Paginate")
	page, err := c.FetchItems(ctx, client.Options{Page: 1, PageSize: 1})
	if err != nil {
		t.Fatalf("Paginate failed: %v", err)
	}
	if page.Pagination == nil {
		t.Fatal("Expected a pagination envelope")
	}
	if page.Pagination.Total < 1 || len(page.Items) != 1 {
		t.Errorf("Unexpected page: %d items, pagination %+v", len(page.Items), page.Pagination)
	}
	if page.Pagination.HasMore != (page.Pagination.Total > 1) {
		t.Errorf("hasMore %t inconsistent with total %d", page.Pagination.HasMore, page.Pagination.Total)
	}
}

// TestE2E_ErrorResponses verifies the error contract of the deployed server.
func TestE2E_ErrorResponses(t *testing.T) {
	skipIfServerUnavailable(t)

	c := newClient()
	ctx := testContext(t)

	testCases := []struct {
		name       string
		call       func() error
		wantStatus int
		wantMsg    string
	}{
		{
			name: "invalid id",
			call: func() error {
				_, err := c.GetItem(ctx, "abc")
				return err
			},
			wantStatus: http.StatusBadRequest,
			wantMsg:    model.MsgInvalidItemID,
		},
		{
			name: "unknown id",
			call: func() error {
				_, err := c.GetItem(ctx, "-1")
				return err
			},
			wantStatus: http.StatusNotFound,
			wantMsg:    model.MsgItemNotFound,
		},
		{
			name: "blank name",
			call: func() error {
				_, err := c.CreateItem(ctx, map[string]any{"name": " "})
				return err
			},
			wantStatus: http.StatusBadRequest,
			wantMsg:    model.MsgNameRequired,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()

			var apiErr *client.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *client.APIError, got %v", err)
			}
			if apiErr.Status != tc.wantStatus || apiErr.Message != tc.wantMsg {
				t.Errorf("Expected %d %q, got %d %q", tc.wantStatus, tc.wantMsg, apiErr.Status, apiErr.Message)
			}
		})
	}
}

// TestE2E_ConcurrentCreates verifies that concurrent creations all succeed
// and receive distinct ids.
func TestE2E_ConcurrentCreates(t *testing.T) {
	skipIfServerUnavailable(t)

	c := newClient()
	ctx := testContext(t)

	const numConcurrent = 10
	var wg sync.WaitGroup

	type result struct {
		id  int64
		err error
	}
	results := make(chan result, numConcurrent)

	for i := range numConcurrent {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			item, err := c.CreateItem(ctx, map[string]any{
				"name":  uniqueName(fmt.Sprintf("Concurrent Item %d", idx)),
				"price": float64(idx) * 10.0,
			})
			if err != nil {
				results <- result{err: err}
				return
			}
			results <- result{id: item.ID}
		}(i)
	}

	wg.Wait()
	close(results)

	ids := make(map[int64]bool, numConcurrent)
	for r := range results {
		if r.err != nil {
			t.Errorf("Concurrent create failed: %v", r.err)
			continue
		}
		if ids[r.id] {
			t.Errorf("Duplicate id %d", r.id)
		}
		ids[r.id] = true
	}

	t.Logf("Concurrent creates: %d/%d succeeded", len(ids), numConcurrent)
}

// TestE2E_Stats verifies that the stats endpoint reflects the collection.
func TestE2E_Stats(t *testing.T) {
	skipIfServerUnavailable(t)

	c := newClient()
	ctx := testContext(t)

	before, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if _, err := c.CreateItem(ctx, map[string]any{"name": uniqueName("Stats Item")}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	after, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if after.Total < before.Total+1 {
		t.Errorf("Expected total to grow from %d, got %d", before.Total, after.Total)
	}
}
