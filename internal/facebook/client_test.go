package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *GraphClient {
	c := NewGraphClient(baseURL, zerolog.Nop())
	c.Limiter = nil
	return c
}

func makeLeads(prefix string, n int) []LeadRecord {
	out := make([]LeadRecord, n)
	for i := range out {
		out[i] = LeadRecord{ID: fmt.Sprintf("%s-%d", prefix, i)}
	}
	return out
}

func TestFetchFormLeads_SummaryFanOut(t *testing.T) {
	var (
		mu       sync.Mutex
		requests int
		offsets  []int
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		mu.Lock()
		requests++
		offsets = append(offsets, offset)
		mu.Unlock()

		resp := map[string]any{}
		switch offset {
		case 0:
			resp["data"] = makeLeads("p1", 1000)
			resp["summary"] = map[string]int{"total_count": 2500}
		case 1000:
			resp["data"] = makeLeads("p2", 1000)
		case 2000:
			resp["data"] = makeLeads("p3", 500)
		default:
			t.Errorf("unexpected offset %d", offset)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	leads, err := testClient(srv.URL).FetchFormLeads(context.Background(), "form1", "token", "Test Form")
	require.NoError(t, err)

	assert.Equal(t, 3, requests, "1 initial + 2 concurrent page requests")
	assert.ElementsMatch(t, []int{0, 1000, 2000}, offsets)
	assert.Len(t, leads, 2500)

	seen := make(map[string]bool, len(leads))
	for _, l := range leads {
		seen[l.ID] = true
	}
	assert.True(t, seen["p1-0"] && seen["p2-999"] && seen["p3-499"], "union of all pages regardless of completion order")
}

func TestFetchFormLeads_CursorFallback(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{}
		if r.URL.Query().Get("cursor") == "2" {
			resp["data"] = []LeadRecord{{ID: "b"}}
		} else {
			resp["data"] = []LeadRecord{{ID: "a"}}
			resp["paging"] = map[string]string{"next": srv.URL + "/leads?cursor=2"}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	leads, err := testClient(srv.URL).FetchFormLeads(context.Background(), "form1", "token", "Test Form")
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "a", leads[0].ID)
	assert.Equal(t, "b", leads[1].ID)
}

func TestFetchFormLeads_UpstreamErrorNamesForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "Invalid OAuth access token"},
		})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchFormLeads(context.Background(), "form1", "bad", "Fitness Leads")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Fitness Leads")
	assert.Contains(t, err.Error(), "Invalid OAuth access token")
}

func TestListForms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/page1/leadgen_forms", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []Form{{ID: "f1", Name: "Form One", Status: "ACTIVE"}},
		})
	}))
	defer srv.Close()

	forms, err := testClient(srv.URL).ListForms(context.Background(), "page1", "token")
	require.NoError(t, err)
	require.Len(t, forms, 1)
	assert.Equal(t, "Form One", forms[0].Name)
}

func TestFetchLead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lg1", r.URL.Path)
		assert.Equal(t, "id,created_time,field_data", r.URL.Query().Get("fields"))
		_ = json.NewEncoder(w).Encode(LeadRecord{
			ID:          "lg1",
			CreatedTime: "2026-08-01T10:00:00+0000",
			FieldData:   []FieldData{{Name: "email", Values: []string{"a@x.com"}}},
		})
	}))
	defer srv.Close()

	lead, err := testClient(srv.URL).FetchLead(context.Background(), "lg1", "token")
	require.NoError(t, err)
	assert.Equal(t, "lg1", lead.ID)
	require.Len(t, lead.FieldData, 1)
}
