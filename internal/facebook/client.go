package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const defaultPageSize = 1000

// Client is the Graph API surface the ingestion pipelines need.
type Client interface {
	ListForms(ctx context.Context, pageID, accessToken string) ([]Form, error)
	FetchFormLeads(ctx context.Context, formID, accessToken, formName string) ([]LeadRecord, error)
	FetchLead(ctx context.Context, leadgenID, accessToken string) (*LeadRecord, error)
}

// Form is a lead-generation form as listed by the Graph API. Forms are fetched
// on demand and never persisted.
type Form struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// FieldData is one (name, values) pair of a submitted lead. Field names vary
// freely between forms.
type FieldData struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type LeadRecord struct {
	ID          string      `json:"id"`
	CreatedTime string      `json:"created_time"`
	FieldData   []FieldData `json:"field_data"`
}

type leadsResponse struct {
	Data   []LeadRecord `json:"data"`
	Paging *struct {
		Next string `json:"next"`
	} `json:"paging"`
	Summary *struct {
		TotalCount int `json:"total_count"`
	} `json:"summary"`
}

type formsResponse struct {
	Data []Form `json:"data"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GraphClient talks to the Facebook Graph API. The limiter paces all outgoing
// requests so form fan-out cannot trip platform rate limits.
type GraphClient struct {
	BaseURL string
	HTTP    *http.Client
	Limiter *rate.Limiter
	Logger  zerolog.Logger
}

func NewGraphClient(baseURL string, logger zerolog.Logger) *GraphClient {
	return &GraphClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Limiter: rate.NewLimiter(rate.Limit(10), 10),
		Logger:  logger.With().Str("component", "facebook").Logger(),
	}
}

func (c *GraphClient) ListForms(ctx context.Context, pageID, accessToken string) ([]Form, error) {
	endpoint := fmt.Sprintf("%s/%s/leadgen_forms?access_token=%s", c.BaseURL, pageID, url.QueryEscape(accessToken))

	var out formsResponse
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return nil, fmt.Errorf("list forms for page %s: %w", pageID, err)
	}
	return out.Data, nil
}

// FetchFormLeads retrieves every lead submitted to one form. The first request
// asks for a total-count summary; when present, all trailing pages are fetched
// concurrently by offset. Without a summary it falls back to sequential cursor
// following. Any failed request aborts the whole form.
func (c *GraphClient) FetchFormLeads(ctx context.Context, formID, accessToken, formName string) ([]LeadRecord, error) {
	endpoint := fmt.Sprintf("%s/%s/leads?access_token=%s&limit=%d&summary=total_count",
		c.BaseURL, formID, url.QueryEscape(accessToken), defaultPageSize)

	var first leadsResponse
	if err := c.getJSON(ctx, endpoint, &first); err != nil {
		return nil, fmt.Errorf("failed to fetch leads for form %q: %w", formName, err)
	}

	leads := first.Data

	if first.Summary != nil && first.Summary.TotalCount > defaultPageSize {
		totalPages := (first.Summary.TotalCount + defaultPageSize - 1) / defaultPageSize

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		for page := 1; page < totalPages; page++ {
			offset := page * defaultPageSize
			g.Go(func() error {
				pageURL := fmt.Sprintf("%s/%s/leads?access_token=%s&limit=%d&offset=%d",
					c.BaseURL, formID, url.QueryEscape(accessToken), defaultPageSize, offset)
				var resp leadsResponse
				if err := c.getJSON(gctx, pageURL, &resp); err != nil {
					return fmt.Errorf("failed to fetch leads for form %q: %w", formName, err)
				}
				mu.Lock()
				leads = append(leads, resp.Data...)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return leads, nil
	}

	next := ""
	if first.Paging != nil {
		next = first.Paging.Next
	}
	for next != "" {
		var resp leadsResponse
		if err := c.getJSON(ctx, next, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch leads for form %q: %w", formName, err)
		}
		leads = append(leads, resp.Data...)
		next = ""
		if resp.Paging != nil {
			next = resp.Paging.Next
		}
	}
	return leads, nil
}

func (c *GraphClient) FetchLead(ctx context.Context, leadgenID, accessToken string) (*LeadRecord, error) {
	endpoint := fmt.Sprintf("%s/%s?access_token=%s&fields=id,created_time,field_data",
		c.BaseURL, leadgenID, url.QueryEscape(accessToken))

	var lead LeadRecord
	if err := c.getJSON(ctx, endpoint, &lead); err != nil {
		return nil, fmt.Errorf("fetch lead %s: %w", leadgenID, err)
	}
	return &lead, nil
}

func (c *GraphClient) getJSON(ctx context.Context, endpoint string, out any) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("%s", apiErr.Error.Message)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
