package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/facebook"
	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/models"
)

// WebhookEvent is the push payload Facebook delivers for leadgen changes.
type WebhookEvent struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string `json:"field"`
	Value struct {
		LeadgenID string `json:"leadgen_id"`
		PageID    string `json:"page_id"`
		FormID    string `json:"form_id"`
	} `json:"value"`
}

// VerifySignature checks the x-hub-signature-256 header against an HMAC-SHA256
// of the raw body. The comparison is constant time.
func VerifySignature(body []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// WebhookService handles real-time lead pushes. Leads arriving here share the
// batch pipeline's extraction and dedup logic but are persisted immediately
// with High priority.
type WebhookService struct {
	Store  SyncStore
	FB     facebook.Client
	Logger zerolog.Logger
	Secret string
}

// ProcessEvent handles every leadgen change in the event independently: one
// change's failure is captured in its result and never blocks the others.
func (w *WebhookService) ProcessEvent(ctx context.Context, event WebhookEvent) []models.WebhookResult {
	var results []models.WebhookResult

	if !strings.EqualFold(event.Object, "page") {
		return results
	}

	for _, entry := range event.Entry {
		for _, change := range entry.Changes {
			if change.Field != "leadgen" {
				continue
			}

			result := models.WebhookResult{LeadgenID: change.Value.LeadgenID}
			leadID, err := w.processChange(ctx, change)
			if err != nil {
				w.Logger.Error().Err(err).Str("leadgen_id", change.Value.LeadgenID).Msg("webhook lead processing failed")
				result.Reason = err.Error()
			} else {
				result.Success = true
				result.LeadID = leadID
			}
			results = append(results, result)
		}
	}
	return results
}

func (w *WebhookService) processChange(ctx context.Context, change WebhookChange) (string, error) {
	token, err := w.resolvePageToken(ctx, change.Value.PageID)
	if err != nil {
		return "", err
	}

	record, err := w.FB.FetchLead(ctx, change.Value.LeadgenID, token.AccessToken)
	if err != nil {
		return "", err
	}

	info := ExtractLeadInfo(record.FieldData)
	if !HasRequiredFields(info) {
		return "", fmt.Errorf("%s", ReasonMissingFields)
	}

	exists, err := w.Store.LeadExists(ctx, optional(info.Email), optional(info.Phone))
	if err != nil {
		w.Logger.Warn().Err(err).Str("lead_id", record.ID).Msg("existence check failed, treating as new")
		exists = false
	}
	if exists {
		return "", fmt.Errorf("%s", ReasonAlreadyExists)
	}

	lead := BuildLead(info, *record,
		fmt.Sprintf("Facebook - %s", token.PageName),
		"Received via Webhook",
		models.PriorityHigh)

	ids, err := w.Store.InsertLeads(ctx, []models.Lead{lead})
	if err != nil {
		return "", fmt.Errorf("insert lead: %w", err)
	}
	return ids[0], nil
}

// resolvePageToken scans every stored connection for one holding the page.
// First match wins; page ids are assumed unique across accounts.
func (w *WebhookService) resolvePageToken(ctx context.Context, pageID string) (*models.PageCredential, error) {
	conns, err := w.Store.ListConnections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	for _, conn := range conns {
		for _, page := range conn.Pages {
			if page.PageID == pageID {
				return &page, nil
			}
		}
	}
	return nil, fmt.Errorf("no access token found for page %s", pageID)
}
