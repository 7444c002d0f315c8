package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/facebook"
	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/models"
)

// ErrNoConnection is returned when a user has no stored Facebook credentials.
var ErrNoConnection = errors.New("no facebook connection found")

const (
	ReasonMissingFields = "Missing required fields"
	ReasonAlreadyExists = "Lead already exists"
)

// SyncStore is the lead-store surface the batch pipeline needs.
type SyncStore interface {
	GetConnectionByUserID(ctx context.Context, userID string) (*models.Connection, error)
	ListConnections(ctx context.Context) ([]models.Connection, error)
	LeadExists(ctx context.Context, email, phone *string) (bool, error)
	InsertLeads(ctx context.Context, leads []models.Lead) ([]string, error)
}

// SyncService aggregates Facebook leads across all of a user's connected pages
// and forms, deduplicates them against the lead store, and bulk-persists the
// remainder. Limiter paces account-to-account fan-out in SyncAll.
type SyncService struct {
	Store   SyncStore
	FB      facebook.Client
	Logger  zerolog.Logger
	Limiter *rate.Limiter
}

// formLeads is one (page, form) group of fetched leads.
type formLeads struct {
	Page  models.PageCredential
	Form  facebook.Form
	Leads []facebook.LeadRecord
}

// SyncUser runs the batch pipeline for one CRM user. Credential load, form
// listing, and page fetches are hard failures for the run; per-lead skip
// conditions are recorded in the summary and never abort it.
func (s *SyncService) SyncUser(ctx context.Context, userID string) (models.SyncSummary, error) {
	conn, err := s.Store.GetConnectionByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.SyncSummary{}, fmt.Errorf("%w for user %s", ErrNoConnection, userID)
		}
		return models.SyncSummary{}, fmt.Errorf("load connection for user %s: %w", userID, err)
	}

	groups, err := s.fetchAllForms(ctx, conn.Pages)
	if err != nil {
		return models.SyncSummary{}, err
	}

	summary := models.SyncSummary{UserID: userID, FormsProcessed: len(groups)}
	var newLeads []models.Lead

	for _, group := range groups {
		for _, record := range group.Leads {
			info := ExtractLeadInfo(record.FieldData)

			if !HasRequiredFields(info) {
				summary.SkippedLeads = append(summary.SkippedLeads, models.SkippedLead{
					LeadID:   record.ID,
					Reason:   ReasonMissingFields,
					Email:    optional(info.Email),
					Phone:    optional(info.Phone),
					FormName: group.Form.Name,
				})
				continue
			}

			email := optional(info.Email)
			phone := optional(info.Phone)

			exists, err := s.Store.LeadExists(ctx, email, phone)
			if err != nil {
				// Fail open: a store hiccup must not stall ingestion, at the
				// cost of a possible duplicate.
				s.Logger.Warn().Err(err).Str("lead_id", record.ID).Msg("existence check failed, treating as new")
				exists = false
			}
			if exists {
				summary.SkippedLeads = append(summary.SkippedLeads, models.SkippedLead{
					LeadID:   record.ID,
					Reason:   ReasonAlreadyExists,
					Email:    email,
					Phone:    phone,
					FormName: group.Form.Name,
				})
				continue
			}

			newLeads = append(newLeads, BuildLead(info, record,
				fmt.Sprintf("Facebook - %s", group.Page.PageName),
				fmt.Sprintf("Form: %s", group.Form.Name),
				models.PriorityMedium))
		}
	}

	ids, err := s.Store.InsertLeads(ctx, newLeads)
	if err != nil {
		return models.SyncSummary{}, fmt.Errorf("bulk insert leads for user %s: %w", userID, err)
	}

	summary.LeadsInserted = len(ids)
	summary.LeadsSkipped = len(summary.SkippedLeads)
	summary.TotalLeads = summary.LeadsInserted + summary.LeadsSkipped
	return summary, nil
}

// fetchAllForms fans out across pages and, per page, across forms. Any single
// failure aborts the whole fetch.
func (s *SyncService) fetchAllForms(ctx context.Context, pages []models.PageCredential) ([]formLeads, error) {
	var (
		mu     sync.Mutex
		groups []formLeads
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, page := range pages {
		page := page
		g.Go(func() error {
			forms, err := s.FB.ListForms(gctx, page.PageID, page.AccessToken)
			if err != nil {
				return err
			}

			fg, fctx := errgroup.WithContext(gctx)
			for _, form := range forms {
				form := form
				fg.Go(func() error {
					leads, err := s.FB.FetchFormLeads(fctx, form.ID, page.AccessToken, form.Name)
					if err != nil {
						return err
					}
					mu.Lock()
					groups = append(groups, formLeads{Page: page, Form: form, Leads: leads})
					mu.Unlock()
					return nil
				})
			}
			return fg.Wait()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return groups, nil
}

// SyncAll runs the aggregator for every credentialed account sequentially,
// pacing accounts through the limiter to respect upstream rate limits. One
// account's failure is captured and never aborts the loop.
func (s *SyncService) SyncAll(ctx context.Context) (models.SyncAllSummary, error) {
	conns, err := s.Store.ListConnections(ctx)
	if err != nil {
		return models.SyncAllSummary{}, fmt.Errorf("list connections: %w", err)
	}

	summary := models.SyncAllSummary{TotalAccounts: len(conns)}
	for _, conn := range conns {
		if s.Limiter != nil {
			if err := s.Limiter.Wait(ctx); err != nil {
				return summary, err
			}
		}

		userSummary, err := s.SyncUser(ctx, conn.UserID)
		if err != nil {
			s.Logger.Error().Err(err).Str("user_id", conn.UserID).Msg("account sync failed")
			summary.Results = append(summary.Results, models.AccountResult{
				UserID:  conn.UserID,
				Success: false,
				Error:   err.Error(),
			})
			continue
		}

		summary.Successful++
		summary.TotalLeadsInserted += userSummary.LeadsInserted
		summary.Results = append(summary.Results, models.AccountResult{
			UserID:        conn.UserID,
			Success:       true,
			LeadsInserted: userSummary.LeadsInserted,
		})
	}
	return summary, nil
}

// BuildLead turns an extracted record into a persistable lead row. The notes
// record provenance: the source form, the external lead id, its creation time,
// and whatever the extractor could not map.
func BuildLead(info models.ExtractedInfo, record facebook.LeadRecord, source, provenance, priority string) models.Lead {
	notes := fmt.Sprintf("%s\nLead ID: %s\nCreated: %s", provenance, record.ID, record.CreatedTime)
	if info.Notes != "" {
		notes += "\n" + info.Notes
	}

	return models.Lead{
		Name:                  info.Name,
		Email:                 optional(info.Email),
		PhoneNumber:           optional(info.Phone),
		City:                  optional(info.City),
		Profession:            optional(info.Profession),
		Status:                models.StatusNew,
		Source:                source,
		Priority:              priority,
		LeadScore:             0,
		ConversionProbability: 0,
		Budget:                optional(info.Budget),
		Timeline:              optional(info.Timeline),
		Notes:                 notes,
		CreatedAt:             time.Now().UTC(),
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
