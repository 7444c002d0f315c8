package models

import "time"

// Lead statuses. New through Lost form the sales funnel; Hot/Warm/Cold are
// operational temperature states; Assigned is written by the auto-assignment engine.
const (
	StatusNew       = "New"
	StatusContacted = "Contacted"
	StatusQualified = "Qualified"
	StatusConverted = "Converted"
	StatusLost      = "Lost"
	StatusHot       = "Hot"
	StatusWarm      = "Warm"
	StatusCold      = "Cold"
	StatusFailed    = "Failed"
	StatusAssigned  = "assigned"
)

const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Assignment strategies accepted in auto-assignment configs.
const (
	StrategyLeastWorkload = "least_workload"
	StrategyPriorityBased = "priority_based"
	StrategyRoundRobin    = "round_robin"
)

type Lead struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Email                 *string    `json:"email"`
	PhoneNumber           *string    `json:"phone_number"`
	City                  *string    `json:"city"`
	Profession            *string    `json:"profession"`
	Status                string     `json:"status"`
	Source                string     `json:"source"`
	Counselor             *string    `json:"counselor"`
	Priority              string     `json:"priority"`
	LeadScore             int        `json:"lead_score"`
	ConversionProbability int        `json:"conversion_probability"`
	FollowUpDate          *time.Time `json:"follow_up_date"`
	LastActivityDate      *time.Time `json:"last_activity_date"`
	Budget                *string    `json:"budget"`
	Timeline              *string    `json:"timeline"`
	Notes                 string     `json:"notes"`
	CreatedAt             time.Time  `json:"created_at"`
}

type LeadAssignment struct {
	ID             string    `json:"id"`
	LeadID         string    `json:"lead_id"`
	AssignedTo     string    `json:"assigned_to"`
	AssignedBy     string    `json:"assigned_by"`
	AssignedAt     time.Time `json:"assigned_at"`
	Status         string    `json:"status"`
	Priority       string    `json:"priority"`
	DueDate        time.Time `json:"due_date"`
	IsAutoAssigned bool      `json:"is_auto_assigned"`
	Notes          string    `json:"notes"`
}

// PageCredential is one connected Facebook page with its page-scoped token.
type PageCredential struct {
	PageID      string `json:"page_id"`
	PageName    string `json:"page_name"`
	AccessToken string `json:"access_token"`
}

// Connection holds every page credential one CRM user has connected. Written by
// the OAuth connection flow; read-only to the ingestion core.
type Connection struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Pages     []PageCredential `json:"pages"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Executive is a CRM user eligible to receive lead assignments, carrying the
// active-assignment count joined in by the store.
type Executive struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	ActiveCount int    `json:"active_count"`
}

type AutoAssignConfig struct {
	ID                   string   `json:"id"`
	CreatedBy            string   `json:"created_by"`
	Enabled              bool     `json:"enabled"`
	WorkingHoursEnabled  bool     `json:"working_hours_enabled"`
	WorkingHoursStart    string   `json:"working_hours_start"`
	WorkingHoursEnd      string   `json:"working_hours_end"`
	Strategy             string   `json:"strategy"`
	MaxPerExecutive      int      `json:"max_per_executive"`
	BlacklistedIDs       []string `json:"blacklisted_ids"`
	PriorityExecutiveIDs []string `json:"priority_executive_ids"`
}

// ExtractedInfo is the normalized output of the field extractor. Every field is
// optional; Notes aggregates any field the alias table does not recognize.
type ExtractedInfo struct {
	Name       string
	Email      string
	Phone      string
	City       string
	Profession string
	Budget     string
	Timeline   string
	Notes      string
}

// SkippedLead is reported in run summaries, never persisted.
type SkippedLead struct {
	LeadID   string  `json:"leadId"`
	Reason   string  `json:"reason"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	FormName string  `json:"formName,omitempty"`
}

// SyncSummary is the result of one aggregator run for one CRM user.
type SyncSummary struct {
	UserID         string        `json:"userId"`
	FormsProcessed int           `json:"formsProcessed"`
	TotalLeads     int           `json:"totalLeads"`
	LeadsInserted  int           `json:"leadsInserted"`
	LeadsSkipped   int           `json:"leadsSkipped"`
	SkippedLeads   []SkippedLead `json:"skippedLeads,omitempty"`
}

// SyncAllSummary aggregates sync results across every credentialed account.
type SyncAllSummary struct {
	TotalAccounts      int             `json:"totalAccounts"`
	Successful         int             `json:"successful"`
	TotalLeadsInserted int             `json:"totalLeadsInserted"`
	Results            []AccountResult `json:"results"`
}

type AccountResult struct {
	UserID        string `json:"userId"`
	Success       bool   `json:"success"`
	LeadsInserted int    `json:"leadsInserted,omitempty"`
	Error         string `json:"error,omitempty"`
}

// WebhookResult is the per-change outcome of one webhook delivery.
type WebhookResult struct {
	LeadgenID string `json:"leadgen_id"`
	Success   bool   `json:"success"`
	Reason    string `json:"reason,omitempty"`
	LeadID    string `json:"leadId,omitempty"`
}
