package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/models"
)

const (
	assignmentActor   = "auto-assignment"
	assignmentDueDays = 7
	pendingLeadLimit  = 10
)

// AssignStore is the store surface the auto-assignment engine needs.
type AssignStore interface {
	ListEnabledAutoAssignConfigs(ctx context.Context) ([]models.AutoAssignConfig, error)
	ListExecutives(ctx context.Context) ([]models.Executive, error)
	ListActivelyAssignedLeadIDs(ctx context.Context) ([]string, error)
	ListPendingLeads(ctx context.Context, excludeIDs []string, limit int) ([]models.Lead, error)
	InsertAssignment(ctx context.Context, a models.LeadAssignment) (string, error)
	DeleteAssignment(ctx context.Context, id string) error
	MarkLeadAssigned(ctx context.Context, leadID, counselor string) error
}

// AssignmentService distributes pending leads to executives under the
// configured strategies. Rand seeds the round_robin shuffle and Now the
// working-hours gate; both are injectable so runs can be made deterministic.
type AssignmentService struct {
	Store  AssignStore
	Logger zerolog.Logger
	Rand   *rand.Rand
	Now    func() time.Time
}

// Run executes every enabled configuration and returns the total number of
// assignments made. A failing configuration is skipped, never fatal.
func (s *AssignmentService) Run(ctx context.Context) (int, error) {
	configs, err := s.Store.ListEnabledAutoAssignConfigs(ctx)
	if err != nil {
		return 0, fmt.Errorf("load auto-assign configs: %w", err)
	}

	total := 0
	for _, cfg := range configs {
		n, err := s.runConfig(ctx, cfg)
		if err != nil {
			s.Logger.Error().Err(err).Str("config_id", cfg.ID).Msg("auto-assign config failed, skipping")
			continue
		}
		total += n
	}
	return total, nil
}

func (s *AssignmentService) runConfig(ctx context.Context, cfg models.AutoAssignConfig) (int, error) {
	if cfg.WorkingHoursEnabled && !s.withinWorkingHours(cfg) {
		s.Logger.Debug().Str("config_id", cfg.ID).Msg("outside working hours, skipping")
		return 0, nil
	}

	executives, err := s.Store.ListExecutives(ctx)
	if err != nil {
		return 0, fmt.Errorf("load executives: %w", err)
	}

	pool := availablePool(executives, cfg)
	if len(pool) == 0 {
		return 0, nil
	}

	assignedIDs, err := s.Store.ListActivelyAssignedLeadIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("load active assignments: %w", err)
	}
	leads, err := s.Store.ListPendingLeads(ctx, assignedIDs, pendingLeadLimit)
	if err != nil {
		return 0, fmt.Errorf("load pending leads: %w", err)
	}
	if len(leads) == 0 {
		return 0, nil
	}

	sortLeadsByPriority(leads)
	pool = s.orderPool(pool, cfg)

	counts := make(map[string]int, len(pool))
	for _, e := range pool {
		counts[e.ID] = e.ActiveCount
	}

	maxLeads := len(leads)
	if limit := len(pool) * 2; limit < maxLeads {
		maxLeads = limit
	}

	now := s.now()
	assigned := 0
	for i := 0; i < maxLeads; i++ {
		lead := leads[i]
		exec := pool[i%len(pool)]

		if cfg.MaxPerExecutive > 0 && counts[exec.ID] >= cfg.MaxPerExecutive {
			continue
		}

		assignmentID, err := s.Store.InsertAssignment(ctx, models.LeadAssignment{
			LeadID:         lead.ID,
			AssignedTo:     exec.ID,
			AssignedBy:     assignmentActor,
			AssignedAt:     now,
			Status:         "active",
			Priority:       lead.Priority,
			DueDate:        now.AddDate(0, 0, assignmentDueDays),
			IsAutoAssigned: true,
			Notes:          fmt.Sprintf("Auto-assigned via %s strategy", strategyName(cfg.Strategy)),
		})
		if err != nil {
			s.Logger.Error().Err(err).Str("lead_id", lead.ID).Msg("assignment insert failed")
			continue
		}

		// The assignment insert and the lead update form one logical unit. The
		// store surface has no transaction here, so a failed update rolls the
		// assignment back with a compensating delete.
		if err := s.Store.MarkLeadAssigned(ctx, lead.ID, exec.FullName); err != nil {
			s.Logger.Error().Err(err).Str("lead_id", lead.ID).Msg("lead update failed, rolling back assignment")
			if delErr := s.Store.DeleteAssignment(ctx, assignmentID); delErr != nil {
				s.Logger.Error().Err(delErr).Str("assignment_id", assignmentID).Msg("compensating delete failed")
			}
			continue
		}

		counts[exec.ID]++
		assigned++
	}
	return assigned, nil
}

// availablePool drops blacklisted executives and those already at their cap.
func availablePool(executives []models.Executive, cfg models.AutoAssignConfig) []models.Executive {
	blacklisted := make(map[string]bool, len(cfg.BlacklistedIDs))
	for _, id := range cfg.BlacklistedIDs {
		blacklisted[id] = true
	}

	pool := make([]models.Executive, 0, len(executives))
	for _, e := range executives {
		if blacklisted[e.ID] {
			continue
		}
		if cfg.MaxPerExecutive > 0 && e.ActiveCount >= cfg.MaxPerExecutive {
			continue
		}
		pool = append(pool, e)
	}
	return pool
}

func priorityRank(priority string) int {
	switch priority {
	case models.PriorityHigh:
		return 1
	case models.PriorityMedium:
		return 2
	case models.PriorityLow:
		return 3
	default:
		return 999
	}
}

func sortLeadsByPriority(leads []models.Lead) {
	sort.SliceStable(leads, func(i, j int) bool {
		return priorityRank(leads[i].Priority) < priorityRank(leads[j].Priority)
	})
}

func (s *AssignmentService) orderPool(pool []models.Executive, cfg models.AutoAssignConfig) []models.Executive {
	switch cfg.Strategy {
	case models.StrategyLeastWorkload:
		sort.SliceStable(pool, func(i, j int) bool {
			if pool[i].ActiveCount == pool[j].ActiveCount {
				return pool[i].ID < pool[j].ID
			}
			return pool[i].ActiveCount < pool[j].ActiveCount
		})

	case models.StrategyPriorityBased:
		listed := make(map[string]int, len(cfg.PriorityExecutiveIDs))
		for i, id := range cfg.PriorityExecutiveIDs {
			listed[id] = i
		}
		sort.SliceStable(pool, func(i, j int) bool {
			pi, iListed := listed[pool[i].ID]
			pj, jListed := listed[pool[j].ID]
			switch {
			case iListed && jListed:
				return pi < pj
			case iListed:
				return true
			case jListed:
				return false
			default:
				return pool[i].ActiveCount < pool[j].ActiveCount
			}
		})

	case models.StrategyRoundRobin:
		// An approximation: a real rotation would need persisted cursor state.
		r := s.Rand
		if r == nil {
			r = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		r.Shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})
	}
	return pool
}

func strategyName(strategy string) string {
	if strategy == "" {
		return "default"
	}
	return strategy
}

func (s *AssignmentService) withinWorkingHours(cfg models.AutoAssignConfig) bool {
	start, err := parseMinuteOfDay(cfg.WorkingHoursStart)
	if err != nil {
		return true
	}
	end, err := parseMinuteOfDay(cfg.WorkingHoursEnd)
	if err != nil {
		return true
	}

	now := s.now()
	current := now.Hour()*60 + now.Minute()
	return current >= start && current <= end
}

func parseMinuteOfDay(v string) (int, error) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q", v)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	return hour*60 + minute, nil
}

func (s *AssignmentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
