package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"pokerlog/internal/repository"
)

// StatsService produces per-user bankroll aggregates over persisted records.
type StatsService struct {
	Repo repository.Repository
}

type StatsSummary struct {
	repository.SessionStats
	WinRate    float64         `json:"win_rate"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
}

func (s *StatsService) Summary(ctx context.Context, userID string) (*StatsSummary, error) {
	if s == nil || s.Repo == nil {
		return nil, fmt.Errorf("stats service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required")
	}
	stats, err := s.Repo.SumSessionStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := &StatsSummary{SessionStats: stats, HourlyRate: decimal.Zero}
	if stats.Sessions > 0 {
		summary.WinRate = float64(stats.WinningCount) / float64(stats.Sessions)
	}
	if stats.HoursPlayed > 0 {
		hours := decimal.NewFromFloat(stats.HoursPlayed)
		summary.HourlyRate = stats.ProfitTotal.DivRound(hours, 2)
	}
	return summary, nil
}
