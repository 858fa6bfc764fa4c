package service

import (
	"context"
	"time"

	domainErrors "github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/cassiomorais/courts/internal/domain/report"
)

const defaultTopUsers = 10

// ReportService exposes the fixed set of read-only reports.
type ReportService struct {
	reportRepo report.Repository
}

func NewReportService(reportRepo report.Repository) *ReportService {
	return &ReportService{reportRepo: reportRepo}
}

func (s *ReportService) BookingsByStatus(ctx context.Context) ([]report.StatusCount, error) {
	return s.reportRepo.BookingsByStatus(ctx)
}

func (s *ReportService) CourtUsage(ctx context.Context) ([]report.CourtUsage, error) {
	return s.reportRepo.CourtUsage(ctx)
}

func (s *ReportService) BookingsByDay(ctx context.Context, from, to time.Time) ([]report.DayCount, error) {
	rng, err := report.NewDateRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.reportRepo.BookingsByDay(ctx, rng)
}

func (s *ReportService) RevenueByCourt(ctx context.Context, from, to time.Time) ([]report.CourtRevenue, error) {
	rng, err := report.NewDateRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.reportRepo.RevenueByCourt(ctx, rng)
}

// TopUsers ranks users by booking count. A zero limit means the default of 10.
func (s *ReportService) TopUsers(ctx context.Context, limit int) ([]report.UserBookings, error) {
	if limit == 0 {
		limit = defaultTopUsers
	}
	if limit < 0 || limit > report.MaxTopUsers {
		return nil, domainErrors.NewValidationError("limit", "must be between 1 and 100")
	}
	return s.reportRepo.TopUsers(ctx, limit)
}

func (s *ReportService) RevenueByMonth(ctx context.Context, from, to time.Time) ([]report.PeriodRevenue, error) {
	rng, err := report.NewDateRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.reportRepo.RevenueByMonth(ctx, rng)
}

func (s *ReportService) RevenueByDay(ctx context.Context, from, to time.Time) ([]report.PeriodRevenue, error) {
	rng, err := report.NewDateRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.reportRepo.RevenueByDay(ctx, rng)
}

func (s *ReportService) RevenueByCourtType(ctx context.Context) ([]report.CourtTypeRevenue, error) {
	return s.reportRepo.RevenueByCourtType(ctx)
}

func (s *ReportService) RevenueByUser(ctx context.Context) ([]report.UserRevenue, error) {
	return s.reportRepo.RevenueByUser(ctx)
}

func (s *ReportService) BookingsByHour(ctx context.Context) ([]report.HourCount, error) {
	return s.reportRepo.BookingsByHour(ctx)
}

func (s *ReportService) BookingsByCourtType(ctx context.Context) ([]report.CourtTypeCount, error) {
	return s.reportRepo.BookingsByCourtType(ctx)
}
