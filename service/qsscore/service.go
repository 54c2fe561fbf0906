/*
 * @module service/qsscore/service
 * @description QS Score data service: gathers per-area activity snapshots, persists score rows and serves dashboard/risk-map reads
 * @architecture service layer
 * @documentReference dev_docs/qs_score_requirements.md
 * @stateFlow fetch snapshot -> ComputeScore -> append QSScore row; current score is always the newest row for a key
 * @rules independent reads run concurrently; absent data becomes zero values; storage failures propagate to the caller untouched
 * @dependencies gorm.io/gorm, golang.org/x/sync/errgroup
 * @refs service/qsscore/score.go, service/qsscore/recalc.go
 */

package qsscore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qs-service/service/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// windowDays trailing activity window applied to visits and complaints
const windowDays = 90

// Service QS Score engine over the relational store
type Service struct {
	db *gorm.DB
}

// NewService creates the QS Score service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// FetchAreaData gathers the raw counts and lists one area needs as formula
// input. Reads are independent and issued concurrently. The returned input
// is always fully populated; only storage failures produce an error.
func (s *Service) FetchAreaData(ctx context.Context, areaID string) (ScoreInput, error) {
	since := time.Now().AddDate(0, 0, -windowDays)

	var (
		pendingCount     int64
		resolvedCount    int64
		collaborators    int64
		totalComplaints  int64
		leadershipCount  int64
		visits           []models.Visit
		resolved         []models.Complaint
		latestComplaint  models.Complaint
		hasLatest        bool
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Pendency{}).
			Where("area_id = ? AND status = ?", areaID, models.PendencyStatusOpen).
			Count(&pendingCount).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Pendency{}).
			Where("area_id = ? AND status = ?", areaID, models.PendencyStatusResolved).
			Count(&resolvedCount).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Preload("Evaluations").
			Where("area_id = ? AND created_at >= ?", areaID, since).
			Find(&visits).Error
	})
	g.Go(func() error {
		// current headcount, not window-restricted
		return s.db.WithContext(gctx).Model(&models.CollaboratorProfile{}).
			Where("area_id = ? AND status = ?", areaID, models.CollaboratorStatusActive).
			Count(&collaborators).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Where("area_id = ? AND status = ? AND resolved_at IS NOT NULL AND created_at >= ?",
				areaID, models.ComplaintStatusResolved, since).
			Find(&resolved).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Complaint{}).
			Where("area_id = ? AND created_at >= ?", areaID, since).
			Count(&totalComplaints).Error
	})
	g.Go(func() error {
		// leadership ownership is a text convention on the responsible field
		return s.db.WithContext(gctx).Model(&models.Pendency{}).
			Where("area_id = ? AND status = ? AND LOWER(responsible) LIKE ?",
				areaID, models.PendencyStatusOpen, "%lider%").
			Count(&leadershipCount).Error
	})
	g.Go(func() error {
		// most recent complaint ever, any window
		err := s.db.WithContext(gctx).
			Where("area_id = ?", areaID).
			Order("created_at DESC").
			First(&latestComplaint).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err == nil {
			hasLatest = true
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return ScoreInput{}, fmt.Errorf("fetching area %s data: %w", areaID, err)
	}

	input := ScoreInput{
		PendingCount:           int(pendingCount),
		ResolvedCount:          int(resolvedCount),
		Visits:                 snapshotVisits(visits),
		CollaboratorsCount:     int(collaborators),
		ResolvedComplaints:     snapshotResolutions(resolved),
		TotalComplaintsCount:   int(totalComplaints),
		LeadershipPendingCount: int(leadershipCount),
	}
	if hasLatest {
		t := latestComplaint.CreatedAt
		input.LatestComplaintAt = &t
	}
	return input, nil
}

// ScoreArea computes and persists a fresh score row for one area.
func (s *Service) ScoreArea(ctx context.Context, areaID string) (*models.QSScore, error) {
	var area models.Area
	if err := s.db.WithContext(ctx).First(&area, "id = ?", areaID).Error; err != nil {
		return nil, fmt.Errorf("loading area %s: %w", areaID, err)
	}

	input, err := s.FetchAreaData(ctx, areaID)
	if err != nil {
		return nil, err
	}

	row := newScoreRow(area.CompanyID, &area.ID, ComputeScore(input))
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("persisting area score: %w", err)
	}
	return row, nil
}

// GetCompanyScore returns the current company aggregate score. The first
// access for a company with no score history bootstraps a full recalculation.
func (s *Service) GetCompanyScore(ctx context.Context, companyID string) (*models.QSScore, error) {
	var score models.QSScore
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND area_id IS NULL", companyID).
		Order("created_at DESC").
		First(&score).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if recalcErr := s.PerformRecalculation(ctx, companyID); recalcErr != nil {
			return nil, recalcErr
		}
		err = s.db.WithContext(ctx).
			Where("company_id = ? AND area_id IS NULL", companyID).
			Order("created_at DESC").
			First(&score).Error
	}
	if err != nil {
		return nil, fmt.Errorf("loading company %s score: %w", companyID, err)
	}
	return &score, nil
}

// AreaRiskEntry latest per-area score with the coarse risk color for maps
type AreaRiskEntry struct {
	AreaID         string    `json:"area_id"`
	AreaName       string    `json:"area_name"`
	Score          int       `json:"score"`
	Classification string    `json:"classification"`
	RiskColor      string    `json:"risk_color"`
	CalculatedAt   time.Time `json:"calculated_at"`
}

// GetAreaScores returns the most recent score per area of a company,
// decorated with the risk color. Areas never scored are omitted.
func (s *Service) GetAreaScores(ctx context.Context, companyID string) ([]AreaRiskEntry, error) {
	var areas []models.Area
	if err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Find(&areas).Error; err != nil {
		return nil, fmt.Errorf("loading company areas: %w", err)
	}
	names := make(map[string]string, len(areas))
	for _, area := range areas {
		names[area.ID] = area.Name
	}

	var rows []models.QSScore
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND area_id IS NOT NULL", companyID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loading area scores: %w", err)
	}

	entries := make([]AreaRiskEntry, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, row := range rows {
		areaID := *row.AreaID
		if seen[areaID] {
			continue
		}
		seen[areaID] = true
		entries = append(entries, AreaRiskEntry{
			AreaID:         areaID,
			AreaName:       names[areaID],
			Score:          row.Score,
			Classification: row.Classification,
			RiskColor:      RiskColor(row.Score),
			CalculatedAt:   row.CreatedAt,
		})
	}
	return entries, nil
}

// GetScoreHistory returns score rows for a company, newest first, paginated.
// An empty areaID lists everything including the company aggregates.
func (s *Service) GetScoreHistory(ctx context.Context, companyID, areaID string, page, size int) ([]models.QSScore, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	query := s.db.WithContext(ctx).Model(&models.QSScore{}).Where("company_id = ?", companyID)
	if areaID != "" {
		query = query.Where("area_id = ?", areaID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting score history: %w", err)
	}

	var rows []models.QSScore
	err := query.Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("loading score history: %w", err)
	}
	return rows, total, nil
}

// newScoreRow maps a computed result to a persistable row.
func newScoreRow(companyID string, areaID *string, result ScoreResult) *models.QSScore {
	return &models.QSScore{
		CompanyID:      companyID,
		AreaID:         areaID,
		Score:          result.Score,
		Classification: result.Classification,
		Factors:        result.Factors,
		Breakdown:      result.Breakdown,
		Trend:          result.Trend,
	}
}

func snapshotVisits(visits []models.Visit) []VisitSnapshot {
	snapshots := make([]VisitSnapshot, 0, len(visits))
	for _, visit := range visits {
		snapshot := VisitSnapshot{Evaluations: make([]EvaluationSnapshot, 0, len(visit.Evaluations))}
		for _, eval := range visit.Evaluations {
			snapshot.Evaluations = append(snapshot.Evaluations, EvaluationSnapshot{
				Type:   eval.Type,
				Rating: eval.Rating,
			})
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots
}

func snapshotResolutions(complaints []models.Complaint) []ComplaintResolution {
	resolutions := make([]ComplaintResolution, 0, len(complaints))
	for _, c := range complaints {
		if c.ResolvedAt == nil {
			continue
		}
		resolutions = append(resolutions, ComplaintResolution{
			CreatedAt:  c.CreatedAt,
			ResolvedAt: *c.ResolvedAt,
		})
	}
	return resolutions
}
