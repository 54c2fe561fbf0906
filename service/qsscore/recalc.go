/*
 * @module service/qsscore/recalc
 * @description Company-wide score recalculation job. Replaces one-query-per-area with a handful of grouped and flat queries, computes every area score in memory and appends the resulting rows plus one company aggregate
 * @architecture service layer - batch job
 * @documentReference dev_docs/qs_score_requirements.md
 * @stateFlow load area ids -> bulk fetch -> partition by area -> compute -> append rows -> append aggregate
 * @rules inserts are independent appends, a partial failure means an incomplete pass recoverable by re-running; rows are never updated
 * @dependencies gorm.io/gorm, golang.org/x/sync/errgroup
 * @refs service/qsscore/score.go, service/scheduler/recalculation_scheduler.go
 */

package qsscore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"qs-service/service/models"

	"golang.org/x/sync/errgroup"
)

// areaCount grouped COUNT(*) row keyed by area
type areaCount struct {
	AreaID string
	Count  int64
}

// PerformRecalculation recomputes and persists the score of every area of a
// company, then one company aggregate row with a NULL area id. Data for all
// areas is fetched with grouped and flat queries so the number of round
// trips stays constant regardless of how many areas the company has.
func (s *Service) PerformRecalculation(ctx context.Context, companyID string) error {
	start := time.Now()

	var company models.Company
	if err := s.db.WithContext(ctx).First(&company, "id = ?", companyID).Error; err != nil {
		recalculationsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("loading company %s: %w", companyID, err)
	}

	var areaIDs []string
	err := s.db.WithContext(ctx).Model(&models.Area{}).
		Where("company_id = ?", companyID).
		Pluck("id", &areaIDs).Error
	if err != nil {
		recalculationsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("loading company %s areas: %w", companyID, err)
	}

	var areaResults map[string]ScoreResult
	if len(areaIDs) > 0 {
		areaResults, err = s.computeAllAreas(ctx, areaIDs)
		if err != nil {
			recalculationsTotal.WithLabelValues("error").Inc()
			return err
		}
	}

	scoreSum := 0
	for _, areaID := range areaIDs {
		result := areaResults[areaID]
		scoreSum += result.Score

		id := areaID
		row := newScoreRow(companyID, &id, result)
		if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
			recalculationsTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("persisting score for area %s: %w", areaID, err)
		}
		areasScoredTotal.Inc()
	}

	// company aggregate: integer-floor mean, zero when the company has no areas
	companyScore := 0
	if len(areaIDs) > 0 {
		companyScore = scoreSum / len(areaIDs)
	}
	aggregate := &models.QSScore{
		CompanyID:      companyID,
		AreaID:         nil,
		Score:          companyScore,
		Classification: Classification(companyScore),
		Factors:        models.JSONB{"areasAnalisadas": len(areaIDs)},
		Breakdown:      models.JSONB{},
		Trend:          models.TrendStable,
	}
	if err := s.db.WithContext(ctx).Create(aggregate).Error; err != nil {
		recalculationsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("persisting company aggregate score: %w", err)
	}

	recalculationsTotal.WithLabelValues("success").Inc()
	recalculationDuration.Observe(time.Since(start).Seconds())
	slog.Info("QS score recalculation finished",
		"company_id", companyID,
		"areas", len(areaIDs),
		"company_score", companyScore,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// computeAllAreas bulk-fetches activity for every area and computes each
// score from the partitioned in-memory data.
func (s *Service) computeAllAreas(ctx context.Context, areaIDs []string) (map[string]ScoreResult, error) {
	since := time.Now().AddDate(0, 0, -windowDays)

	var (
		openCounts       []areaCount
		resolvedCounts   []areaCount
		collabCounts     []areaCount
		visits           []models.Visit
		complaints       []models.Complaint
		leadershipOpen   []models.Pendency
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Pendency{}).
			Select("area_id, COUNT(*) as count").
			Where("area_id IN ? AND status = ?", areaIDs, models.PendencyStatusOpen).
			Group("area_id").
			Find(&openCounts).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Pendency{}).
			Select("area_id, COUNT(*) as count").
			Where("area_id IN ? AND status = ?", areaIDs, models.PendencyStatusResolved).
			Group("area_id").
			Find(&resolvedCounts).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.CollaboratorProfile{}).
			Select("area_id, COUNT(*) as count").
			Where("area_id IN ? AND status = ?", areaIDs, models.CollaboratorStatusActive).
			Group("area_id").
			Find(&collabCounts).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Preload("Evaluations").
			Where("area_id IN ? AND created_at >= ?", areaIDs, since).
			Find(&visits).Error
	})
	g.Go(func() error {
		// every complaint of every area; windows are applied in memory so
		// the latest-ever complaint can come from the same result set
		return s.db.WithContext(gctx).
			Where("area_id IN ?", areaIDs).
			Find(&complaints).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Where("area_id IN ? AND status = ? AND LOWER(responsible) LIKE ?",
				areaIDs, models.PendencyStatusOpen, "%lider%").
			Find(&leadershipOpen).Error
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("bulk fetching area data: %w", err)
	}

	openByArea := countsByArea(openCounts)
	resolvedByArea := countsByArea(resolvedCounts)
	collabByArea := countsByArea(collabCounts)

	visitsByArea := make(map[string][]models.Visit)
	for _, visit := range visits {
		visitsByArea[visit.AreaID] = append(visitsByArea[visit.AreaID], visit)
	}
	complaintsByArea := make(map[string][]models.Complaint)
	for _, complaint := range complaints {
		complaintsByArea[complaint.AreaID] = append(complaintsByArea[complaint.AreaID], complaint)
	}
	leadershipByArea := make(map[string]int)
	for _, pendency := range leadershipOpen {
		leadershipByArea[pendency.AreaID]++
	}

	results := make(map[string]ScoreResult, len(areaIDs))
	for _, areaID := range areaIDs {
		input := ScoreInput{
			PendingCount:           openByArea[areaID],
			ResolvedCount:          resolvedByArea[areaID],
			Visits:                 snapshotVisits(visitsByArea[areaID]),
			CollaboratorsCount:     collabByArea[areaID],
			LeadershipPendingCount: leadershipByArea[areaID],
		}
		applyComplaintWindow(&input, complaintsByArea[areaID], since)
		results[areaID] = ComputeScore(input)
	}
	return results, nil
}

// applyComplaintWindow derives the complaint-based input fields from an
// area's full complaint subset: in-window totals, in-window resolutions and
// the latest complaint ever filed.
func applyComplaintWindow(input *ScoreInput, complaints []models.Complaint, since time.Time) {
	var latest *time.Time
	for _, complaint := range complaints {
		if latest == nil || complaint.CreatedAt.After(*latest) {
			t := complaint.CreatedAt
			latest = &t
		}
		if complaint.CreatedAt.Before(since) {
			continue
		}
		input.TotalComplaintsCount++
		if complaint.Status == models.ComplaintStatusResolved && complaint.ResolvedAt != nil {
			input.ResolvedComplaints = append(input.ResolvedComplaints, ComplaintResolution{
				CreatedAt:  complaint.CreatedAt,
				ResolvedAt: *complaint.ResolvedAt,
			})
		}
	}
	input.LatestComplaintAt = latest
}

func countsByArea(counts []areaCount) map[string]int {
	byArea := make(map[string]int, len(counts))
	for _, c := range counts {
		byArea[c.AreaID] = int(c.Count)
	}
	return byArea
}
