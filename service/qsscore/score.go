/*
 * @module service/qsscore/score
 * @description QS Score formula engine. Maps a per-area activity snapshot to a 0-1000 score, a classification label, a factor snapshot and a display breakdown
 * @architecture service layer - pure computation, no I/O
 * @documentReference dev_docs/qs_score_requirements.md
 * @stateFlow stateless: ComputeScore(input) -> ScoreResult
 * @rules additive contributions applied in a fixed order, final score clamped to [0, 1000]; breakdown buckets are proportional slices of the final score, never an additive decomposition
 * @dependencies qs-service/service/models, github.com/spf13/cast
 * @refs service/qsscore/service.go, service/qsscore/recalc.go
 */

package qsscore

import (
	"log/slog"
	"math"
	"os"
	"time"

	"qs-service/service/models"

	"github.com/spf13/cast"
)

const (
	scoreMin = 0
	scoreMax = 1000

	resolutionRateWeight   = 350
	lowResolutionThreshold = 0.4
	lowResolutionPenalty   = 100
	cleanAreaBonus         = 50

	openPendencyPenaltyPerItem = 50
	openPendencyPenaltyCap     = 500

	leadershipPenaltyPerItem = 30
	leadershipPenaltyCap     = 300

	visitBonusPerVisit = 25
	visitBonusCap      = 250
	noVisitPenalty     = 200

	silencePenaltyPerWeek = 100
	// defaultSilenceWeeks applies when an area never had a complaint.
	defaultSilenceWeeks = 12

	highComplaintVolumeThreshold = 5
	highComplaintVolumePenalty   = 100
	lowComplaintVolumeBonus      = 100

	fastResolutionDays  = 7
	fastResolutionBonus = 100
	okResolutionDays    = 15
	okResolutionBonus   = 50

	slowResolutionPenalty     = 100
	verySlowResolutionDays    = 30
	verySlowResolutionPenalty = 300

	evaluationWeight       = 200
	lowEvaluationThreshold = 0.5
	lowEvaluationPenalty   = 100
)

// silencePenaltyLimit caps the otherwise unbounded silence penalty.
// Zero keeps the historical uncapped behavior.
var silencePenaltyLimit = 0

func init() {
	if v := os.Getenv("QS_SILENCE_PENALTY_CAP"); v != "" {
		silencePenaltyLimit = cast.ToInt(v)
	}
}

// SetSilencePenaltyCap overrides the silence penalty cap. Zero disables it.
func SetSilencePenaltyCap(limit int) {
	silencePenaltyLimit = limit
}

// EvaluationSnapshot single graded evaluation attached to a visit
type EvaluationSnapshot struct {
	Type   string  `json:"type"`
	Rating float64 `json:"rating"`
}

// VisitSnapshot visit with its evaluations, as seen inside the scoring window
type VisitSnapshot struct {
	Evaluations []EvaluationSnapshot `json:"evaluations"`
}

// ComplaintResolution open/close pair of a complaint resolved in the window
type ComplaintResolution struct {
	CreatedAt  time.Time `json:"created_at"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// ScoreInput per-area activity snapshot, the formula's sole input.
// Counts and lists are windowed by the fetcher; the formula trusts them as given.
type ScoreInput struct {
	PendingCount           int                   `json:"pending_count"`
	ResolvedCount          int                   `json:"resolved_count"`
	Visits                 []VisitSnapshot       `json:"visits"`
	CollaboratorsCount     int                   `json:"collaborators_count"`
	ResolvedComplaints     []ComplaintResolution `json:"resolved_complaints"`
	TotalComplaintsCount   int                   `json:"total_complaints_count"`
	LeadershipPendingCount int                   `json:"leadership_pending_count"`
	LatestComplaintAt      *time.Time            `json:"latest_complaint_at,omitempty"`
}

// ScoreResult computed score with its explainability payload
type ScoreResult struct {
	Score          int          `json:"score"`
	Classification string       `json:"classification"`
	Factors        models.JSONB `json:"factors"`
	Breakdown      models.JSONB `json:"breakdown"`
	Trend          string       `json:"trend"`
}

// ComputeScore applies the QS formula to an area snapshot.
// Deterministic and side-effect free; contributions are additive on a
// running total and the final score is clamped to [0, 1000].
func ComputeScore(input ScoreInput) ScoreResult {
	score := 0

	// 1. pendency resolution rate
	totalPendencies := input.PendingCount + input.ResolvedCount
	resolutionRate := 1.0
	if totalPendencies > 0 {
		resolutionRate = float64(input.ResolvedCount) / float64(totalPendencies)
		score += int(math.Floor(resolutionRate * resolutionRateWeight))
		if resolutionRate < lowResolutionThreshold {
			score -= lowResolutionPenalty
		}
	} else {
		// area with no pendency history at all
		score += cleanAreaBonus
	}

	// 2. open pendencies always weigh against the area, even after the
	// rate credit above
	score -= min(openPendencyPenaltyCap, input.PendingCount*openPendencyPenaltyPerItem)

	// 3. open pendencies owned by leadership
	if input.LeadershipPendingCount > 0 {
		score -= min(leadershipPenaltyCap, input.LeadershipPendingCount*leadershipPenaltyPerItem)
	}

	// 4. visit frequency
	score += min(visitBonusCap, len(input.Visits)*visitBonusPerVisit)
	if len(input.Visits) == 0 {
		score -= noVisitPenalty
	}

	// 5. weeks without a complaint being filed
	weeksSilence := defaultSilenceWeeks
	if input.LatestComplaintAt != nil {
		days := int(time.Since(*input.LatestComplaintAt).Hours() / 24)
		weeksSilence = days / 7
	}
	silencePenalty := weeksSilence * silencePenaltyPerWeek
	if silencePenaltyLimit > 0 && silencePenalty > silencePenaltyLimit {
		silencePenalty = silencePenaltyLimit
	}
	score -= silencePenalty

	// 6. complaint volume in the window
	if input.TotalComplaintsCount > highComplaintVolumeThreshold {
		score -= highComplaintVolumePenalty
	} else if input.TotalComplaintsCount > 0 {
		score += lowComplaintVolumeBonus
	}

	// 7. complaint resolution speed
	avgResolutionDays := 0.0
	if len(input.ResolvedComplaints) > 0 {
		var totalDays float64
		for _, c := range input.ResolvedComplaints {
			totalDays += c.ResolvedAt.Sub(c.CreatedAt).Hours() / 24
		}
		avgResolutionDays = totalDays / float64(len(input.ResolvedComplaints))
	}
	if avgResolutionDays > 0 {
		switch {
		case avgResolutionDays <= fastResolutionDays:
			score += fastResolutionBonus
		case avgResolutionDays <= okResolutionDays:
			score += okResolutionBonus
		default:
			score -= slowResolutionPenalty
		}
		// stacks with the slow-resolution penalty above
		if avgResolutionDays > verySlowResolutionDays {
			score -= verySlowResolutionPenalty
		}
	}

	// 8. evaluation quality from AREA-type visit evaluations
	var evalSum float64
	evalCount := 0
	for _, visit := range input.Visits {
		avg, ok := areaEvaluationAverage(visit)
		if !ok {
			continue
		}
		evalSum += avg
		evalCount++
	}
	normalizedEvaluation := 0.0
	if evalCount > 0 {
		avgEvaluation := evalSum / float64(evalCount)
		if avgEvaluation > 5 {
			// ratings on a 0-100 scale
			normalizedEvaluation = avgEvaluation / 100
		} else {
			normalizedEvaluation = avgEvaluation / 5
		}
		score += int(math.Floor(normalizedEvaluation * evaluationWeight))
		if normalizedEvaluation < lowEvaluationThreshold {
			score -= lowEvaluationPenalty
		}
	}

	// 9. clamp
	if score < scoreMin {
		score = scoreMin
	}
	if score > scoreMax {
		score = scoreMax
	}

	return ScoreResult{
		Score:          score,
		Classification: Classification(score),
		Factors:        buildFactors(input, resolutionRate, avgResolutionDays, normalizedEvaluation, weeksSilence),
		Breakdown:      buildBreakdown(score, resolutionRate, input.PendingCount),
		Trend:          models.TrendStable,
	}
}

// areaEvaluationAverage returns the mean AREA-type rating of one visit.
// A malformed rating is logged and skipped so a single bad record never
// aborts the whole computation.
func areaEvaluationAverage(visit VisitSnapshot) (float64, bool) {
	var sum float64
	count := 0
	for _, eval := range visit.Evaluations {
		if eval.Type != models.EvaluationTypeArea {
			continue
		}
		if math.IsNaN(eval.Rating) || math.IsInf(eval.Rating, 0) {
			slog.Warn("skipping malformed visit evaluation", "rating", eval.Rating)
			continue
		}
		sum += eval.Rating
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// Classification maps a score to its label.
func Classification(score int) string {
	switch {
	case score >= 800:
		return models.ClassificationExcellent
	case score >= 600:
		return models.ClassificationGood
	case score >= 400:
		return models.ClassificationAttention
	case score >= 200:
		return models.ClassificationRisk
	default:
		return models.ClassificationCritical
	}
}

// RiskColor maps a score to the coarse 3-color view used by risk maps.
func RiskColor(score int) string {
	switch {
	case score >= 600:
		return models.RiskColorGreen
	case score >= 400:
		return models.RiskColorYellow
	default:
		return models.RiskColorRed
	}
}

// buildFactors snapshots the raw inputs that produced the score, for audit.
func buildFactors(input ScoreInput, resolutionRate, avgResolutionDays, normalizedEvaluation float64, weeksSilence int) models.JSONB {
	return models.JSONB{
		"pendenciasAbertas":       input.PendingCount,
		"pendenciasResolvidas":    input.ResolvedCount,
		"taxaResolucao":           round2(resolutionRate),
		"pendenciasLideranca":     input.LeadershipPendingCount,
		"visitas":                 len(input.Visits),
		"colaboradores":           input.CollaboratorsCount,
		"denuncias":               input.TotalComplaintsCount,
		"denunciasResolvidas":     len(input.ResolvedComplaints),
		"tempoMedioResolucaoDias": round2(avgResolutionDays),
		"semanasSemDenuncia":      weeksSilence,
		"mediaAvaliacao":          round2(normalizedEvaluation),
	}
}

// buildBreakdown derives the display buckets from the final score.
// These are proportional slices for dashboards, they do not sum to the score.
func buildBreakdown(score int, resolutionRate float64, pendingCount int) models.JSONB {
	conflitos := 150 - pendingCount*10
	if conflitos < 0 {
		conflitos = 0
	}
	return models.JSONB{
		"inclusao":       int(math.Round(float64(score) * 0.25)),
		"acessibilidade": int(math.Round(float64(score) * 0.2)),
		"conflitos":      conflitos,
		"gestao":         int(math.Round(resolutionRate * 200)),
		"educacao":       int(math.Round(float64(score) * 0.15)),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
