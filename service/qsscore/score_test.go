/*
 * @module service/qsscore/score_test
 * @description Unit tests for the score formula, classification and risk color mapping
 * @architecture test layer - unit tests
 */

package qsscore

import (
	"math"
	"testing"
	"time"

	"qs-service/service/models"

	"github.com/stretchr/testify/assert"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

// visitsWithRating builds n visits each carrying one AREA evaluation
func visitsWithRating(n int, rating float64) []VisitSnapshot {
	visits := make([]VisitSnapshot, n)
	for i := range visits {
		visits[i] = VisitSnapshot{
			Evaluations: []EvaluationSnapshot{{Type: models.EvaluationTypeArea, Rating: rating}},
		}
	}
	return visits
}

// plainVisits builds n visits without evaluations
func plainVisits(n int) []VisitSnapshot {
	return make([]VisitSnapshot, n)
}

// resolutions builds n complaints each resolved after the given number of days
func resolutions(n int, days float64) []ComplaintResolution {
	created := time.Now().AddDate(0, -6, 0)
	list := make([]ComplaintResolution, n)
	for i := range list {
		list[i] = ComplaintResolution{
			CreatedAt:  created,
			ResolvedAt: created.Add(time.Duration(days*24) * time.Hour),
		}
	}
	return list
}

// baseline input worth 600 points: full resolution rate (+350) and ten
// visits without evaluations (+250), latest complaint now so no silence
// penalty and no other contributions
func baselineInput() ScoreInput {
	return ScoreInput{
		ResolvedCount:     10,
		Visits:            plainVisits(10),
		LatestComplaintAt: timePtr(time.Now()),
	}
}

func TestComputeScoreHealthyArea(t *testing.T) {
	input := ScoreInput{
		PendingCount:         2,
		ResolvedCount:        8,
		Visits:               visitsWithRating(3, 4.0),
		CollaboratorsCount:   12,
		ResolvedComplaints:   resolutions(2, 3),
		TotalComplaintsCount: 2,
		LatestComplaintAt:    timePtr(time.Now()),
	}

	result := ComputeScore(input)

	// 280 rate + 75 visits + 100 volume + 100 speed + 160 evaluation - 100 open
	assert.Equal(t, 615, result.Score)
	assert.Equal(t, models.ClassificationGood, result.Classification)
	assert.Equal(t, models.TrendStable, result.Trend)

	assert.Equal(t, 0.8, result.Factors["taxaResolucao"])
	assert.Equal(t, 2, result.Factors["pendenciasAbertas"])
	assert.Equal(t, 0, result.Factors["semanasSemDenuncia"])
	assert.Equal(t, 3, result.Factors["visitas"])
}

func TestComputeScoreMaximum(t *testing.T) {
	input := ScoreInput{
		ResolvedCount:        10,
		Visits:               visitsWithRating(10, 5.0),
		ResolvedComplaints:   resolutions(2, 2),
		TotalComplaintsCount: 3,
		LatestComplaintAt:    timePtr(time.Now()),
	}

	result := ComputeScore(input)

	assert.Equal(t, 1000, result.Score)
	assert.Equal(t, models.ClassificationExcellent, result.Classification)
}

func TestComputeScoreEmptyArea(t *testing.T) {
	result := ComputeScore(ScoreInput{})

	// clean bonus never survives the no-visit penalty and twelve default
	// silence weeks
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, models.ClassificationCritical, result.Classification)
	assert.Equal(t, 12, result.Factors["semanasSemDenuncia"])
	assert.Equal(t, 1.0, result.Factors["taxaResolucao"])
}

func TestLowResolutionRateBoundary(t *testing.T) {
	base := ScoreInput{
		Visits:            plainVisits(8),
		LatestComplaintAt: timePtr(time.Now()),
	}

	// exactly 0.4 stays penalty free
	atThreshold := base
	atThreshold.PendingCount = 3
	atThreshold.ResolvedCount = 2
	assert.Equal(t, 190, ComputeScore(atThreshold).Score) // 140 - 150 + 200

	// below 0.4 takes the extra penalty
	belowThreshold := base
	belowThreshold.PendingCount = 3
	belowThreshold.ResolvedCount = 1
	assert.Equal(t, 37, ComputeScore(belowThreshold).Score) // 87 - 100 - 150 + 200
}

func TestOpenPendencyPenaltyCap(t *testing.T) {
	tenOpen := ScoreInput{
		PendingCount:      10,
		ResolvedCount:     30,
		Visits:            plainVisits(10),
		LatestComplaintAt: timePtr(time.Now()),
	}
	fifteenOpen := tenOpen
	fifteenOpen.PendingCount = 15
	fifteenOpen.ResolvedCount = 45 // same 0.75 rate

	// both hit the 500 cap
	assert.Equal(t, ComputeScore(tenOpen).Score, ComputeScore(fifteenOpen).Score)
	assert.Equal(t, 12, ComputeScore(tenOpen).Score) // 262 - 500 + 250
}

func TestLeadershipPenaltyCap(t *testing.T) {
	five := baselineInput()
	five.LeadershipPendingCount = 5
	assert.Equal(t, 450, ComputeScore(five).Score)

	ten := baselineInput()
	ten.LeadershipPendingCount = 10
	assert.Equal(t, 300, ComputeScore(ten).Score)

	twenty := baselineInput()
	twenty.LeadershipPendingCount = 20
	assert.Equal(t, 300, ComputeScore(twenty).Score)
}

func TestVisitBonusCapAndNoVisitPenalty(t *testing.T) {
	ten := baselineInput()
	assert.Equal(t, 600, ComputeScore(ten).Score)

	fifteen := baselineInput()
	fifteen.Visits = plainVisits(15)
	assert.Equal(t, 600, ComputeScore(fifteen).Score)

	none := baselineInput()
	none.Visits = nil
	assert.Equal(t, 150, ComputeScore(none).Score) // 350 - 200
}

func TestSilencePenalty(t *testing.T) {
	threeWeeks := baselineInput()
	threeWeeks.LatestComplaintAt = timePtr(time.Now().AddDate(0, 0, -21))
	result := ComputeScore(threeWeeks)
	assert.Equal(t, 300, result.Score) // 600 - 3*100
	assert.Equal(t, 3, result.Factors["semanasSemDenuncia"])

	// no complaint ever defaults to twelve weeks and buries the score
	never := baselineInput()
	never.LatestComplaintAt = nil
	assert.Equal(t, 0, ComputeScore(never).Score) // 600 - 1200 clamped
}

func TestSilencePenaltyCap(t *testing.T) {
	SetSilencePenaltyCap(300)
	defer SetSilencePenaltyCap(0)

	input := ScoreInput{Visits: visitsWithRating(10, 5.0)}
	// 50 clean + 250 visits - 300 capped silence + 200 evaluation
	assert.Equal(t, 200, ComputeScore(input).Score)

	SetSilencePenaltyCap(0)
	assert.Equal(t, 0, ComputeScore(input).Score) // uncapped -1200 clamps
}

func TestComplaintVolume(t *testing.T) {
	atLimit := baselineInput()
	atLimit.TotalComplaintsCount = 5
	assert.Equal(t, 700, ComputeScore(atLimit).Score)

	overLimit := baselineInput()
	overLimit.TotalComplaintsCount = 6
	assert.Equal(t, 500, ComputeScore(overLimit).Score)

	none := baselineInput()
	assert.Equal(t, 600, ComputeScore(none).Score)
}

func TestResolutionSpeed(t *testing.T) {
	tests := []struct {
		name     string
		avgDays  float64
		expected int
	}{
		{"fast", 5, 700},
		{"acceptable", 10, 650},
		{"slow", 20, 500},
		{"very slow stacks both penalties", 40, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := baselineInput()
			input.ResolvedComplaints = resolutions(2, tt.avgDays)
			assert.Equal(t, tt.expected, ComputeScore(input).Score)
		})
	}
}

func TestEvaluationScaleNormalization(t *testing.T) {
	fivePoint := baselineInput()
	fivePoint.Visits = visitsWithRating(10, 4.0)

	hundredPoint := baselineInput()
	hundredPoint.Visits = visitsWithRating(10, 80.0)

	// 4/5 and 80/100 normalize to the same 0.8
	assert.Equal(t, ComputeScore(fivePoint).Score, ComputeScore(hundredPoint).Score)
	assert.Equal(t, 760, ComputeScore(fivePoint).Score) // 600 + 160

	low := baselineInput()
	low.Visits = visitsWithRating(10, 2.0)
	// 0.4 normalized: +80 then -100 low evaluation penalty
	assert.Equal(t, 580, ComputeScore(low).Score)
}

func TestMalformedEvaluationSkipped(t *testing.T) {
	input := baselineInput()
	input.Visits = []VisitSnapshot{
		{Evaluations: []EvaluationSnapshot{
			{Type: models.EvaluationTypeArea, Rating: math.NaN()},
			{Type: models.EvaluationTypeArea, Rating: 4.0},
		}},
	}
	input.Visits = append(input.Visits, plainVisits(9)...)

	// NaN rating is ignored, the remaining 4.0 drives the evaluation factor
	assert.Equal(t, 760, ComputeScore(input).Score)
}

func TestNonAreaEvaluationsIgnored(t *testing.T) {
	input := baselineInput()
	input.Visits = []VisitSnapshot{
		{Evaluations: []EvaluationSnapshot{{Type: "COLABORADOR", Rating: 1.0}}},
	}
	input.Visits = append(input.Visits, plainVisits(9)...)

	// no AREA evaluation means no evaluation contribution at all
	assert.Equal(t, 600, ComputeScore(input).Score)
}

func TestClassificationThresholds(t *testing.T) {
	tests := []struct {
		score    int
		expected string
	}{
		{1000, models.ClassificationExcellent},
		{800, models.ClassificationExcellent},
		{799, models.ClassificationGood},
		{600, models.ClassificationGood},
		{599, models.ClassificationAttention},
		{400, models.ClassificationAttention},
		{399, models.ClassificationRisk},
		{200, models.ClassificationRisk},
		{199, models.ClassificationCritical},
		{0, models.ClassificationCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Classification(tt.score), "score %d", tt.score)
	}
}

func TestClassificationMonotonicity(t *testing.T) {
	rank := map[string]int{
		models.ClassificationCritical:  0,
		models.ClassificationRisk:      1,
		models.ClassificationAttention: 2,
		models.ClassificationGood:      3,
		models.ClassificationExcellent: 4,
	}

	previous := rank[Classification(0)]
	for score := 1; score <= 1000; score++ {
		current := rank[Classification(score)]
		assert.GreaterOrEqual(t, current, previous, "score %d", score)
		previous = current
	}
}

func TestRiskColor(t *testing.T) {
	tests := []struct {
		score    int
		expected string
	}{
		{1000, models.RiskColorGreen},
		{600, models.RiskColorGreen},
		{599, models.RiskColorYellow},
		{400, models.RiskColorYellow},
		{399, models.RiskColorRed},
		{0, models.RiskColorRed},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, RiskColor(tt.score), "score %d", tt.score)
	}
}

func TestScoreAlwaysWithinRange(t *testing.T) {
	inputs := []ScoreInput{
		{},
		{PendingCount: 100},
		{PendingCount: 100, LeadershipPendingCount: 100, TotalComplaintsCount: 50},
		{ResolvedCount: 50, Visits: visitsWithRating(30, 5.0), TotalComplaintsCount: 3,
			ResolvedComplaints: resolutions(3, 1), LatestComplaintAt: timePtr(time.Now())},
		{ResolvedCount: 1, Visits: plainVisits(1), LatestComplaintAt: timePtr(time.Now().AddDate(-2, 0, 0))},
	}

	for i, input := range inputs {
		result := ComputeScore(input)
		assert.GreaterOrEqual(t, result.Score, 0, "input %d", i)
		assert.LessOrEqual(t, result.Score, 1000, "input %d", i)
	}
}

func TestBreakdownBuckets(t *testing.T) {
	input := ScoreInput{
		PendingCount:         2,
		ResolvedCount:        8,
		Visits:               visitsWithRating(3, 4.0),
		ResolvedComplaints:   resolutions(2, 3),
		TotalComplaintsCount: 2,
		LatestComplaintAt:    timePtr(time.Now()),
	}

	result := ComputeScore(input)
	assert.Equal(t, 615, result.Score)

	assert.Equal(t, 154, result.Breakdown["inclusao"])       // round(615 * 0.25)
	assert.Equal(t, 123, result.Breakdown["acessibilidade"]) // round(615 * 0.20)
	assert.Equal(t, 130, result.Breakdown["conflitos"])      // 150 - 2*10
	assert.Equal(t, 160, result.Breakdown["gestao"])         // round(0.8 * 200)
	assert.Equal(t, 92, result.Breakdown["educacao"])        // round(615 * 0.15)
}

func TestBreakdownConflictsFloor(t *testing.T) {
	input := ScoreInput{
		PendingCount:      20,
		ResolvedCount:     20,
		Visits:            plainVisits(5),
		LatestComplaintAt: timePtr(time.Now()),
	}

	result := ComputeScore(input)
	assert.Equal(t, 0, result.Breakdown["conflitos"])
}
