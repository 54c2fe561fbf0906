/*
 * @module api/controllers/qs_score_controller_test
 * @description HTTP tests for the QS Score controller
 * @architecture test layer - HTTP handler tests
 */

package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qs-service/service/models"
	"qs-service/service/qsscore"
	"qs-service/testutil"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRouter wires the QS Score routes against an in-memory database
func newTestRouter(testDB *testutil.TestDB) *chi.Mux {
	controller := &QSScoreController{service: qsscore.NewService(testDB.DB)}

	r := chi.NewRouter()
	r.Route("/qs-score", func(r chi.Router) {
		r.Post("/simulate", controller.SimulateScore)
		r.Route("/companies/{company_id}", func(r chi.Router) {
			r.Get("/", controller.GetCompanyScore)
			r.Get("/risk-map", controller.GetRiskMap)
			r.Get("/history", controller.GetScoreHistory)
			r.Post("/recalculate", controller.RecalculateCompany)
		})
		r.Get("/areas/{area_id}", controller.GetAreaScore)
	})
	return r
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestSimulateScore(t *testing.T) {
	testDB := testutil.NewTestDB()
	defer testDB.Close()
	router := newTestRouter(testDB)
	helper := testutil.NewHTTPTestHelper()

	visits := make([]qsscore.VisitSnapshot, 3)
	for i := range visits {
		visits[i] = qsscore.VisitSnapshot{
			Evaluations: []qsscore.EvaluationSnapshot{{Type: "AREA", Rating: 4.0}},
		}
	}
	created := time.Now().AddDate(0, 0, -10)
	input := qsscore.ScoreInput{
		PendingCount:  2,
		ResolvedCount: 8,
		Visits:        visits,
		ResolvedComplaints: []qsscore.ComplaintResolution{
			{CreatedAt: created, ResolvedAt: created.AddDate(0, 0, 3)},
			{CreatedAt: created, ResolvedAt: created.AddDate(0, 0, 3)},
		},
		TotalComplaintsCount: 2,
		LatestComplaintAt:    timePtr(time.Now()),
	}

	req, err := helper.CreateJSONRequest(http.MethodPost, "/qs-score/simulate", input)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Status int `json:"status"`
		Data   struct {
			Score          int    `json:"score"`
			Classification string `json:"classification"`
			Trend          string `json:"trend"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 0, response.Status)
	assert.Equal(t, 615, response.Data.Score)
	assert.Equal(t, "BOM", response.Data.Classification)
	assert.Equal(t, "ESTAVEL", response.Data.Trend)
}

func TestSimulateScoreInvalidBody(t *testing.T) {
	testDB := testutil.NewTestDB()
	defer testDB.Close()
	router := newTestRouter(testDB)

	req := httptest.NewRequest(http.MethodPost, "/qs-score/simulate", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 400, response.Status)
}

func TestGetCompanyScoreUnknownCompany(t *testing.T) {
	testDB := testutil.NewTestDB()
	defer testDB.Close()
	router := newTestRouter(testDB)

	req := httptest.NewRequest(http.MethodGet, "/qs-score/companies/missing-company/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 404, response.Status)
}

func TestRecalculateAndRiskMap(t *testing.T) {
	testDB := testutil.NewTestDB()
	defer testDB.Close()
	factory := testutil.NewTestDataFactory(testDB.DB)
	router := newTestRouter(testDB)

	company := factory.CreateCompany()
	areaA := factory.CreateArea(company.ID)
	factory.CreateArea(company.ID)
	visit := factory.CreateVisit(company.ID, areaA.ID)
	factory.CreateVisitEvaluation(visit.ID, 4.0)
	factory.CreateComplaint(company.ID, areaA.ID)

	req := httptest.NewRequest(http.MethodPost, "/qs-score/companies/"+company.ID+"/recalculate", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var recalcResponse struct {
		Status int `json:"status"`
		Data   struct {
			CompanyID string  `json:"company_id"`
			AreaID    *string `json:"area_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recalcResponse))
	assert.Equal(t, 0, recalcResponse.Status)
	assert.Equal(t, company.ID, recalcResponse.Data.CompanyID)
	assert.Nil(t, recalcResponse.Data.AreaID)

	req = httptest.NewRequest(http.MethodGet, "/qs-score/companies/"+company.ID+"/risk-map", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var riskResponse struct {
		Status int                     `json:"status"`
		Data   []qsscore.AreaRiskEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &riskResponse))
	assert.Equal(t, 0, riskResponse.Status)
	assert.Len(t, riskResponse.Data, 2)
	for _, entry := range riskResponse.Data {
		assert.NotEmpty(t, entry.RiskColor)
	}
}

func TestRecalculateUnknownCompany(t *testing.T) {
	testDB := testutil.NewTestDB()
	defer testDB.Close()
	router := newTestRouter(testDB)

	req := httptest.NewRequest(http.MethodPost, "/qs-score/companies/missing-company/recalculate", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 404, response.Status)
}

func TestGetScoreHistoryPaginated(t *testing.T) {
	testDB := testutil.NewTestDB()
	defer testDB.Close()
	factory := testutil.NewTestDataFactory(testDB.DB)
	router := newTestRouter(testDB)

	company := factory.CreateCompany()
	area := factory.CreateArea(company.ID)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		createdAt := base.Add(time.Duration(i) * time.Minute)
		factory.CreateQSScore(company.ID, &area.ID, 400+i, func(s *models.QSScore) {
			s.CreatedAt = createdAt
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/qs-score/companies/"+company.ID+"/history?page=1&size=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response PaginatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 0, response.Status)
	assert.EqualValues(t, 5, response.Total)
	assert.Equal(t, 1, response.Page)
	assert.Equal(t, 2, response.Size)
}

func TestGetAreaScore(t *testing.T) {
	testDB := testutil.NewTestDB()
	defer testDB.Close()
	factory := testutil.NewTestDataFactory(testDB.DB)
	router := newTestRouter(testDB)

	company := factory.CreateCompany()
	area := factory.CreateArea(company.ID)
	visit := factory.CreateVisit(company.ID, area.ID)
	factory.CreateVisitEvaluation(visit.ID, 4.5)

	req := httptest.NewRequest(http.MethodGet, "/qs-score/areas/"+area.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response struct {
		Status int `json:"status"`
		Data   struct {
			AreaID *string `json:"area_id"`
			Score  int     `json:"score"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 0, response.Status)
	require.NotNil(t, response.Data.AreaID)
	assert.Equal(t, area.ID, *response.Data.AreaID)
	assert.GreaterOrEqual(t, response.Data.Score, 0)
	assert.LessOrEqual(t, response.Data.Score, 1000)
}

func TestGetAreaScoreUnknownArea(t *testing.T) {
	testDB := testutil.NewTestDB()
	defer testDB.Close()
	router := newTestRouter(testDB)

	req := httptest.NewRequest(http.MethodGet, "/qs-score/areas/missing-area", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 404, response.Status)
}
