/*
 * @module api/controllers/qs_score_controller
 * @description QS Score API controller, exposes score reads, the risk map, history and recalculation triggers
 * @architecture MVC - controller layer
 * @documentReference dev_docs/qs_score_requirements.md
 * @stateFlow HTTP request handling
 * @rules unified error handling and response format, parameter validation
 * @dependencies qs-service/service, github.com/go-chi/render
 * @refs dev_docs/qs_score_model.md
 */

package controllers

import (
	"errors"
	"net/http"

	"qs-service/service"
	"qs-service/service/qsscore"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/spf13/cast"
	"gorm.io/gorm"
)

// QSScoreController QS Score controller
type QSScoreController struct {
	service *qsscore.Service
}

// NewQSScoreController creates a QS Score controller instance
func NewQSScoreController() *QSScoreController {
	return &QSScoreController{
		service: service.GlobalQSScoreService,
	}
}

// SimulateScore runs the formula over a caller-provided snapshot
// @Summary Simulate a QS Score
// @Description Applies the score formula to the snapshot in the request body without persisting anything
// @Tags QS Score
// @Accept json
// @Produce json
// @Param input body qsscore.ScoreInput true "Area activity snapshot"
// @Success 200 {object} APIResponse{data=qsscore.ScoreResult}
// @Failure 400 {object} APIResponse
// @Router /qs-score/simulate [post]
func (c *QSScoreController) SimulateScore(w http.ResponseWriter, r *http.Request) {
	var input qsscore.ScoreInput
	if err := render.DecodeJSON(r.Body, &input); err != nil {
		render.JSON(w, r, BadRequestResponse("invalid request body: "+err.Error()))
		return
	}

	result := qsscore.ComputeScore(input)
	render.JSON(w, r, SuccessResponse("score simulated", result))
}

// GetCompanyScore returns the current company-wide score
// @Summary Current company score
// @Description Returns the newest company aggregate score row, bootstrapping a recalculation when none exists yet
// @Tags QS Score
// @Produce json
// @Param company_id path string true "Company ID"
// @Success 200 {object} APIResponse{data=models.QSScore}
// @Failure 404 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /qs-score/companies/{company_id} [get]
func (c *QSScoreController) GetCompanyScore(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "company_id")
	if companyID == "" {
		render.JSON(w, r, BadRequestResponse("company_id is required"))
		return
	}

	score, err := c.service.GetCompanyScore(r.Context(), companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			render.JSON(w, r, NotFoundResponse("company not found"))
			return
		}
		render.JSON(w, r, InternalErrorResponse("loading company score failed", err))
		return
	}

	render.JSON(w, r, SuccessResponse("company score loaded", score))
}

// GetRiskMap returns the per-area risk map of a company
// @Summary Company risk map
// @Description Returns the latest score per area with risk colors, for the risk map view
// @Tags QS Score
// @Produce json
// @Param company_id path string true "Company ID"
// @Success 200 {object} APIResponse{data=[]qsscore.AreaRiskEntry}
// @Failure 500 {object} APIResponse
// @Router /qs-score/companies/{company_id}/risk-map [get]
func (c *QSScoreController) GetRiskMap(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "company_id")
	if companyID == "" {
		render.JSON(w, r, BadRequestResponse("company_id is required"))
		return
	}

	entries, err := c.service.GetAreaScores(r.Context(), companyID)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("loading risk map failed", err))
		return
	}

	render.JSON(w, r, SuccessResponse("risk map loaded", entries))
}

// GetScoreHistory returns paginated score history
// @Summary Score history
// @Description Returns score rows of a company newest first, optionally filtered to one area
// @Tags QS Score
// @Produce json
// @Param company_id path string true "Company ID"
// @Param area_id query string false "Area ID filter"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} PaginatedResponse{data=[]models.QSScore}
// @Failure 500 {object} APIResponse
// @Router /qs-score/companies/{company_id}/history [get]
func (c *QSScoreController) GetScoreHistory(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "company_id")
	if companyID == "" {
		render.JSON(w, r, BadRequestResponse("company_id is required"))
		return
	}

	areaID := r.URL.Query().Get("area_id")
	page := cast.ToInt(r.URL.Query().Get("page"))
	size := cast.ToInt(r.URL.Query().Get("size"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}

	rows, total, err := c.service.GetScoreHistory(r.Context(), companyID, areaID, page, size)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("loading score history failed", err))
		return
	}

	render.JSON(w, r, PaginatedResponse{
		Status: 0,
		Msg:    "score history loaded",
		Data:   rows,
		Total:  total,
		Page:   page,
		Size:   size,
	})
}

// RecalculateCompany triggers a company-wide recalculation
// @Summary Recalculate company scores
// @Description Recomputes and appends fresh score rows for every area of the company plus the aggregate
// @Tags QS Score
// @Produce json
// @Param company_id path string true "Company ID"
// @Success 200 {object} APIResponse{data=models.QSScore}
// @Failure 500 {object} APIResponse
// @Router /qs-score/companies/{company_id}/recalculate [post]
func (c *QSScoreController) RecalculateCompany(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "company_id")
	if companyID == "" {
		render.JSON(w, r, BadRequestResponse("company_id is required"))
		return
	}

	if err := c.service.PerformRecalculation(r.Context(), companyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			render.JSON(w, r, NotFoundResponse("company not found"))
			return
		}
		render.JSON(w, r, InternalErrorResponse("recalculation failed", err))
		return
	}

	score, err := c.service.GetCompanyScore(r.Context(), companyID)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("loading recalculated score failed", err))
		return
	}

	render.JSON(w, r, SuccessResponse("recalculation finished", score))
}

// GetAreaScore computes and persists a fresh score for one area
// @Summary Score one area
// @Description Gathers the area's current activity snapshot, computes its score and appends the new row
// @Tags QS Score
// @Produce json
// @Param area_id path string true "Area ID"
// @Success 200 {object} APIResponse{data=models.QSScore}
// @Failure 404 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /qs-score/areas/{area_id} [get]
func (c *QSScoreController) GetAreaScore(w http.ResponseWriter, r *http.Request) {
	areaID := chi.URLParam(r, "area_id")
	if areaID == "" {
		render.JSON(w, r, BadRequestResponse("area_id is required"))
		return
	}

	score, err := c.service.ScoreArea(r.Context(), areaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			render.JSON(w, r, NotFoundResponse("area not found"))
			return
		}
		render.JSON(w, r, InternalErrorResponse("scoring area failed", err))
		return
	}

	render.JSON(w, r, SuccessResponse("area score computed", score))
}
