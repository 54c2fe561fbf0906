/*
 * @module testutil/test_helper
 * @description Test helpers and data factory
 * @architecture test infrastructure - shared tooling and a test data factory
 * @documentReference dev_docs/qs_score_test_plan.md
 * @stateFlow test environment setup -> test data creation -> test execution -> cleanup
 * @rules reusable test tooling, keeps the test environment consistent
 * @dependencies gorm, sqlite, testify, time
 * @refs service/models
 */

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qs-service/service/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB test database wrapper
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB creates an in-memory test database with the full schema
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// a pooled :memory: DSN opens a fresh empty database per connection;
	// cap the pool at one so every query sees the migrated schema
	sqlDB, err := db.DB()
	if err != nil {
		panic(fmt.Sprintf("failed to access test database pool: %v", err))
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Company{},
		&models.Area{},
		&models.CollaboratorProfile{},
		&models.Pendency{},
		&models.Visit{},
		&models.VisitEvaluation{},
		&models.Complaint{},
		&models.QSScore{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB wipes all table data
func (tdb *TestDB) CleanDB() {
	tables := []string{
		"qs_scores",
		"visit_evaluations",
		"visits",
		"complaints",
		"pendencies",
		"collaborator_profiles",
		"areas",
		"companies",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close closes the database connection
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory test data factory
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory creates a test data factory
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// CompanyOption company option function type
type CompanyOption func(*models.Company)

// CreateCompany creates a test company
func (f *TestDataFactory) CreateCompany(opts ...CompanyOption) *models.Company {
	company := &models.Company{
		ID:        generateID("co"),
		Name:      "Test Company " + generateSuffix(),
		Status:    "ATIVO",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(company)
	}

	if err := f.DB.Create(company).Error; err != nil {
		panic(fmt.Sprintf("failed to create test company: %v", err))
	}

	return company
}

// AreaOption area option function type
type AreaOption func(*models.Area)

// CreateArea creates a test area
func (f *TestDataFactory) CreateArea(companyID string, opts ...AreaOption) *models.Area {
	area := &models.Area{
		ID:        generateID("area"),
		CompanyID: companyID,
		Name:      "Test Area " + generateSuffix(),
		Status:    "ATIVA",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(area)
	}

	if err := f.DB.Create(area).Error; err != nil {
		panic(fmt.Sprintf("failed to create test area: %v", err))
	}

	return area
}

// CollaboratorOption collaborator option function type
type CollaboratorOption func(*models.CollaboratorProfile)

// CreateCollaborator creates a test collaborator profile
func (f *TestDataFactory) CreateCollaborator(companyID, areaID string, opts ...CollaboratorOption) *models.CollaboratorProfile {
	collaborator := &models.CollaboratorProfile{
		ID:        generateID("col"),
		CompanyID: companyID,
		AreaID:    areaID,
		Name:      "Test Collaborator " + generateSuffix(),
		Role:      "Analista",
		Status:    models.CollaboratorStatusActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(collaborator)
	}

	if err := f.DB.Create(collaborator).Error; err != nil {
		panic(fmt.Sprintf("failed to create test collaborator: %v", err))
	}

	return collaborator
}

// PendencyOption pendency option function type
type PendencyOption func(*models.Pendency)

// WithPendencyStatus sets the pendency status
func WithPendencyStatus(status string) PendencyOption {
	return func(p *models.Pendency) { p.Status = status }
}

// WithPendencyResponsible sets the responsible free-text field
func WithPendencyResponsible(responsible string) PendencyOption {
	return func(p *models.Pendency) { p.Responsible = responsible }
}

// CreatePendency creates a test pendency, open by default
func (f *TestDataFactory) CreatePendency(companyID, areaID string, opts ...PendencyOption) *models.Pendency {
	pendency := &models.Pendency{
		ID:          generateID("pen"),
		CompanyID:   companyID,
		AreaID:      areaID,
		Title:       "Test Pendency " + generateSuffix(),
		Responsible: "Analista Teste",
		Status:      models.PendencyStatusOpen,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	for _, opt := range opts {
		opt(pendency)
	}

	if err := f.DB.Create(pendency).Error; err != nil {
		panic(fmt.Sprintf("failed to create test pendency: %v", err))
	}

	return pendency
}

// VisitOption visit option function type
type VisitOption func(*models.Visit)

// WithVisitCreatedAt backdates the visit, for window tests
func WithVisitCreatedAt(t time.Time) VisitOption {
	return func(v *models.Visit) { v.CreatedAt = t }
}

// CreateVisit creates a test visit
func (f *TestDataFactory) CreateVisit(companyID, areaID string, opts ...VisitOption) *models.Visit {
	visit := &models.Visit{
		ID:        generateID("vis"),
		CompanyID: companyID,
		AreaID:    areaID,
		Visitor:   "Test Visitor " + generateSuffix(),
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(visit)
	}

	if err := f.DB.Create(visit).Error; err != nil {
		panic(fmt.Sprintf("failed to create test visit: %v", err))
	}

	return visit
}

// EvaluationOption visit evaluation option function type
type EvaluationOption func(*models.VisitEvaluation)

// WithEvaluationType sets the evaluation type
func WithEvaluationType(evaluationType string) EvaluationOption {
	return func(e *models.VisitEvaluation) { e.Type = evaluationType }
}

// CreateVisitEvaluation creates a test visit evaluation, AREA-typed by default
func (f *TestDataFactory) CreateVisitEvaluation(visitID string, rating float64, opts ...EvaluationOption) *models.VisitEvaluation {
	evaluation := &models.VisitEvaluation{
		ID:        generateID("eva"),
		VisitID:   visitID,
		Type:      models.EvaluationTypeArea,
		Rating:    rating,
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(evaluation)
	}

	if err := f.DB.Create(evaluation).Error; err != nil {
		panic(fmt.Sprintf("failed to create test visit evaluation: %v", err))
	}

	return evaluation
}

// ComplaintOption complaint option function type
type ComplaintOption func(*models.Complaint)

// WithComplaintCreatedAt backdates the complaint, for window and silence tests
func WithComplaintCreatedAt(t time.Time) ComplaintOption {
	return func(c *models.Complaint) { c.CreatedAt = t }
}

// WithComplaintResolved marks the complaint resolved at the given time
func WithComplaintResolved(resolvedAt time.Time) ComplaintOption {
	return func(c *models.Complaint) {
		c.Status = models.ComplaintStatusResolved
		c.ResolvedAt = &resolvedAt
	}
}

// CreateComplaint creates a test complaint, open by default
func (f *TestDataFactory) CreateComplaint(companyID, areaID string, opts ...ComplaintOption) *models.Complaint {
	complaint := &models.Complaint{
		ID:        generateID("com"),
		CompanyID: companyID,
		AreaID:    areaID,
		Category:  "CONDUTA",
		Status:    models.ComplaintStatusOpen,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(complaint)
	}

	if err := f.DB.Create(complaint).Error; err != nil {
		panic(fmt.Sprintf("failed to create test complaint: %v", err))
	}

	return complaint
}

// QSScoreOption score row option function type
type QSScoreOption func(*models.QSScore)

// CreateQSScore creates a test score row; areaID nil means company aggregate
func (f *TestDataFactory) CreateQSScore(companyID string, areaID *string, score int, opts ...QSScoreOption) *models.QSScore {
	row := &models.QSScore{
		ID:             generateID("qs"),
		CompanyID:      companyID,
		AreaID:         areaID,
		Score:          score,
		Classification: "BOM",
		Factors:        models.JSONB{},
		Breakdown:      models.JSONB{},
		Trend:          models.TrendStable,
		CreatedAt:      time.Now(),
	}

	for _, opt := range opts {
		opt(row)
	}

	if err := f.DB.Create(row).Error; err != nil {
		panic(fmt.Sprintf("failed to create test score row: %v", err))
	}

	return row
}

// helpers
func generateID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixNano(), generateSuffix())
}

func generateSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano()%100000)
}

// HTTPTestHelper HTTP test helper
type HTTPTestHelper struct{}

// NewHTTPTestHelper creates an HTTP test helper
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest builds a JSON request
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// AssertJSONResponse asserts status code and JSON body equality
func (h *HTTPTestHelper) AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedBody interface{}) {
	assert.Equal(t, expectedStatus, w.Code)

	if expectedBody != nil {
		var actualBody interface{}
		err := json.Unmarshal(w.Body.Bytes(), &actualBody)
		assert.NoError(t, err)

		expectedJSON, _ := json.Marshal(expectedBody)
		actualJSON, _ := json.Marshal(actualBody)

		assert.JSONEq(t, string(expectedJSON), string(actualJSON))
	}
}
