/*
 * @module service/models/qs_score
 * @description QS Score snapshot model. Rows are append-only: a recalculation inserts new rows, the current score for an area or company is the most recently created row for that key
 * @architecture DDD - entity models
 * @documentReference dev_docs/qs_score_requirements.md
 * @stateFlow row created by on-demand scoring or the recalculation job; never updated or deleted by this service
 * @rules AreaID NULL marks the company-wide aggregate row; Score always within [0, 1000]
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/qsscore/recalc.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Classification labels derived from the numeric score.
const (
	ClassificationExcellent = "EXCELENTE" // score >= 800
	ClassificationGood      = "BOM"       // score >= 600
	ClassificationAttention = "ATENCAO"   // score >= 400
	ClassificationRisk      = "RISCO"     // score >= 200
	ClassificationCritical  = "CRITICO"   // below 200
)

// Trend tags. Historical trend computation does not exist yet,
// every row is written with TrendStable.
const (
	TrendStable = "ESTAVEL"
)

// Risk colors for map visualizations, a coarser 3-bucket view.
const (
	RiskColorGreen  = "green"  // score >= 600
	RiskColorYellow = "yellow" // score >= 400
	RiskColorRed    = "red"    // below 400
)

// QSScore persisted score snapshot for an area or a whole company
type QSScore struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CompanyID      string    `json:"company_id" gorm:"not null;type:varchar(36);index"`
	AreaID         *string   `json:"area_id,omitempty" gorm:"type:varchar(36);index"` // NULL = company aggregate
	Score          int       `json:"score" gorm:"not null"`
	Classification string    `json:"classification" gorm:"not null;size:20"`
	Factors        JSONB     `json:"factors" gorm:"type:jsonb"`
	Breakdown      JSONB     `json:"breakdown" gorm:"type:jsonb"`
	Trend          string    `json:"trend" gorm:"not null;default:'ESTAVEL';size:20"`
	CreatedAt      time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

// BeforeCreate GORM hook, generates UUID before insert
func (s *QSScore) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
