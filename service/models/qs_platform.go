/*
 * @module service/models/qs_platform
 * @description Platform entity models consumed by the QS Score engine: companies, areas, collaborators, pendencies, visits and complaints
 * @architecture DDD - entity models
 * @documentReference dev_docs/qs_score_requirements.md
 * @stateFlow pendencies and complaints move ABERTA -> RESOLVIDA; visits and evaluations are append-only
 * @rules score computation never mutates these entities, it only reads counts and windows over them
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/qsscore/score.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status values persisted for pendencies, complaints and collaborators.
// Labels are kept in Portuguese, matching the platform front end.
const (
	PendencyStatusOpen     = "ABERTA"
	PendencyStatusResolved = "RESOLVIDA"

	ComplaintStatusOpen      = "ABERTA"
	ComplaintStatusMediation = "EM_MEDIACAO"
	ComplaintStatusResolved  = "RESOLVIDA"

	CollaboratorStatusActive   = "ATIVO"
	CollaboratorStatusInactive = "INATIVO"

	// EvaluationTypeArea marks visit evaluations that grade the area itself,
	// the only type the score formula consumes.
	EvaluationTypeArea = "AREA"
)

// Company tenant root entity
type Company struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"not null;size:255"`
	Status    string    `json:"status" gorm:"not null;default:'ATIVO';size:20"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	// relations
	Areas []Area `json:"areas,omitempty" gorm:"foreignKey:CompanyID"`
}

// Area organizational unit scored by the QS engine
type Area struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CompanyID   string    `json:"company_id" gorm:"not null;type:varchar(36);index"`
	Name        string    `json:"name" gorm:"not null;size:255"`
	Description string    `json:"description" gorm:"size:1000"`
	Status      string    `json:"status" gorm:"not null;default:'ATIVA';size:20"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	// relations
	Company Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
}

// CollaboratorProfile collaborator assignment to an area
type CollaboratorProfile struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CompanyID string    `json:"company_id" gorm:"not null;type:varchar(36);index"`
	AreaID    string    `json:"area_id" gorm:"not null;type:varchar(36);index"`
	Name      string    `json:"name" gorm:"not null;size:255"`
	Role      string    `json:"role" gorm:"size:100"`
	Status    string    `json:"status" gorm:"not null;default:'ATIVO';size:20"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// Pendency open item tracked against an area
type Pendency struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CompanyID   string     `json:"company_id" gorm:"not null;type:varchar(36);index"`
	AreaID      string     `json:"area_id" gorm:"not null;type:varchar(36);index"`
	Title       string     `json:"title" gorm:"not null;size:255"`
	Description string     `json:"description" gorm:"size:1000"`
	Responsible string     `json:"responsible" gorm:"size:255"` // free text, "Lider ..." flags leadership ownership
	Status      string     `json:"status" gorm:"not null;default:'ABERTA';size:20;index"`
	CreatedAt   time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// Visit audit/inclusion visit record for an area
type Visit struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CompanyID string    `json:"company_id" gorm:"not null;type:varchar(36);index"`
	AreaID    string    `json:"area_id" gorm:"not null;type:varchar(36);index"`
	Visitor   string    `json:"visitor" gorm:"size:255"`
	Notes     string    `json:"notes" gorm:"size:2000"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP;index"`
	// relations
	Evaluations []VisitEvaluation `json:"evaluations,omitempty" gorm:"foreignKey:VisitID"`
}

// VisitEvaluation graded evaluation attached to a visit
type VisitEvaluation struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	VisitID   string    `json:"visit_id" gorm:"not null;type:varchar(36);index"`
	Type      string    `json:"type" gorm:"not null;size:20"` // AREA, COLABORADOR, LIDERANCA
	Rating    float64   `json:"rating" gorm:"not null"`
	Comment   string    `json:"comment" gorm:"size:1000"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// Complaint mediation/complaint workflow record for an area
type Complaint struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CompanyID  string     `json:"company_id" gorm:"not null;type:varchar(36);index"`
	AreaID     string     `json:"area_id" gorm:"not null;type:varchar(36);index"`
	Category   string     `json:"category" gorm:"size:100"`
	Status     string     `json:"status" gorm:"not null;default:'ABERTA';size:20;index"`
	CreatedAt  time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP;index"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// BeforeCreate GORM hook, generates UUID before insert
func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

func (a *Area) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

func (cp *CollaboratorProfile) BeforeCreate(tx *gorm.DB) error {
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	return nil
}

func (p *Pendency) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

func (v *Visit) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}

func (ve *VisitEvaluation) BeforeCreate(tx *gorm.DB) error {
	if ve.ID == "" {
		ve.ID = uuid.New().String()
	}
	return nil
}

func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
