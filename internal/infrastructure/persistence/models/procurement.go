package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/poa/backend/internal/domain/procurement"
)

// ProcurementProcessModel is the persistence model for the procurement
// process read model, owned by the external PACC administration
type ProcurementProcessModel struct {
	BaseModel
	Reference string                    `gorm:"type:varchar(100);not null"`
	TotalCost decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	Status    procurement.ProcessStatus `gorm:"type:varchar(20);not null;default:'PLANNED'"`
}

// TableName returns the table name for GORM
func (ProcurementProcessModel) TableName() string {
	return "procurement_processes"
}

// ToDomain converts the persistence model to a domain Process
func (m *ProcurementProcessModel) ToDomain() *procurement.Process {
	return &procurement.Process{
		BaseEntity: m.BaseModel.ToDomain(),
		Reference:  m.Reference,
		TotalCost:  m.TotalCost,
		Status:     m.Status,
	}
}

// ActivityProcurementLinkModel is the persistence model for the
// ActivityProcurementLink aggregate root
type ActivityProcurementLinkModel struct {
	AggregateModel
	ActivityID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_activity_process,priority:1"`
	ProcurementProcessID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_activity_process,priority:2"`
	IsEssential          bool      `gorm:"not null;default:false"`
	LinkReason           string    `gorm:"type:varchar(500);not null"`
}

// TableName returns the table name for GORM
func (ActivityProcurementLinkModel) TableName() string {
	return "activity_procurement_links"
}

// ToDomain converts the persistence model to a domain ActivityProcurementLink
func (m *ActivityProcurementLinkModel) ToDomain() *procurement.ActivityProcurementLink {
	return &procurement.ActivityProcurementLink{
		BaseAggregateRoot:    m.ToDomainAggregateRoot(),
		ActivityID:           m.ActivityID,
		ProcurementProcessID: m.ProcurementProcessID,
		IsEssential:          m.IsEssential,
		LinkReason:           m.LinkReason,
	}
}

// FromDomain populates the persistence model from a domain ActivityProcurementLink
func (m *ActivityProcurementLinkModel) FromDomain(l *procurement.ActivityProcurementLink) {
	m.FromDomainAggregateRoot(l.BaseAggregateRoot)
	m.ActivityID = l.ActivityID
	m.ProcurementProcessID = l.ProcurementProcessID
	m.IsEssential = l.IsEssential
	m.LinkReason = l.LinkReason
}

// ActivityProcurementLinkModelFromDomain creates a persistence model from a domain link
func ActivityProcurementLinkModelFromDomain(l *procurement.ActivityProcurementLink) *ActivityProcurementLinkModel {
	m := &ActivityProcurementLinkModel{}
	m.FromDomain(l)
	return m
}
