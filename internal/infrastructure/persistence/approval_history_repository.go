package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/poa/backend/internal/domain/approval"
	"github.com/poa/backend/internal/infrastructure/persistence/models"
)

// GormApprovalHistoryRepository implements ApprovalHistoryRepository using
// GORM. The ledger is append-only; no update or delete path exists.
type GormApprovalHistoryRepository struct {
	db *gorm.DB
}

// NewGormApprovalHistoryRepository creates a new GormApprovalHistoryRepository
func NewGormApprovalHistoryRepository(db *gorm.DB) *GormApprovalHistoryRepository {
	return &GormApprovalHistoryRepository{db: db}
}

// Append inserts a ledger entry
func (r *GormApprovalHistoryRepository) Append(ctx context.Context, entry *approval.HistoryEntry) error {
	model := models.ApprovalHistoryEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// ListByReport returns a report's ledger in chronological order
func (r *GormApprovalHistoryRepository) ListByReport(ctx context.Context, reportID uuid.UUID) ([]approval.HistoryEntry, error) {
	var entryModels []models.ApprovalHistoryEntryModel
	if err := r.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("created_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]approval.HistoryEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}
