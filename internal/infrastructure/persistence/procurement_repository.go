package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/poa/backend/internal/domain/procurement"
	"github.com/poa/backend/internal/domain/shared"
	"github.com/poa/backend/internal/infrastructure/persistence/models"
)

// GormLinkRepository implements LinkRepository using GORM
type GormLinkRepository struct {
	db *gorm.DB
}

// NewGormLinkRepository creates a new GormLinkRepository
func NewGormLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// FindByID finds a link by its ID
func (r *GormLinkRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.ActivityProcurementLink, error) {
	var model models.ActivityProcurementLinkModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByActivity returns all links of an activity
func (r *GormLinkRepository) FindByActivity(ctx context.Context, activityID uuid.UUID) ([]procurement.ActivityProcurementLink, error) {
	var linkModels []models.ActivityProcurementLinkModel
	if err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("created_at ASC").
		Find(&linkModels).Error; err != nil {
		return nil, err
	}

	links := make([]procurement.ActivityProcurementLink, len(linkModels))
	for i, model := range linkModels {
		links[i] = *model.ToDomain()
	}
	return links, nil
}

// ExistsForPair reports whether the (activity, process) pair is linked
func (r *GormLinkRepository) ExistsForPair(ctx context.Context, activityID, processID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ActivityProcurementLinkModel{}).
		Where("activity_id = ? AND procurement_process_id = ?", activityID, processID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindLinkedProcesses joins each link of the activity with its procurement
// process
func (r *GormLinkRepository) FindLinkedProcesses(ctx context.Context, activityID uuid.UUID) ([]procurement.LinkedProcess, error) {
	var linkModels []models.ActivityProcurementLinkModel
	if err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("created_at ASC").
		Find(&linkModels).Error; err != nil {
		return nil, err
	}
	if len(linkModels) == 0 {
		return []procurement.LinkedProcess{}, nil
	}

	processIDs := make([]uuid.UUID, len(linkModels))
	for i, link := range linkModels {
		processIDs[i] = link.ProcurementProcessID
	}

	var processModels []models.ProcurementProcessModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", processIDs).
		Find(&processModels).Error; err != nil {
		return nil, err
	}
	processByID := make(map[uuid.UUID]*procurement.Process, len(processModels))
	for i := range processModels {
		processByID[processModels[i].ID] = processModels[i].ToDomain()
	}

	linked := make([]procurement.LinkedProcess, 0, len(linkModels))
	for i := range linkModels {
		process, ok := processByID[linkModels[i].ProcurementProcessID]
		if !ok {
			// Orphaned link; the process was removed from the PACC
			continue
		}
		linked = append(linked, procurement.LinkedProcess{
			Link:    *linkModels[i].ToDomain(),
			Process: *process,
		})
	}
	return linked, nil
}

// Create inserts a new link
func (r *GormLinkRepository) Create(ctx context.Context, link *procurement.ActivityProcurementLink) error {
	model := models.ActivityProcurementLinkModelFromDomain(link)
	return r.db.WithContext(ctx).Create(model).Error
}

// Save updates a link with an optimistic version check
func (r *GormLinkRepository) Save(ctx context.Context, link *procurement.ActivityProcurementLink) error {
	model := models.ActivityProcurementLinkModelFromDomain(link)
	model.Version = link.Version + 1

	result := r.db.WithContext(ctx).Model(&models.ActivityProcurementLinkModel{}).
		Where("id = ? AND version = ?", link.ID, link.Version).
		Select("*").Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	link.Version = model.Version
	return nil
}

// Delete removes a link
func (r *GormLinkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ActivityProcurementLinkModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormProcessRepository implements ProcessRepository using GORM
type GormProcessRepository struct {
	db *gorm.DB
}

// NewGormProcessRepository creates a new GormProcessRepository
func NewGormProcessRepository(db *gorm.DB) *GormProcessRepository {
	return &GormProcessRepository{db: db}
}

// FindByID finds a procurement process by its ID
func (r *GormProcessRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.Process, error) {
	var model models.ProcurementProcessModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}
