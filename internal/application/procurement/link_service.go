package procurement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/poa/backend/internal/domain/planning"
	"github.com/poa/backend/internal/domain/procurement"
	"github.com/poa/backend/internal/domain/shared"
)

// LinkService manages activity-procurement links and runs the advisory
// budget consistency check. The check never blocks a write; its warning
// rides along in the response.
type LinkService struct {
	links      procurement.LinkRepository
	processes  procurement.ProcessRepository
	activities planning.ActivityRepository
	budgets    planning.BudgetExecutionReader
}

// NewLinkService creates a new LinkService
func NewLinkService(
	links procurement.LinkRepository,
	processes procurement.ProcessRepository,
	activities planning.ActivityRepository,
	budgets planning.BudgetExecutionReader,
) *LinkService {
	return &LinkService{
		links:      links,
		processes:  processes,
		activities: activities,
		budgets:    budgets,
	}
}

// ===================== DTOs =====================

// LinkResponse represents an activity-procurement link in API responses
type LinkResponse struct {
	ID                   uuid.UUID `json:"id"`
	ActivityID           uuid.UUID `json:"activity_id"`
	ProcurementProcessID uuid.UUID `json:"procurement_process_id"`
	IsEssential          bool      `json:"is_essential"`
	LinkReason           string    `json:"link_reason"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// LinkedProcessResponse pairs a link with its procurement process details
type LinkedProcessResponse struct {
	LinkResponse
	ProcessReference string          `json:"process_reference"`
	ProcessCost      decimal.Decimal `json:"process_cost"`
	ProcessStatus    string          `json:"process_status"`
}

// LinkWriteResponse is the result of a link mutation together with the
// consistency warning recomputed after the write
type LinkWriteResponse struct {
	Link    *LinkResponse                   `json:"link,omitempty"`
	Warning *procurement.ConsistencyWarning `json:"warning"`
}

// CreateLinkRequest represents a request to link an activity to a process
type CreateLinkRequest struct {
	ActivityID           uuid.UUID
	ProcurementProcessID uuid.UUID
	IsEssential          bool
	LinkReason           string
}

// UpdateLinkRequest represents a request to update a link
type UpdateLinkRequest struct {
	IsEssential bool
	LinkReason  string
}

// ===================== Operations =====================

// CreateLink links an activity to a procurement process. Both sides must
// exist and the pair must not already be linked.
func (s *LinkService) CreateLink(ctx context.Context, req CreateLinkRequest) (*LinkWriteResponse, error) {
	if _, err := s.activities.FindByID(ctx, req.ActivityID); err != nil {
		return nil, err
	}
	if _, err := s.processes.FindByID(ctx, req.ProcurementProcessID); err != nil {
		return nil, err
	}

	exists, err := s.links.ExistsForPair(ctx, req.ActivityID, req.ProcurementProcessID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Activity is already linked to this procurement process")
	}

	link, err := procurement.NewActivityProcurementLink(req.ActivityID, req.ProcurementProcessID, req.IsEssential, req.LinkReason)
	if err != nil {
		return nil, err
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, err
	}

	warning, err := s.checkActivity(ctx, link.ActivityID)
	if err != nil {
		return nil, err
	}
	return &LinkWriteResponse{Link: toLinkResponse(link), Warning: warning}, nil
}

// UpdateLink changes the essential flag and reason of a link
func (s *LinkService) UpdateLink(ctx context.Context, id uuid.UUID, req UpdateLinkRequest) (*LinkWriteResponse, error) {
	link, err := s.links.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := link.Update(req.IsEssential, req.LinkReason); err != nil {
		return nil, err
	}
	if err := s.links.Save(ctx, link); err != nil {
		return nil, err
	}

	warning, err := s.checkActivity(ctx, link.ActivityID)
	if err != nil {
		return nil, err
	}
	return &LinkWriteResponse{Link: toLinkResponse(link), Warning: warning}, nil
}

// DeleteLink removes a link and returns the warning recomputed afterwards
func (s *LinkService) DeleteLink(ctx context.Context, id uuid.UUID) (*LinkWriteResponse, error) {
	link, err := s.links.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.links.Delete(ctx, id); err != nil {
		return nil, err
	}

	warning, err := s.checkActivity(ctx, link.ActivityID)
	if err != nil {
		return nil, err
	}
	return &LinkWriteResponse{Warning: warning}, nil
}

// ListByActivity returns the activity's links joined with their processes
func (s *LinkService) ListByActivity(ctx context.Context, activityID uuid.UUID) ([]LinkedProcessResponse, error) {
	if _, err := s.activities.FindByID(ctx, activityID); err != nil {
		return nil, err
	}
	linked, err := s.links.FindLinkedProcesses(ctx, activityID)
	if err != nil {
		return nil, err
	}

	responses := make([]LinkedProcessResponse, len(linked))
	for i, lp := range linked {
		responses[i] = LinkedProcessResponse{
			LinkResponse:     *toLinkResponse(&lp.Link),
			ProcessReference: lp.Process.Reference,
			ProcessCost:      lp.Process.TotalCost,
			ProcessStatus:    string(lp.Process.Status),
		}
	}
	return responses, nil
}

// ActivityAlerts runs the consistency check for an activity on demand
func (s *LinkService) ActivityAlerts(ctx context.Context, activityID uuid.UUID) (*procurement.ConsistencyWarning, error) {
	if _, err := s.activities.FindByID(ctx, activityID); err != nil {
		return nil, err
	}
	return s.checkActivity(ctx, activityID)
}

func (s *LinkService) checkActivity(ctx context.Context, activityID uuid.UUID) (*procurement.ConsistencyWarning, error) {
	budget, err := s.budgets.ActivityBudget(ctx, activityID)
	if err != nil {
		return nil, err
	}
	linked, err := s.links.FindLinkedProcesses(ctx, activityID)
	if err != nil {
		return nil, err
	}
	warning := procurement.CheckConsistency(budget, linked)
	return &warning, nil
}

func toLinkResponse(l *procurement.ActivityProcurementLink) *LinkResponse {
	return &LinkResponse{
		ID:                   l.ID,
		ActivityID:           l.ActivityID,
		ProcurementProcessID: l.ProcurementProcessID,
		IsEssential:          l.IsEssential,
		LinkReason:           l.LinkReason,
		CreatedAt:            l.CreatedAt,
		UpdatedAt:            l.UpdatedAt,
	}
}
