package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alexanderramin/venuealloc/internal/contract"
	"github.com/alexanderramin/venuealloc/internal/domain"
	"github.com/alexanderramin/venuealloc/internal/service"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the HTTP surface over engine.
func NewRouter(engine service.AllocationEngine) (*chi.Mux, huma.API) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	config := huma.DefaultConfig("Venue Allocation API", "1.0.0")
	api := humachi.New(r, config)
	Register(api, NewAllocationHandler(engine))
	return r, api
}

// Register adds the allocation operations to api.
func Register(api huma.API, h *AllocationHandler) {
	huma.Post(api, "/events/{eventId}/assignments", h.HandleAssign, func(o *huma.Operation) {
		o.OperationID = "assign"
		o.Summary = "Assign a registrant to a venue position"
		o.DefaultStatus = http.StatusCreated
	})
	huma.Put(api, "/events/{eventId}/assignments/{userId}", h.HandleReassign, func(o *huma.Operation) {
		o.OperationID = "reassign"
		o.Summary = "Move a registrant to another venue position"
	})
	huma.Delete(api, "/events/{eventId}/assignments/{userId}", h.HandleCancel, func(o *huma.Operation) {
		o.Description = "The optional reason query parameter is one of cancelled (default), refunded or admin."
		o.OperationID = "cancel"
		o.Summary = "Release a registrant's venue position"
	})
	huma.Get(api, "/events/{eventId}/assignments/{userId}", h.HandleCurrent, func(o *huma.Operation) {
		o.OperationID = "current-assignment"
		o.Summary = "Get a registrant's current venue position"
	})
	huma.Get(api, "/nodes/{nodeId}/occupancy", h.HandleOccupancy, func(o *huma.Operation) {
		o.OperationID = "occupancy"
		o.Summary = "Get live occupancy of a venue node"
	})
}

type AllocationHandler struct {
	engine service.AllocationEngine
}

func NewAllocationHandler(engine service.AllocationEngine) *AllocationHandler {
	return &AllocationHandler{engine: engine}
}

type AssignInput struct {
	EventID string `path:"eventId" doc:"Event identifier"`
	Body    struct {
		UserID       string `json:"user_id" doc:"Registrant identifier"`
		NodeID       string `json:"node_id" doc:"Venue node identifier"`
		SubUnitIndex *int   `json:"sub_unit_index,omitempty" doc:"Sub-unit index; required for subdivided nodes"`
	}
}

type ReassignInput struct {
	EventID string `path:"eventId" doc:"Event identifier"`
	UserID  string `path:"userId" doc:"Registrant identifier"`
	Body    struct {
		NodeID       string `json:"node_id" doc:"Venue node identifier"`
		SubUnitIndex *int   `json:"sub_unit_index,omitempty" doc:"Sub-unit index; required for subdivided nodes"`
	}
}

type UserInput struct {
	EventID string `path:"eventId" doc:"Event identifier"`
	UserID  string `path:"userId" doc:"Registrant identifier"`
}

type CancelInput struct {
	EventID string `path:"eventId" doc:"Event identifier"`
	UserID  string `path:"userId" doc:"Registrant identifier"`
	Reason  string `query:"reason" doc:"Release reason: cancelled, refunded or admin"`
}

type OccupancyInput struct {
	NodeID string `path:"nodeId" doc:"Venue node identifier"`
	Rollup bool   `query:"rollup" doc:"Sum over the node and all of its descendants"`
}

type AssignOutput struct {
	Body contract.AssignResult
}

type AssignmentOutput struct {
	Body contract.AssignmentView
}

type OccupancyOutput struct {
	Body contract.OccupancyView
}

func (h *AllocationHandler) HandleAssign(ctx context.Context, input *AssignInput) (*AssignOutput, error) {
	res, err := h.engine.Assign(ctx, contract.AssignRequest{
		UserID:       input.Body.UserID,
		EventID:      input.EventID,
		NodeID:       input.Body.NodeID,
		SubUnitIndex: input.Body.SubUnitIndex,
	})
	if err != nil {
		return nil, h.fail(ctx, "assign", err)
	}
	return &AssignOutput{Body: *res}, nil
}

func (h *AllocationHandler) HandleReassign(ctx context.Context, input *ReassignInput) (*AssignOutput, error) {
	res, err := h.engine.Reassign(ctx, contract.AssignRequest{
		UserID:       input.UserID,
		EventID:      input.EventID,
		NodeID:       input.Body.NodeID,
		SubUnitIndex: input.Body.SubUnitIndex,
	})
	if err != nil {
		return nil, h.fail(ctx, "reassign", err)
	}
	return &AssignOutput{Body: *res}, nil
}

func (h *AllocationHandler) HandleCancel(ctx context.Context, input *CancelInput) (*struct{}, error) {
	if err := h.engine.Cancel(ctx, input.UserID, input.EventID, domain.ReleaseReason(input.Reason)); err != nil {
		return nil, h.fail(ctx, "cancel", err)
	}
	return nil, nil
}

func (h *AllocationHandler) HandleCurrent(ctx context.Context, input *UserInput) (*AssignmentOutput, error) {
	view, err := h.engine.CurrentAssignment(ctx, input.UserID, input.EventID)
	if err != nil {
		return nil, h.fail(ctx, "current-assignment", err)
	}
	return &AssignmentOutput{Body: *view}, nil
}

func (h *AllocationHandler) HandleOccupancy(ctx context.Context, input *OccupancyInput) (*OccupancyOutput, error) {
	view, err := h.engine.Occupancy(ctx, input.NodeID, input.Rollup)
	if err != nil {
		return nil, h.fail(ctx, "occupancy", err)
	}
	return &OccupancyOutput{Body: *view}, nil
}

func (h *AllocationHandler) fail(ctx context.Context, op string, err error) error {
	p := problemFor(err)
	if p.Status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "allocation request failed", "op", op, "code", string(p.Code), "error", err)
	}
	return p
}
