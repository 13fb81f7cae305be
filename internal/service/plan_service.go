package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/dinevote/internal/middleware"
	"github.com/mmynk/dinevote/internal/models"
	"github.com/mmynk/dinevote/internal/planning"
)

// PlanService implements the Connect PlanService on top of the planning engine.
type PlanService struct {
	engine *planning.Engine
}

// NewPlanService creates a new PlanService backed by engine.
func NewPlanService(engine *planning.Engine) *PlanService {
	return &PlanService{engine: engine}
}

func caller(ctx context.Context) (models.Identity, error) {
	id, ok := middleware.GetIdentity(ctx)
	if !ok || id.UserID == "" {
		return models.Identity{}, connect.NewError(connect.CodeUnauthenticated, errUnauthenticated)
	}
	return id, nil
}

// CreatePlan creates a plan with the caller as creator.
func (s *PlanService) CreatePlan(ctx context.Context, req *connect.Request[CreatePlanRequest]) (*connect.Response[CreatePlanResponse], error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreatePlan request received", "user_id", id.UserID, "title", req.Msg.Title)

	plan, err := s.engine.CreatePlan(ctx, id, planning.CreatePlanInput{
		Title:       req.Msg.Title,
		Description: req.Msg.Description,
	})
	if err != nil {
		return nil, toConnectError("CreatePlan", err)
	}

	return connect.NewResponse(&CreatePlanResponse{Plan: toPlan(plan, id.UserID)}), nil
}

// ListPlans lists the caller's plans by role.
func (s *PlanService) ListPlans(ctx context.Context, req *connect.Request[ListPlansRequest]) (*connect.Response[ListPlansResponse], error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ListPlans request received", "user_id", id.UserID, "role", req.Msg.Role)

	plans, err := s.engine.ListPlans(ctx, id, planning.Role(req.Msg.Role))
	if err != nil {
		return nil, toConnectError("ListPlans", err)
	}

	slog.Info("ListPlans successful", "user_id", id.UserID, "count", len(plans))
	return connect.NewResponse(&ListPlansResponse{Plans: toPlans(plans, id.UserID)}), nil
}

// GetPlan returns a plan the caller belongs to.
func (s *PlanService) GetPlan(ctx context.Context, req *connect.Request[GetPlanRequest]) (*connect.Response[GetPlanResponse], error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetPlan request received", "user_id", id.UserID, "plan_id", req.Msg.PlanID)

	plan, err := s.engine.GetPlan(ctx, id, req.Msg.PlanID)
	if err != nil {
		return nil, toConnectError("GetPlan", err)
	}

	return connect.NewResponse(&GetPlanResponse{Plan: toPlan(plan, id.UserID)}), nil
}

// JoinPlan adds the caller to a plan's roster.
func (s *PlanService) JoinPlan(ctx context.Context, req *connect.Request[JoinPlanRequest]) (*connect.Response[JoinPlanResponse], error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("JoinPlan request received", "user_id", id.UserID, "plan_id", req.Msg.PlanID)

	plan, err := s.engine.JoinPlan(ctx, id, req.Msg.PlanID)
	if err != nil {
		return nil, toConnectError("JoinPlan", err)
	}

	return connect.NewResponse(&JoinPlanResponse{Plan: toPlan(plan, id.UserID)}), nil
}

// AddTimeSlot proposes a time slot.
func (s *PlanService) AddTimeSlot(ctx context.Context, req *connect.Request[AddTimeSlotRequest]) (*connect.Response[AddTimeSlotResponse], error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("AddTimeSlot request received",
		"user_id", id.UserID,
		"plan_id", req.Msg.PlanID,
		"start_time", req.Msg.StartTime,
		"end_time", req.Msg.EndTime,
	)

	plan, err := s.engine.AddTimeSlot(ctx, id, req.Msg.PlanID, planning.TimeSlotInput{
		Description: req.Msg.Description,
		StartTime:   req.Msg.StartTime,
		EndTime:     req.Msg.EndTime,
	})
	if err != nil {
		return nil, toConnectError("AddTimeSlot", err)
	}

	return connect.NewResponse(&AddTimeSlotResponse{Plan: toPlan(plan, id.UserID)}), nil
}

// AddRestaurantOption proposes a restaurant.
func (s *PlanService) AddRestaurantOption(ctx context.Context, req *connect.Request[AddRestaurantOptionRequest]) (*connect.Response[AddRestaurantOptionResponse], error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("AddRestaurantOption request received",
		"user_id", id.UserID,
		"plan_id", req.Msg.PlanID,
		"name", req.Msg.Name,
	)

	plan, err := s.engine.AddRestaurantOption(ctx, id, req.Msg.PlanID, planning.RestaurantInput{
		Name:        req.Msg.Name,
		Address:     req.Msg.Address,
		Latitude:    req.Msg.Latitude,
		Longitude:   req.Msg.Longitude,
		CuisineType: req.Msg.CuisineType,
	})
	if err != nil {
		return nil, toConnectError("AddRestaurantOption", err)
	}

	return connect.NewResponse(&AddRestaurantOptionResponse{Plan: toPlan(plan, id.UserID)}), nil
}

// StartVoting opens voting.
func (s *PlanService) StartVoting(ctx context.Context, req *connect.Request[StartVotingRequest]) (*connect.Response[StartVotingResponse], error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("StartVoting request received", "user_id", id.UserID, "plan_id", req.Msg.PlanID)

	plan, err := s.engine.StartVoting(ctx, id, req.Msg.PlanID, req.Msg.VotingDeadline)
	if err != nil {
		return nil, toConnectError("StartVoting", err)
	}

	return connect.NewResponse(&StartVotingResponse{Plan: toPlan(plan, id.UserID)}), nil
}

// SubmitVote records or replaces the caller's ballot.
func (s *PlanService) SubmitVote(ctx context.Context, req *connect.Request[SubmitVoteRequest]) (*connect.Response[SubmitVoteResponse], error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("SubmitVote request received",
		"user_id", id.UserID,
		"plan_id", req.Msg.PlanID,
		"time_slots", len(req.Msg.TimeSlotIDs),
		"restaurants", len(req.Msg.RestaurantIDs),
	)

	vote, err := s.engine.SubmitVote(ctx, id, req.Msg.PlanID, planning.VoteInput{
		TimeSlotIDs:   req.Msg.TimeSlotIDs,
		RestaurantIDs: req.Msg.RestaurantIDs,
		Comment:       req.Msg.Comment,
	})
	if err != nil {
		return nil, toConnectError("SubmitVote", err)
	}

	return connect.NewResponse(&SubmitVoteResponse{Vote: toVote(vote)}), nil
}

// GetVotingResults returns the current tally.
func (s *PlanService) GetVotingResults(ctx context.Context, req *connect.Request[GetVotingResultsRequest]) (*connect.Response[GetVotingResultsResponse], error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetVotingResults request received", "user_id", id.UserID, "plan_id", req.Msg.PlanID)

	result, err := s.engine.Tally(ctx, id, req.Msg.PlanID)
	if err != nil {
		return nil, toConnectError("GetVotingResults", err)
	}

	slog.Info("GetVotingResults successful",
		"plan_id", result.PlanID,
		"voted", result.VotedParticipants,
		"total", result.TotalParticipants,
	)
	return connect.NewResponse(&GetVotingResultsResponse{Results: toResults(result)}), nil
}

// FinalizePlan confirms the chosen time slot and restaurant.
func (s *PlanService) FinalizePlan(ctx context.Context, req *connect.Request[FinalizePlanRequest]) (*connect.Response[FinalizePlanResponse], error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("FinalizePlan request received",
		"user_id", id.UserID,
		"plan_id", req.Msg.PlanID,
		"time_slot_id", req.Msg.TimeSlotID,
		"restaurant_id", req.Msg.RestaurantID,
	)

	plan, err := s.engine.Finalize(ctx, id, req.Msg.PlanID, planning.FinalizeInput{
		TimeSlotID:   req.Msg.TimeSlotID,
		RestaurantID: req.Msg.RestaurantID,
	})
	if err != nil {
		return nil, toConnectError("FinalizePlan", err)
	}

	return connect.NewResponse(&FinalizePlanResponse{Plan: toPlan(plan, id.UserID)}), nil
}

// CancelPlan cancels a plan that is not yet finalized.
func (s *PlanService) CancelPlan(ctx context.Context, req *connect.Request[CancelPlanRequest]) (*connect.Response[CancelPlanResponse], error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CancelPlan request received", "user_id", id.UserID, "plan_id", req.Msg.PlanID)

	plan, err := s.engine.Cancel(ctx, id, req.Msg.PlanID)
	if err != nil {
		return nil, toConnectError("CancelPlan", err)
	}

	return connect.NewResponse(&CancelPlanResponse{Plan: toPlan(plan, id.UserID)}), nil
}
