package service

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// PlanServiceName is the fully-qualified name of the PlanService service.
const PlanServiceName = "dinevote.v1.PlanService"

// Procedure paths of PlanService.
const (
	PlanServiceCreatePlanProcedure          = "/dinevote.v1.PlanService/CreatePlan"
	PlanServiceListPlansProcedure           = "/dinevote.v1.PlanService/ListPlans"
	PlanServiceGetPlanProcedure             = "/dinevote.v1.PlanService/GetPlan"
	PlanServiceJoinPlanProcedure            = "/dinevote.v1.PlanService/JoinPlan"
	PlanServiceAddTimeSlotProcedure         = "/dinevote.v1.PlanService/AddTimeSlot"
	PlanServiceAddRestaurantOptionProcedure = "/dinevote.v1.PlanService/AddRestaurantOption"
	PlanServiceStartVotingProcedure         = "/dinevote.v1.PlanService/StartVoting"
	PlanServiceSubmitVoteProcedure          = "/dinevote.v1.PlanService/SubmitVote"
	PlanServiceGetVotingResultsProcedure    = "/dinevote.v1.PlanService/GetVotingResults"
	PlanServiceFinalizePlanProcedure        = "/dinevote.v1.PlanService/FinalizePlan"
	PlanServiceCancelPlanProcedure          = "/dinevote.v1.PlanService/CancelPlan"
)

// NewPlanServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewPlanServiceHandler(svc *PlanService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(PlanServiceCreatePlanProcedure, connect.NewUnaryHandler(PlanServiceCreatePlanProcedure, svc.CreatePlan, opts...))
	mux.Handle(PlanServiceListPlansProcedure, connect.NewUnaryHandler(PlanServiceListPlansProcedure, svc.ListPlans, opts...))
	mux.Handle(PlanServiceGetPlanProcedure, connect.NewUnaryHandler(PlanServiceGetPlanProcedure, svc.GetPlan, opts...))
	mux.Handle(PlanServiceJoinPlanProcedure, connect.NewUnaryHandler(PlanServiceJoinPlanProcedure, svc.JoinPlan, opts...))
	mux.Handle(PlanServiceAddTimeSlotProcedure, connect.NewUnaryHandler(PlanServiceAddTimeSlotProcedure, svc.AddTimeSlot, opts...))
	mux.Handle(PlanServiceAddRestaurantOptionProcedure, connect.NewUnaryHandler(PlanServiceAddRestaurantOptionProcedure, svc.AddRestaurantOption, opts...))
	mux.Handle(PlanServiceStartVotingProcedure, connect.NewUnaryHandler(PlanServiceStartVotingProcedure, svc.StartVoting, opts...))
	mux.Handle(PlanServiceSubmitVoteProcedure, connect.NewUnaryHandler(PlanServiceSubmitVoteProcedure, svc.SubmitVote, opts...))
	mux.Handle(PlanServiceGetVotingResultsProcedure, connect.NewUnaryHandler(PlanServiceGetVotingResultsProcedure, svc.GetVotingResults, opts...))
	mux.Handle(PlanServiceFinalizePlanProcedure, connect.NewUnaryHandler(PlanServiceFinalizePlanProcedure, svc.FinalizePlan, opts...))
	mux.Handle(PlanServiceCancelPlanProcedure, connect.NewUnaryHandler(PlanServiceCancelPlanProcedure, svc.CancelPlan, opts...))

	return "/" + PlanServiceName + "/", mux
}

// PlanServiceClient is a typed client for PlanService.
type PlanServiceClient struct {
	createPlan          *connect.Client[CreatePlanRequest, CreatePlanResponse]
	listPlans           *connect.Client[ListPlansRequest, ListPlansResponse]
	getPlan             *connect.Client[GetPlanRequest, GetPlanResponse]
	joinPlan            *connect.Client[JoinPlanRequest, JoinPlanResponse]
	addTimeSlot         *connect.Client[AddTimeSlotRequest, AddTimeSlotResponse]
	addRestaurantOption *connect.Client[AddRestaurantOptionRequest, AddRestaurantOptionResponse]
	startVoting         *connect.Client[StartVotingRequest, StartVotingResponse]
	submitVote          *connect.Client[SubmitVoteRequest, SubmitVoteResponse]
	getVotingResults    *connect.Client[GetVotingResultsRequest, GetVotingResultsResponse]
	finalizePlan        *connect.Client[FinalizePlanRequest, FinalizePlanResponse]
	cancelPlan          *connect.Client[CancelPlanRequest, CancelPlanResponse]
}

// NewPlanServiceClient constructs a client for the PlanService served at baseURL
// (e.g. http://localhost:8080).
func NewPlanServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlanServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)

	return &PlanServiceClient{
		createPlan:          connect.NewClient[CreatePlanRequest, CreatePlanResponse](httpClient, baseURL+PlanServiceCreatePlanProcedure, opts...),
		listPlans:           connect.NewClient[ListPlansRequest, ListPlansResponse](httpClient, baseURL+PlanServiceListPlansProcedure, opts...),
		getPlan:             connect.NewClient[GetPlanRequest, GetPlanResponse](httpClient, baseURL+PlanServiceGetPlanProcedure, opts...),
		joinPlan:            connect.NewClient[JoinPlanRequest, JoinPlanResponse](httpClient, baseURL+PlanServiceJoinPlanProcedure, opts...),
		addTimeSlot:         connect.NewClient[AddTimeSlotRequest, AddTimeSlotResponse](httpClient, baseURL+PlanServiceAddTimeSlotProcedure, opts...),
		addRestaurantOption: connect.NewClient[AddRestaurantOptionRequest, AddRestaurantOptionResponse](httpClient, baseURL+PlanServiceAddRestaurantOptionProcedure, opts...),
		startVoting:         connect.NewClient[StartVotingRequest, StartVotingResponse](httpClient, baseURL+PlanServiceStartVotingProcedure, opts...),
		submitVote:          connect.NewClient[SubmitVoteRequest, SubmitVoteResponse](httpClient, baseURL+PlanServiceSubmitVoteProcedure, opts...),
		getVotingResults:    connect.NewClient[GetVotingResultsRequest, GetVotingResultsResponse](httpClient, baseURL+PlanServiceGetVotingResultsProcedure, opts...),
		finalizePlan:        connect.NewClient[FinalizePlanRequest, FinalizePlanResponse](httpClient, baseURL+PlanServiceFinalizePlanProcedure, opts...),
		cancelPlan:          connect.NewClient[CancelPlanRequest, CancelPlanResponse](httpClient, baseURL+PlanServiceCancelPlanProcedure, opts...),
	}
}

// CreatePlan calls dinevote.v1.PlanService.CreatePlan.
func (c *PlanServiceClient) CreatePlan(ctx context.Context, req *connect.Request[CreatePlanRequest]) (*connect.Response[CreatePlanResponse], error) {
	return c.createPlan.CallUnary(ctx, req)
}

// ListPlans calls dinevote.v1.PlanService.ListPlans.
func (c *PlanServiceClient) ListPlans(ctx context.Context, req *connect.Request[ListPlansRequest]) (*connect.Response[ListPlansResponse], error) {
	return c.listPlans.CallUnary(ctx, req)
}

// GetPlan calls dinevote.v1.PlanService.GetPlan.
func (c *PlanServiceClient) GetPlan(ctx context.Context, req *connect.Request[GetPlanRequest]) (*connect.Response[GetPlanResponse], error) {
	return c.getPlan.CallUnary(ctx, req)
}

// JoinPlan calls dinevote.v1.PlanService.JoinPlan.
func (c *PlanServiceClient) JoinPlan(ctx context.Context, req *connect.Request[JoinPlanRequest]) (*connect.Response[JoinPlanResponse], error) {
	return c.joinPlan.CallUnary(ctx, req)
}

// AddTimeSlot calls dinevote.v1.PlanService.AddTimeSlot.
func (c *PlanServiceClient) AddTimeSlot(ctx context.Context, req *connect.Request[AddTimeSlotRequest]) (*connect.Response[AddTimeSlotResponse], error) {
	return c.addTimeSlot.CallUnary(ctx, req)
}

// AddRestaurantOption calls dinevote.v1.PlanService.AddRestaurantOption.
func (c *PlanServiceClient) AddRestaurantOption(ctx context.Context, req *connect.Request[AddRestaurantOptionRequest]) (*connect.Response[AddRestaurantOptionResponse], error) {
	return c.addRestaurantOption.CallUnary(ctx, req)
}

// StartVoting calls dinevote.v1.PlanService.StartVoting.
func (c *PlanServiceClient) StartVoting(ctx context.Context, req *connect.Request[StartVotingRequest]) (*connect.Response[StartVotingResponse], error) {
	return c.startVoting.CallUnary(ctx, req)
}

// SubmitVote calls dinevote.v1.PlanService.SubmitVote.
func (c *PlanServiceClient) SubmitVote(ctx context.Context, req *connect.Request[SubmitVoteRequest]) (*connect.Response[SubmitVoteResponse], error) {
	return c.submitVote.CallUnary(ctx, req)
}

// GetVotingResults calls dinevote.v1.PlanService.GetVotingResults.
func (c *PlanServiceClient) GetVotingResults(ctx context.Context, req *connect.Request[GetVotingResultsRequest]) (*connect.Response[GetVotingResultsResponse], error) {
	return c.getVotingResults.CallUnary(ctx, req)
}

// FinalizePlan calls dinevote.v1.PlanService.FinalizePlan.
func (c *PlanServiceClient) FinalizePlan(ctx context.Context, req *connect.Request[FinalizePlanRequest]) (*connect.Response[FinalizePlanResponse], error) {
	return c.finalizePlan.CallUnary(ctx, req)
}

// CancelPlan calls dinevote.v1.PlanService.CancelPlan.
func (c *PlanServiceClient) CancelPlan(ctx context.Context, req *connect.Request[CancelPlanRequest]) (*connect.Response[CancelPlanResponse], error) {
	return c.cancelPlan.CallUnary(ctx, req)
}
