package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/resource"
)

func (a *API) registerCheckRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("authorization"))

	if err := g.POST("/check", a.check,
		forge.WithSummary("Permission check"),
		forge.WithDescription("Reports whether the user holds the permission in the caller's organization, optionally on a project or team."),
		forge.WithOperationID("checkPermission"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check result", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/check/batch", a.batchCheck,
		forge.WithSummary("Batch permission check"),
		forge.WithDescription("Evaluates multiple permission checks in one request."),
		forge.WithOperationID("checkPermissionBatch"),
		forge.WithRequestSchema(BatchCheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Batch results", BatchCheckResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) check(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	creq, err := toCheckRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := a.eng.Check(ctx.Context(), creq)
	if err != nil {
		return nil, mapError(err)
	}

	resp := toCheckResponse(result)
	return nil, ctx.JSON(http.StatusOK, resp)
}

func (a *API) batchCheck(ctx forge.Context, req *BatchCheckRequest) (*BatchCheckResponse, error) {
	if len(req.Checks) == 0 {
		return nil, forge.BadRequest("checks cannot be empty")
	}

	results := make([]CheckResponse, len(req.Checks))
	for i := range req.Checks {
		creq, err := toCheckRequest(ctx, &req.Checks[i])
		if err != nil {
			return nil, err
		}
		result, err := a.eng.Check(ctx.Context(), creq)
		if err != nil {
			return nil, mapError(err)
		}
		results[i] = *toCheckResponse(result)
	}

	resp := &BatchCheckResponse{Results: results}
	return nil, ctx.JSON(http.StatusOK, resp)
}

func toCheckRequest(ctx forge.Context, r *CheckRequest) (*rampart.CheckRequest, error) {
	org, err := organization(ctx.Context())
	if err != nil {
		return nil, err
	}
	userID := r.UserID
	if userID == "" {
		userID = rampart.UserFromContext(ctx.Context())
	}
	if userID == "" || r.Permission == "" {
		return nil, forge.BadRequest("user_id and permission are required")
	}

	out := &rampart.CheckRequest{
		UserID:         userID,
		OrganizationID: org,
		Permission:     permission.Permission(r.Permission),
	}
	if r.ResourceType != "" || r.ResourceID != "" {
		out.Resource = resource.New(resource.Type(r.ResourceType), r.ResourceID)
	}
	return out, nil
}

func toCheckResponse(r *rampart.CheckResult) *CheckResponse {
	resp := &CheckResponse{
		Allowed:    r.Allowed,
		Decision:   string(r.Decision),
		Reason:     r.Reason,
		EvalTimeNs: r.EvalTimeNs,
	}
	for _, m := range r.MatchedBy {
		resp.MatchedBy = append(resp.MatchedBy, MatchInfo{
			Source: string(m.Source),
			RuleID: m.RuleID,
			Detail: m.Detail,
		})
	}
	return resp
}
