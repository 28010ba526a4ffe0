package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/resource"
)

func (a *API) registerAssignmentRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("assignments"))

	if err := g.POST("/assignments", a.assignRole,
		forge.WithSummary("Assign role"),
		forge.WithDescription("Assigns a role to a user at organization, project or team scope. Idempotent."),
		forge.WithOperationID("assignRole"),
		forge.WithRequestSchema(AssignRoleRequest{}),
		forge.WithCreatedResponse(&assignment.Assignment{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/assignments", a.removeRole,
		forge.WithSummary("Remove role"),
		forge.WithDescription("Removes the assignment matching (user, role, scope, scope id). Idempotent."),
		forge.WithOperationID("removeRole"),
		forge.WithRequestSchema(AssignRoleRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/assignments", a.listAssignments,
		forge.WithSummary("List assignments"),
		forge.WithDescription("Lists the assignments of a user, or the membership of a scope."),
		forge.WithOperationID("listAssignments"),
		forge.WithRequestSchema(ListAssignmentsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Assignment list", ListResponse[*assignment.Assignment]{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) assignRole(ctx forge.Context, req *AssignRoleRequest) (*assignment.Assignment, error) {
	org, k, err := a.parseKey(ctx, req)
	if err != nil {
		return nil, err
	}
	if _, err := a.ownedRole(ctx.Context(), org, k.RoleID); err != nil {
		return nil, mapError(err)
	}

	ass, err := a.eng.AssignRole(ctx.Context(), &rampart.AssignRequest{
		UserID:    k.UserID,
		RoleID:    k.RoleID,
		Scope:     k.Scope,
		ScopeID:   k.ScopeID,
		GrantedBy: rampart.UserFromContext(ctx.Context()),
	})
	if err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.JSON(http.StatusCreated, ass)
}

func (a *API) removeRole(ctx forge.Context, req *AssignRoleRequest) (*struct{}, error) {
	org, k, err := a.parseKey(ctx, req)
	if err != nil {
		return nil, err
	}
	if _, err := a.ownedRole(ctx.Context(), org, k.RoleID); err != nil {
		return nil, mapError(err)
	}

	if err := a.eng.RemoveRole(ctx.Context(), k); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listAssignments(ctx forge.Context, req *ListAssignmentsRequest) (*ListResponse[*assignment.Assignment], error) {
	org, err := organization(ctx.Context())
	if err != nil {
		return nil, err
	}

	var list []*assignment.Assignment
	switch {
	case req.UserID != "":
		list, err = a.eng.ListUserAssignments(ctx.Context(), req.UserID, org)
	case req.Scope == string(assignment.ScopeOrganization):
		list, err = a.eng.ListScopeAssignments(ctx.Context(), assignment.ScopeOrganization, org)
	case req.Scope != "":
		scope := assignment.Scope(req.Scope)
		if rt, ok := scope.ResourceType(); ok {
			if err := a.eng.RequireResource(ctx.Context(), org, resource.Ref{Type: rt, ID: req.ScopeID}); err != nil {
				return nil, mapError(err)
			}
		}
		list, err = a.eng.ListScopeAssignments(ctx.Context(), scope, req.ScopeID)
	default:
		return nil, forge.BadRequest("user_id or scope is required")
	}
	if err != nil {
		return nil, mapError(err)
	}

	limit := defaultLimit(req.Limit)
	resp := &ListResponse[*assignment.Assignment]{
		Items:  page(list, limit, req.Offset),
		Total:  int64(len(list)),
		Limit:  limit,
		Offset: req.Offset,
	}
	return nil, ctx.JSON(http.StatusOK, resp)
}

func (a *API) parseKey(ctx forge.Context, req *AssignRoleRequest) (string, assignment.Key, error) {
	org, err := organization(ctx.Context())
	if err != nil {
		return "", assignment.Key{}, err
	}
	if req.UserID == "" || req.RoleID == "" || req.Scope == "" {
		return "", assignment.Key{}, forge.BadRequest("user_id, role_id, and scope are required")
	}

	roleID, err := id.ParseRoleID(req.RoleID)
	if err != nil {
		return "", assignment.Key{}, forge.BadRequest(fmt.Sprintf("invalid role_id: %v", err))
	}

	return org, assignment.Key{
		UserID:  req.UserID,
		RoleID:  roleID,
		Scope:   assignment.Scope(req.Scope),
		ScopeID: req.ScopeID,
	}, nil
}
