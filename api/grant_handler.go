package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/grant"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/resource"
)

func (a *API) registerGrantRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("grants"))

	if err := g.POST("/grants", a.grant,
		forge.WithSummary("Grant permissions"),
		forge.WithDescription("Adds permissions to a user's direct grant on a project or team."),
		forge.WithOperationID("grantPermissions"),
		forge.WithRequestSchema(GrantRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Merged grant", &grant.Grant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/grants", a.revoke,
		forge.WithSummary("Revoke permissions"),
		forge.WithDescription("Removes permissions from a user's direct grant. An empty list removes the whole grant."),
		forge.WithOperationID("revokePermissions"),
		forge.WithRequestSchema(GrantRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Remaining grant", &grant.Grant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/grants", a.listGrants,
		forge.WithSummary("List grants"),
		forge.WithDescription("Lists the direct grants on a project or team."),
		forge.WithOperationID("listGrants"),
		forge.WithRequestSchema(ListGrantsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Grant list", ListResponse[*grant.Grant]{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) grant(ctx forge.Context, req *GrantRequest) (*grant.Grant, error) {
	ref, perms, err := a.parseGrant(ctx, req)
	if err != nil {
		return nil, err
	}

	g, err := a.eng.Grant(ctx.Context(), &rampart.GrantRequest{
		Resource:    ref,
		UserID:      req.UserID,
		Permissions: perms,
		GrantedBy:   rampart.UserFromContext(ctx.Context()),
	})
	if err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.JSON(http.StatusOK, g)
}

func (a *API) revoke(ctx forge.Context, req *GrantRequest) (*grant.Grant, error) {
	ref, perms, err := a.parseGrant(ctx, req)
	if err != nil {
		return nil, err
	}

	g, err := a.eng.RevokeGrant(ctx.Context(), ref, req.UserID, perms)
	if err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.JSON(http.StatusOK, g)
}

func (a *API) listGrants(ctx forge.Context, req *ListGrantsRequest) (*ListResponse[*grant.Grant], error) {
	org, err := organization(ctx.Context())
	if err != nil {
		return nil, err
	}

	ref := resource.Ref{Type: resource.Type(req.ResourceType), ID: req.ResourceID}
	if err := a.eng.RequireResource(ctx.Context(), org, ref); err != nil {
		return nil, mapError(err)
	}

	grants, err := a.eng.ListGrants(ctx.Context(), ref)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*grant.Grant]{
		Items: grants,
		Total: int64(len(grants)),
		Limit: len(grants),
	}
	return nil, ctx.JSON(http.StatusOK, resp)
}

func (a *API) parseGrant(ctx forge.Context, req *GrantRequest) (resource.Ref, []permission.Permission, error) {
	org, err := organization(ctx.Context())
	if err != nil {
		return resource.Ref{}, nil, err
	}
	if req.UserID == "" {
		return resource.Ref{}, nil, forge.BadRequest("user_id is required")
	}

	ref := resource.Ref{Type: resource.Type(req.ResourceType), ID: req.ResourceID}
	if err := a.eng.RequireResource(ctx.Context(), org, ref); err != nil {
		return resource.Ref{}, nil, mapError(err)
	}

	perms, err := permission.ParseAll(req.Permissions)
	if err != nil {
		return resource.Ref{}, nil, mapError(err)
	}
	return ref, perms, nil
}
