package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/role"
)

func (a *API) registerRoleRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("roles"))

	if err := g.POST("/roles", a.createRole,
		forge.WithSummary("Create role"),
		forge.WithDescription("Creates a custom role in the caller's organization."),
		forge.WithOperationID("createRole"),
		forge.WithRequestSchema(CreateRoleRequest{}),
		forge.WithCreatedResponse(&role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/roles/provision-defaults", a.provisionDefaults,
		forge.WithSummary("Provision default roles"),
		forge.WithDescription("Creates the admin, member and viewer roles if missing. Safe to call repeatedly."),
		forge.WithOperationID("provisionDefaultRoles"),
		forge.WithResponseSchema(http.StatusOK, "Default roles", ListResponse[*role.Role]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/roles/:roleId", a.getRole,
		forge.WithSummary("Get role"),
		forge.WithDescription("Returns details of a specific role."),
		forge.WithOperationID("getRole"),
		forge.WithResponseSchema(http.StatusOK, "Role details", &role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/roles/:roleId", a.updateRole,
		forge.WithSummary("Update role"),
		forge.WithDescription("Updates the name, description or permission set of a role."),
		forge.WithOperationID("updateRole"),
		forge.WithRequestSchema(UpdateRoleRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated role", &role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/roles/:roleId", a.deleteRole,
		forge.WithSummary("Delete role"),
		forge.WithDescription("Deletes an unassigned custom role."),
		forge.WithOperationID("deleteRole"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/roles", a.listRoles,
		forge.WithSummary("List roles"),
		forge.WithDescription("Lists the roles of the caller's organization."),
		forge.WithOperationID("listRoles"),
		forge.WithRequestSchema(ListRolesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Role list", ListResponse[*role.Role]{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createRole(ctx forge.Context, req *CreateRoleRequest) (*role.Role, error) {
	org, err := organization(ctx.Context())
	if err != nil {
		return nil, err
	}

	perms, err := permission.ParseAll(req.Permissions)
	if err != nil {
		return nil, mapError(err)
	}

	r, err := a.eng.CreateRole(ctx.Context(), org, req.Name, req.Description, perms)
	if err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.JSON(http.StatusCreated, r)
}

func (a *API) provisionDefaults(ctx forge.Context, _ *struct{}) (*ListResponse[*role.Role], error) {
	org, err := organization(ctx.Context())
	if err != nil {
		return nil, err
	}

	roles, err := a.eng.ProvisionDefaults(ctx.Context(), org)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*role.Role]{
		Items: roles,
		Total: int64(len(roles)),
		Limit: len(roles),
	}
	return nil, ctx.JSON(http.StatusOK, resp)
}

func (a *API) getRole(ctx forge.Context, _ *GetRoleRequest) (*role.Role, error) {
	org, err := organization(ctx.Context())
	if err != nil {
		return nil, err
	}

	roleID, err := id.ParseRoleID(ctx.Param("roleId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}

	r, err := a.ownedRole(ctx.Context(), org, roleID)
	if err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.JSON(http.StatusOK, r)
}

func (a *API) updateRole(ctx forge.Context, req *UpdateRoleRequest) (*role.Role, error) {
	org, err := organization(ctx.Context())
	if err != nil {
		return nil, err
	}

	roleID, err := id.ParseRoleID(ctx.Param("roleId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}

	if _, err := a.ownedRole(ctx.Context(), org, roleID); err != nil {
		return nil, mapError(err)
	}

	patch := role.Patch{Name: req.Name, Description: req.Description}
	if req.Permissions != nil {
		if patch.Permissions, err = permission.ParseAll(req.Permissions); err != nil {
			return nil, mapError(err)
		}
	}

	r, err := a.eng.UpdateRole(ctx.Context(), roleID, patch)
	if err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.JSON(http.StatusOK, r)
}

func (a *API) deleteRole(ctx forge.Context, _ *GetRoleRequest) (*struct{}, error) {
	org, err := organization(ctx.Context())
	if err != nil {
		return nil, err
	}

	roleID, err := id.ParseRoleID(ctx.Param("roleId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}

	if _, err := a.ownedRole(ctx.Context(), org, roleID); err != nil {
		return nil, mapError(err)
	}

	if err := a.eng.DeleteRole(ctx.Context(), roleID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listRoles(ctx forge.Context, req *ListRolesRequest) (*ListResponse[*role.Role], error) {
	org, err := organization(ctx.Context())
	if err != nil {
		return nil, err
	}

	roles, err := a.eng.ListRoles(ctx.Context(), org)
	if err != nil {
		return nil, mapError(err)
	}

	limit := defaultLimit(req.Limit)
	resp := &ListResponse[*role.Role]{
		Items:  page(roles, limit, req.Offset),
		Total:  int64(len(roles)),
		Limit:  limit,
		Offset: req.Offset,
	}
	return nil, ctx.JSON(http.StatusOK, resp)
}
