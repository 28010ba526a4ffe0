package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/rampart/permission"
)

func (a *API) registerPermissionRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("permissions"))

	return g.GET("/permissions", a.listPermissions,
		forge.WithSummary("List permissions"),
		forge.WithDescription("Returns the fixed permission catalog."),
		forge.WithOperationID("listPermissions"),
		forge.WithResponseSchema(http.StatusOK, "Permission catalog", ListResponse[PermissionInfo]{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listPermissions(ctx forge.Context, _ *struct{}) (*ListResponse[PermissionInfo], error) {
	items := catalog()
	resp := &ListResponse[PermissionInfo]{
		Items: items,
		Total: int64(len(items)),
		Limit: len(items),
	}
	return nil, ctx.JSON(http.StatusOK, resp)
}

func catalog() []PermissionInfo {
	all := permission.All()
	out := make([]PermissionInfo, len(all))
	for i, p := range all {
		out[i] = PermissionInfo{Name: p.String(), Domain: p.Domain(), Action: p.Action()}
	}
	return out
}
