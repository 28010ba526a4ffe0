// Package middleware provides HTTP authorization middleware for rampart.
package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/resource"
)

// Option narrows a Require check to a resource taken from the request.
type Option func(*requirement)

type requirement struct {
	resourceType resource.Type
	param        string
}

// OnResource checks the permission on the project or team whose id is in
// the named path parameter.
func OnResource(t resource.Type, param string) Option {
	return func(r *requirement) {
		r.resourceType = t
		r.param = param
	}
}

// Require enforces perm for the calling user in the caller's organization.
// Denied checks and checks without a caller answer 403. A missing or
// malformed resource id answers 400; any other check error answers 500
// since the permission or route is misconfigured.
func Require(eng *rampart.Engine, perm permission.Permission, opts ...Option) forge.Middleware {
	req := requirement{}
	for _, opt := range opts {
		opt(&req)
	}

	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			userID := rampart.UserFromContext(ctx.Context())
			orgID := rampart.OrganizationFromContext(ctx.Context())
			if userID == "" || orgID == "" {
				return denyResponse(ctx)
			}

			var res *resource.Ref
			if req.resourceType != "" {
				resourceID := ctx.Param(req.param)
				if resourceID == "" {
					return writeError(ctx, http.StatusBadRequest, "missing "+req.param)
				}
				res = resource.New(req.resourceType, resourceID)
			}

			ok, err := eng.HasPermission(ctx.Context(), userID, orgID, perm, res)
			if errors.Is(err, rampart.ErrInvalidResource) {
				return writeError(ctx, http.StatusBadRequest, "invalid resource")
			}
			if err != nil {
				return errorResponse(ctx)
			}
			if !ok {
				return denyResponse(ctx)
			}
			return next(ctx)
		}
	}
}

// RequireAny allows the request if the caller holds ANY of perms at
// organization level.
func RequireAny(eng *rampart.Engine, perms ...permission.Permission) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			userID := rampart.UserFromContext(ctx.Context())
			orgID := rampart.OrganizationFromContext(ctx.Context())
			for _, p := range perms {
				ok, err := eng.HasPermission(ctx.Context(), userID, orgID, p, nil)
				if err == nil && ok {
					return next(ctx)
				}
			}
			return denyResponse(ctx)
		}
	}
}

func denyResponse(ctx forge.Context) error {
	return writeError(ctx, http.StatusForbidden, "access denied")
}

func errorResponse(ctx forge.Context) error {
	return writeError(ctx, http.StatusInternalServerError, "permission check failed")
}

func writeError(ctx forge.Context, status int, msg string) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(status)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": msg})
}
