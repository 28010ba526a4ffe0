package api

// ──────────────────────────────────────────────────
// Check requests
// ──────────────────────────────────────────────────

// CheckRequest is the request body for a permission check. The
// organization comes from the caller's scope.
type CheckRequest struct {
	UserID       string `json:"user_id,omitempty" description:"User to check (default: the caller)"`
	Permission   string `json:"permission" description:"Catalog permission (e.g. project:update)"`
	ResourceType string `json:"resource_type,omitempty" description:"Resource type (project or team)"`
	ResourceID   string `json:"resource_id,omitempty" description:"Resource identifier"`
}

// BatchCheckRequest contains multiple checks.
type BatchCheckRequest struct {
	Checks []CheckRequest `json:"checks" description:"List of permission checks"`
}

// ──────────────────────────────────────────────────
// Role requests
// ──────────────────────────────────────────────────

// CreateRoleRequest is the body for creating a role.
type CreateRoleRequest struct {
	Name        string   `json:"name" description:"Role name, unique per organization ignoring case"`
	Description string   `json:"description,omitempty" description:"Human-readable description"`
	Permissions []string `json:"permissions" description:"Catalog permissions"`
}

// UpdateRoleRequest is the body for updating a role. Omitted fields are
// left unchanged; an empty permissions list clears the set.
type UpdateRoleRequest struct {
	Name        *string  `json:"name,omitempty" description:"Role name"`
	Description *string  `json:"description,omitempty" description:"Human-readable description"`
	Permissions []string `json:"permissions,omitempty" description:"Replacement permission set"`
}

// GetRoleRequest is the path parameter for getting a role.
type GetRoleRequest struct {
	RoleID string `path:"roleId" description:"Role ID"`
}

// ListRolesRequest holds query parameters for listing roles.
type ListRolesRequest struct {
	Limit  int `query:"limit" optional:"true" description:"Maximum results (default: 50)"`
	Offset int `query:"offset" optional:"true" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Assignment requests
// ──────────────────────────────────────────────────

// AssignRoleRequest is the body for assigning or removing a role.
type AssignRoleRequest struct {
	UserID  string `json:"user_id" description:"User identifier"`
	RoleID  string `json:"role_id" description:"Role ID"`
	Scope   string `json:"scope" description:"organization, project or team"`
	ScopeID string `json:"scope_id,omitempty" description:"Project or team ID; empty for organization scope"`
}

// ListAssignmentsRequest holds query parameters. Either user_id or scope
// must be set.
type ListAssignmentsRequest struct {
	UserID  string `query:"user_id" optional:"true" description:"List the assignments of a user"`
	Scope   string `query:"scope" optional:"true" description:"List the membership of a scope"`
	ScopeID string `query:"scope_id" optional:"true" description:"Project or team ID"`
	Limit   int    `query:"limit" optional:"true" description:"Maximum results"`
	Offset  int    `query:"offset" optional:"true" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Grant requests
// ──────────────────────────────────────────────────

// GrantRequest is the body for granting or revoking direct permissions.
type GrantRequest struct {
	ResourceType string   `json:"resource_type" description:"project or team"`
	ResourceID   string   `json:"resource_id" description:"Resource identifier"`
	UserID       string   `json:"user_id" description:"User identifier"`
	Permissions  []string `json:"permissions" description:"Permissions to add or remove; empty revoke removes all"`
}

// ListGrantsRequest holds query parameters.
type ListGrantsRequest struct {
	ResourceType string `query:"resource_type" optional:"true" description:"project or team"`
	ResourceID   string `query:"resource_id" optional:"true" description:"Resource identifier"`
}
