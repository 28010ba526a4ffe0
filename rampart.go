// Package rampart resolves scoped role-based permissions for multi-tenant
// organizations.
//
// A user may hold roles at organization scope or narrowed to a single
// project or team, may receive permissions on a resource directly, and
// carries a coarse legacy role from the user directory. HasPermission is a
// pure OR over those sources; nothing can take away a permission another
// source grants.
//
//	eng, err := rampart.NewEngine(
//	    rampart.WithStore(memory.New()),
//	    rampart.WithDirectory(dir),
//	)
//	ok, err := eng.HasPermission(ctx, "user_1", "org_1", permission.ProjectView, nil)
package rampart

import (
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/resource"
)

// LegacyRole is the coarse role stored on the user record.
type LegacyRole string

const (
	LegacyOwner  LegacyRole = "owner"
	LegacyAdmin  LegacyRole = "admin"
	LegacyMember LegacyRole = "member"
	LegacyViewer LegacyRole = "viewer"
)

// Administers reports whether the legacy role unlocks the administrative
// permission set.
func (r LegacyRole) Administers() bool {
	return r == LegacyOwner || r == LegacyAdmin
}

// CheckRequest is the input to a permission check.
type CheckRequest struct {
	UserID         string                `json:"user_id"`
	OrganizationID string                `json:"organization_id"`
	Permission     permission.Permission `json:"permission"`
	Resource       *resource.Ref         `json:"resource,omitempty"`
}

// CheckResult is the outcome of a permission check.
type CheckResult struct {
	Allowed    bool        `json:"allowed"`
	Decision   Decision    `json:"decision"`
	Reason     string      `json:"reason,omitempty"`
	MatchedBy  []MatchInfo `json:"matched_by,omitempty"`
	EvalTimeNs int64       `json:"eval_time_ns"`
}

// Decision is the check outcome.
type Decision string

const (
	// DecisionAllow means some source grants the permission.
	DecisionAllow Decision = "allow"

	// DecisionDenyNoGrant means no source grants the permission.
	DecisionDenyNoGrant Decision = "deny_no_grant"

	// DecisionDenyCrossOrganization means the user or the resource lives
	// outside the organization being checked.
	DecisionDenyCrossOrganization Decision = "deny_cross_organization"
)

// Source names the grant path that allowed a check.
type Source string

const (
	SourceLegacyRole       Source = "legacy_role"
	SourceOrganizationRole Source = "organization_role"
	SourceScopedRole       Source = "scoped_role"
	SourceDirectGrant      Source = "direct_grant"
)

// MatchInfo describes what granted the permission.
type MatchInfo struct {
	Source Source `json:"source"`
	RuleID string `json:"rule_id,omitempty"`
	Detail string `json:"detail,omitempty"`
}
