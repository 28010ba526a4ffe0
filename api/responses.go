package api

// CheckResponse is the response for a permission check.
type CheckResponse struct {
	Allowed    bool        `json:"allowed" description:"Whether the user holds the permission"`
	Decision   string      `json:"decision" description:"Decision code"`
	Reason     string      `json:"reason,omitempty" description:"Human-readable reason"`
	MatchedBy  []MatchInfo `json:"matched_by,omitempty" description:"Grant path that allowed the check"`
	EvalTimeNs int64       `json:"eval_time_ns" description:"Evaluation time in nanoseconds"`
}

// MatchInfo identifies a matched grant path.
type MatchInfo struct {
	Source string `json:"source" description:"legacy_role, organization_role, scoped_role or direct_grant"`
	RuleID string `json:"rule_id,omitempty" description:"Role ID when a role matched"`
	Detail string `json:"detail,omitempty" description:"Match detail"`
}

// BatchCheckResponse contains results for multiple checks.
type BatchCheckResponse struct {
	Results []CheckResponse `json:"results" description:"Check results in order"`
}

// PermissionInfo describes one catalog permission.
type PermissionInfo struct {
	Name   string `json:"name" description:"Permission (e.g. project:update)"`
	Domain string `json:"domain" description:"Domain part"`
	Action string `json:"action" description:"Action part"`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}
