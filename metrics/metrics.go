// Package metrics exports rampart activity as Prometheus metrics through
// the plugin hooks.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/grant"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/plugin"
	"github.com/xraph/rampart/role"
)

// Compile-time hook checks.
var (
	_ plugin.AfterCheck          = (*Plugin)(nil)
	_ plugin.RoleCreated         = (*Plugin)(nil)
	_ plugin.RoleUpdated         = (*Plugin)(nil)
	_ plugin.RoleDeleted         = (*Plugin)(nil)
	_ plugin.RoleAssigned        = (*Plugin)(nil)
	_ plugin.RoleUnassigned      = (*Plugin)(nil)
	_ plugin.GrantChanged        = (*Plugin)(nil)
	_ plugin.DefaultsProvisioned = (*Plugin)(nil)
)

// Plugin records permission checks and mutations.
type Plugin struct {
	registry *prometheus.Registry

	ChecksTotal    *prometheus.CounterVec
	CheckDuration  *prometheus.HistogramVec
	MutationsTotal *prometheus.CounterVec
	Provisioned    prometheus.Counter
}

// New creates the metrics and registers them with registry. A nil registry
// gets a private one.
func New(registry *prometheus.Registry) *Plugin {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	p := &Plugin{
		registry: registry,
		ChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rampart_checks_total",
				Help: "Total number of permission checks by decision and granting source",
			},
			[]string{"decision", "source"},
		),
		CheckDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rampart_check_duration_seconds",
				Help:    "Permission check resolution time in seconds",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"decision"},
		),
		MutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rampart_mutations_total",
				Help: "Total number of role, assignment and grant changes",
			},
			[]string{"kind"},
		),
		Provisioned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rampart_default_provisions_total",
			Help: "Total number of default role provisioning calls",
		}),
	}
	registry.MustRegister(p.ChecksTotal, p.CheckDuration, p.MutationsTotal, p.Provisioned)
	return p
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return "prometheus" }

// Registry returns the registry the metrics live in.
func (p *Plugin) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus exposition format.
func (p *Plugin) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Plugin) OnAfterCheck(_ context.Context, _, result any) error {
	res, ok := result.(*rampart.CheckResult)
	if !ok {
		return nil
	}
	source := "none"
	if len(res.MatchedBy) > 0 {
		source = string(res.MatchedBy[0].Source)
	}
	p.ChecksTotal.WithLabelValues(string(res.Decision), source).Inc()
	p.CheckDuration.WithLabelValues(string(res.Decision)).
		Observe((time.Duration(res.EvalTimeNs) * time.Nanosecond).Seconds())
	return nil
}

func (p *Plugin) OnRoleCreated(context.Context, *role.Role) error {
	p.MutationsTotal.WithLabelValues("role_created").Inc()
	return nil
}

func (p *Plugin) OnRoleUpdated(context.Context, *role.Role) error {
	p.MutationsTotal.WithLabelValues("role_updated").Inc()
	return nil
}

func (p *Plugin) OnRoleDeleted(context.Context, id.RoleID) error {
	p.MutationsTotal.WithLabelValues("role_deleted").Inc()
	return nil
}

func (p *Plugin) OnRoleAssigned(context.Context, *assignment.Assignment) error {
	p.MutationsTotal.WithLabelValues("role_assigned").Inc()
	return nil
}

func (p *Plugin) OnRoleUnassigned(context.Context, *assignment.Assignment) error {
	p.MutationsTotal.WithLabelValues("role_unassigned").Inc()
	return nil
}

func (p *Plugin) OnGrantChanged(context.Context, *grant.Grant) error {
	p.MutationsTotal.WithLabelValues("grant_changed").Inc()
	return nil
}

func (p *Plugin) OnDefaultsProvisioned(context.Context, string, []*role.Role) error {
	p.Provisioned.Inc()
	return nil
}
