package rampart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xraph/rampart/bootstrap"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/role"
	"github.com/xraph/rampart/store"
)

// ProvisionDefaults creates the admin, member and viewer roles of an
// organization from the bootstrap mapping. Roles that already exist are
// returned unchanged, so calling it again, or concurrently, is safe.
func (e *Engine) ProvisionDefaults(ctx context.Context, organizationID string) ([]*role.Role, error) {
	if err := e.requireOrganization(ctx, organizationID); err != nil {
		return nil, err
	}

	defs := bootstrap.Definitions()
	roles := make([]*role.Role, 0, len(defs))
	created := false
	for _, def := range defs {
		r, isNew, err := e.provisionRole(ctx, organizationID, def)
		if err != nil {
			return nil, fmt.Errorf("rampart: provision %q: %w", def.Name, err)
		}
		created = created || isNew
		roles = append(roles, r)
	}

	if created {
		e.logger.Info("provisioned default roles",
			slog.String("organization_id", organizationID),
			slog.Int("mapping_version", bootstrap.MappingVersion),
		)
	}
	if e.plugins != nil {
		e.plugins.EmitDefaultsProvisioned(ctx, organizationID, roles)
	}
	return roles, nil
}

func (e *Engine) provisionRole(ctx context.Context, organizationID string, def bootstrap.Definition) (*role.Role, bool, error) {
	existing, err := e.existingDefault(ctx, organizationID, def.Name)
	if err != nil || existing != nil {
		return existing, false, err
	}

	r, err := e.insertRole(ctx, &role.Role{
		ID:             id.NewRoleID(),
		OrganizationID: organizationID,
		Name:           def.Name,
		Slug:           role.Slugify(def.Name),
		Description:    def.Description,
		Permissions:    def.Permissions,
		IsDefault:      true,
	})
	if errors.Is(err, ErrDuplicateName) {
		// Lost a race with a concurrent provisioning call.
		existing, err = e.existingDefault(ctx, organizationID, def.Name)
		if err == nil && existing == nil {
			err = fmt.Errorf("%w: %q", ErrDuplicateName, def.Name)
		}
		return existing, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

// existingDefault returns the provisioned role with the given name, nil if
// there is none, and ErrDuplicateName if a non-default role holds the name.
func (e *Engine) existingDefault(ctx context.Context, organizationID, name string) (*role.Role, error) {
	r, err := e.store.GetRoleBySlug(ctx, organizationID, role.Slugify(name))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !r.IsDefault {
		return nil, fmt.Errorf("%w: %q exists but was not provisioned", ErrDuplicateName, name)
	}
	return r, nil
}
