package location

import (
	"fmt"
	"strings"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/config"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
	apperrors "github.com/JJCAPPE/inventario-cappellettoshop/pkg/errors"
)

// Directory is the lookup table of the two configured locations
type Directory struct {
	byRole map[domain.LocationRole]domain.LocationInfo
	byName map[string]domain.LocationRole
	byID   map[string]domain.LocationRole
}

// NewDirectory builds the table from configuration
func NewDirectory(cfg config.LocationsConfig) (*Directory, error) {
	d := &Directory{
		byRole: map[domain.LocationRole]domain.LocationInfo{},
		byName: map[string]domain.LocationRole{},
		byID:   map[string]domain.LocationRole{},
	}
	entries := []struct {
		role domain.LocationRole
		cfg  config.LocationConfig
	}{
		{domain.LocationRolePrimary, cfg.Primary},
		{domain.LocationRoleSecondary, cfg.Secondary},
	}
	for _, e := range entries {
		name := strings.TrimSpace(e.cfg.Name)
		if name == "" || e.cfg.ID == "" {
			return nil, &apperrors.ConfigError{Key: "LOCATION_" + strings.ToUpper(string(e.role)), Message: "name and id are required"}
		}
		key := normalize(name)
		if _, dup := d.byName[key]; dup {
			return nil, &apperrors.ConfigError{Key: "LOCATION_" + strings.ToUpper(string(e.role)) + "_NAME", Message: fmt.Sprintf("duplicate location name %q", name)}
		}
		d.byRole[e.role] = domain.LocationInfo{Name: name, ID: e.cfg.ID, Role: e.role}
		d.byName[key] = e.role
		d.byID[e.cfg.ID] = e.role
	}
	return d, nil
}

// ByName finds a location by display name, ignoring case
func (d *Directory) ByName(name string) (domain.LocationInfo, error) {
	role, ok := d.byName[normalize(name)]
	if !ok {
		return domain.LocationInfo{}, &apperrors.ErrNotFound{Resource: "location", ID: name}
	}
	return d.byRole[role], nil
}

// ByID finds a location by Shopify location id
func (d *Directory) ByID(id string) (domain.LocationInfo, error) {
	role, ok := d.byID[id]
	if !ok {
		return domain.LocationInfo{}, &apperrors.ErrNotFound{Resource: "location", ID: id}
	}
	return d.byRole[role], nil
}

// ByRole returns the location holding a role
func (d *Directory) ByRole(role domain.LocationRole) domain.LocationInfo {
	return d.byRole[role]
}

// All returns the locations, primary first
func (d *Directory) All() []domain.LocationInfo {
	return []domain.LocationInfo{
		d.byRole[domain.LocationRolePrimary],
		d.byRole[domain.LocationRoleSecondary],
	}
}

// Resolve orders the locations around the selected one: it comes first and
// the other location second. An empty name selects the primary location.
func (d *Directory) Resolve(current string) (domain.LocationConfig, error) {
	role := domain.LocationRolePrimary
	if strings.TrimSpace(current) != "" {
		info, err := d.ByName(current)
		if err != nil {
			return domain.LocationConfig{}, err
		}
		role = info.Role
	}
	return domain.LocationConfig{
		Primary:   d.byRole[role],
		Secondary: d.byRole[role.Other()],
	}, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
