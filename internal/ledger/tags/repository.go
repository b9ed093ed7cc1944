package tags

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	GetConfig(ctx context.Context, organizationID string) (DimensionConfig, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// GetConfig loads the enabled tag slots for an organization. An organization
// with no rows simply has no dimensions configured.
func (r *repository) GetConfig(ctx context.Context, organizationID string) (DimensionConfig, error) {
	rows, err := r.db.Query(ctx, `SELECT dimension_index, name, balance_required
FROM tag_dimensions WHERE organization_id=$1 ORDER BY dimension_index`, organizationID)
	if err != nil {
		return DimensionConfig{}, err
	}
	defer rows.Close()
	cfg := DimensionConfig{OrganizationID: organizationID}
	for rows.Next() {
		var d Dimension
		if err := rows.Scan(&d.Index, &d.Name, &d.BalanceRequired); err != nil {
			return DimensionConfig{}, err
		}
		cfg.Dimensions = append(cfg.Dimensions, d)
	}
	if err := rows.Err(); err != nil {
		return DimensionConfig{}, err
	}
	sort.Slice(cfg.Dimensions, func(i, j int) bool { return cfg.Dimensions[i].Index < cfg.Dimensions[j].Index })
	return cfg, nil
}
