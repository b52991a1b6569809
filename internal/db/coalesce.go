package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"horse.fit/breakdown/internal/globaltime"
)

// coalesceSet builds column = COALESCE(incoming, column) for every entry, so a
// NULL incoming value leaves the stored value untouched.
func coalesceSet(values map[string]any) map[string]any {
	set := make(map[string]any, len(values)+1)
	for column, value := range values {
		set[column] = gorm.Expr(fmt.Sprintf("COALESCE(?, %s)", column), value)
	}
	set["updated_at"] = globaltime.UTC()
	return set
}

// mergeByID applies a coalescing update to one row in a single statement.
func (p *Pool) mergeByID(ctx context.Context, model any, id string, values map[string]any) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}
	res := p.gdb.WithContext(ctx).Model(model).Where("id = ?", id).Updates(coalesceSet(values))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

// insertByNaturalKey inserts row unless its natural key already exists. The
// boolean reports whether this call created the row.
func (p *Pool) insertByNaturalKey(ctx context.Context, row any) (bool, error) {
	if p == nil || p.gdb == nil {
		return false, fmt.Errorf("database pool is not initialized")
	}
	res := p.gdb.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "natural_key"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (p *Pool) findByNaturalKey(ctx context.Context, dest any, key string) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}
	return p.gdb.WithContext(ctx).Where("natural_key = ?", key).Take(dest).Error
}
