package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"twitterpipe/types"
)

// itemRow is the generic two-key row every Postgres table is made of.
type itemRow struct {
	PartitionKey string         `gorm:"column:partition_key;primaryKey"`
	SortKey      string         `gorm:"column:sort_key;primaryKey"`
	Item         datatypes.JSON `gorm:"column:item;type:jsonb;not null"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;not null"`
}

// PostgresTable upserts items as JSONB rows keyed by (partition_key, sort_key).
type PostgresTable struct {
	db    *gorm.DB
	table string
	now   func() time.Time
}

// NewPostgresTable creates the table if needed.
func NewPostgresTable(db *gorm.DB, table string) (*PostgresTable, error) {
	if err := db.Table(table).AutoMigrate(&itemRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate %s: %w", table, err)
	}
	return &PostgresTable{db: db, table: table, now: time.Now}, nil
}

func (t *PostgresTable) PutItem(ctx context.Context, item types.Keyed) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	pk, sk := item.Key()
	row := itemRow{PartitionKey: pk, SortKey: sk, Item: datatypes.JSON(raw), UpdatedAt: t.now().UTC()}

	err = t.db.WithContext(ctx).Table(t.table).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "partition_key"}, {Name: "sort_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"item", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert into %s: %w", t.table, err)
	}
	return nil
}
