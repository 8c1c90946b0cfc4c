package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"twitterpipe/config"
	"twitterpipe/types"
)

// Table is any store that puts keyed items with overwrite semantics.
type Table interface {
	PutItem(ctx context.Context, item types.Keyed) error
}

// OpenTable builds the table named by the configured backend.
// The returned close func releases backend connections.
func OpenTable(ctx context.Context, b config.Backends, awsCfg aws.Config, name string) (Table, func() error, error) {
	switch b.Table {
	case config.TableBackendDynamo, "":
		return NewDynamoTable(awsCfg, name), func() error { return nil }, nil

	case config.TableBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     b.RedisAddr,
			Password: b.RedisPassword,
			DB:       b.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", b.RedisAddr, err)
		}
		return NewRedisTable(rdb, name), rdb.Close, nil

	case config.TableBackendPostgres:
		if b.PostgresDSN == "" {
			return nil, nil, &config.MissingError{Vars: []string{"POSTGRES_DSN"}}
		}
		db, err := gorm.Open(postgres.Open(b.PostgresDSN), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get postgres handle: %w", err)
		}
		t, err := NewPostgresTable(db, name)
		if err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		return t, sqlDB.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown table backend %q", b.Table)
}
