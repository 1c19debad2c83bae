package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/magic-lib/go-plat-utils/conv"
	"github.com/magic-lib/go-plat-utils/goroutines"
	"github.com/magic-lib/go-plat-utils/logs"
	cmap "github.com/orcaman/concurrent-map/v2"
)

var (
	onlyOneCleanMap = cmap.New[*sync.Once]()

	checkInterval        = 5 * time.Minute
	defaultMaxExpireTime = 24 * time.Hour
)

type MySQLCacheConfig struct {
	DSN        string
	SqlDB      *sql.DB
	TableName  string        `json:"table_name" yaml:"table_name"`
	Namespace  string        `json:"namespace" yaml:"namespace"`
	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl"`
}

// mySQLCache 基于MySQL实现的缓存，值以JSON保存
type mySQLCache[V any] struct {
	db         *sql.DB
	tableName  string
	namespace  string
	defaultTTL time.Duration
}

// NewMySQLCache 创建MySQL缓存实例，表不存在时自动创建
func NewMySQLCache[V any](cfg *MySQLCacheConfig) (CommCache[V], error) {
	if cfg == nil {
		return nil, errors.New("mysql cache config is nil")
	}
	if cfg.SqlDB == nil && cfg.DSN != "" {
		sqlDB, err := sql.Open("mysql", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		cfg.SqlDB = sqlDB
	}
	if cfg.SqlDB == nil || cfg.TableName == "" {
		return nil, errors.New("mysql cache needs a db and a table name")
	}

	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			namespace VARCHAR(50) NOT NULL,
			cache_key VARCHAR(255) NOT NULL,
			cache_value JSON NOT NULL,
			expire_time DATETIME(3) DEFAULT NULL,
			create_time DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			update_time DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (namespace,cache_key) USING BTREE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_0900_bin;
	`, cfg.TableName)
	if _, err := cfg.SqlDB.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("create cache table %s: %w", cfg.TableName, err)
	}

	defaultTTL := cfg.DefaultTTL
	if defaultTTL == 0 {
		defaultTTL = defaultMaxExpireTime
	}
	mysqlCache := &mySQLCache[V]{
		db:         cfg.SqlDB,
		tableName:  cfg.TableName,
		namespace:  cfg.Namespace,
		defaultTTL: defaultTTL,
	}

	// 每个表只需要一个清理任务
	onlyKey := fmt.Sprintf("%s/%s", cfg.DSN, cfg.TableName)
	onlyOneCleanMap.SetIfAbsent(onlyKey, new(sync.Once))
	if cleanOnce, ok := onlyOneCleanMap.Get(onlyKey); ok {
		cleanOnce.Do(func() {
			goroutines.GoAsync(func(params ...any) {
				mysqlCache.runCleanupJob(checkInterval)
			}, nil)
		})
	}
	return mysqlCache, nil
}

// Get 查询时过滤掉已过期的键
func (c *mySQLCache[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	var valueStr string
	querySQL := fmt.Sprintf(`SELECT cache_value FROM %s WHERE namespace = ? AND cache_key = ? AND (expire_time IS NULL OR expire_time > ?) LIMIT 1`, c.tableName)
	err := c.db.QueryRowContext(getContext(ctx), querySQL, c.namespace, key, time.Now()).Scan(&valueStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("mysql cache get %s: %w", key, err)
	}
	return strToVal[V](valueStr)
}

// Set UPSERT，NoExpiration 时 expire_time 为 NULL
func (c *mySQLCache[V]) Set(ctx context.Context, key string, val V, timeout time.Duration) (bool, error) {
	var expire any
	if at := expireAt(time.Now(), timeout, c.defaultTTL); !at.IsZero() {
		expire = at
	}

	insertSQL := fmt.Sprintf(`INSERT INTO %s (namespace, cache_key, cache_value, expire_time) VALUES (?, ?, ?, ?) ON DUPLICATE KEY UPDATE cache_value = VALUES(cache_value), expire_time = VALUES(expire_time), update_time = CURRENT_TIMESTAMP`, c.tableName)
	result, err := c.db.ExecContext(getContext(ctx), insertSQL, c.namespace, key, conv.String(val), expire)
	if err != nil {
		return false, fmt.Errorf("mysql cache set %s: %w", key, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// Del 返回是否实际删除了数据
func (c *mySQLCache[V]) Del(ctx context.Context, key string) (bool, error) {
	deleteSQL := fmt.Sprintf("DELETE FROM %s WHERE namespace = ? AND cache_key = ?", c.tableName)
	result, err := c.db.ExecContext(getContext(ctx), deleteSQL, c.namespace, key)
	if err != nil {
		return false, fmt.Errorf("mysql cache del %s: %w", key, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// runCleanupJob 定时清理过期键
func (c *mySQLCache[V]) runCleanupJob(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	cleanSQL := fmt.Sprintf("DELETE FROM %s WHERE expire_time IS NOT NULL AND expire_time < ?", c.tableName)
	for range ticker.C {
		if _, err := c.db.Exec(cleanSQL, time.Now()); err != nil {
			logs.DefaultLogger().Error("[mysql-cache] cleanup failed:", c.tableName, err.Error())
		}
	}
}
