package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fundlens/internal/provider"
	"fundlens/internal/timeseries"
)

// ErrNotCached 表示缓存中没有对应基金的序列。
var ErrNotCached = errors.New("series not cached")

const seriesDateLayout = "2006-01-02"

// Repository 持久化净值序列与分析快照。
// 序列缓存在数据源不可用时作为降级来源；快照是分析结果的只追加日志。
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRepository 初始化存储仓库，创建所需表结构。
func NewRepository(store *Store, logger *zap.Logger) (*Repository, error) {
	if store == nil {
		return nil, fmt.Errorf("store: 数据库实例不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Repository{
		db:     store.DB(),
		logger: logger,
	}

	if err := r.initSchema(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Repository) initSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS schemes (
			scheme_code TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS nav_series (
			scheme_code TEXT NOT NULL,
			date TEXT NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (scheme_code, date)
		);`,
		`CREATE TABLE IF NOT EXISTS analysis_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scheme_code TEXT NOT NULL,
			benchmark TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_scheme ON analysis_snapshots(scheme_code);`,
	}

	for _, stmt := range schema {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("store: 初始化表结构失败: %w", err)
		}
	}

	return nil
}

// SaveFund 覆盖写入单只基金的名称与净值序列。
func (r *Repository) SaveFund(ctx context.Context, fund provider.FundSeries) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: 开启事务失败: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO schemes (scheme_code, name, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(scheme_code) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
		fund.SchemeCode, fund.Name, now,
	); err != nil {
		return fmt.Errorf("store: 写入基金名称失败: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM nav_series WHERE scheme_code = ?`, fund.SchemeCode); err != nil {
		return fmt.Errorf("store: 清理旧序列失败: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO nav_series (scheme_code, date, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: 预编译写入语句失败: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range fund.Series.Values {
		if _, err = stmt.ExecContext(ctx,
			fund.SchemeCode,
			fund.Series.Dates[i].Format(seriesDateLayout),
			fund.Series.Values[i],
		); err != nil {
			return fmt.Errorf("store: 写入净值行失败: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("store: 提交事务失败: %w", err)
	}
	return nil
}

// LoadFund 读取缓存的基金序列，没有缓存时返回 ErrNotCached。
func (r *Repository) LoadFund(ctx context.Context, schemeCode string) (provider.FundSeries, error) {
	var name string
	err := r.db.QueryRowContext(ctx,
		`SELECT name FROM schemes WHERE scheme_code = ?`, schemeCode,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return provider.FundSeries{}, fmt.Errorf("%w: %s", ErrNotCached, schemeCode)
	}
	if err != nil {
		return provider.FundSeries{}, fmt.Errorf("store: 读取基金名称失败: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT date, value FROM nav_series WHERE scheme_code = ? ORDER BY date ASC`, schemeCode,
	)
	if err != nil {
		return provider.FundSeries{}, fmt.Errorf("store: 读取净值序列失败: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var points []timeseries.Point
	for rows.Next() {
		var dateStr string
		var value float64
		if err := rows.Scan(&dateStr, &value); err != nil {
			return provider.FundSeries{}, fmt.Errorf("store: 扫描净值行失败: %w", err)
		}
		date, parseErr := time.Parse(seriesDateLayout, dateStr)
		if parseErr != nil {
			continue
		}
		points = append(points, timeseries.Point{Date: date, Value: value})
	}
	if err := rows.Err(); err != nil {
		return provider.FundSeries{}, fmt.Errorf("store: 遍历净值序列失败: %w", err)
	}
	if len(points) == 0 {
		return provider.FundSeries{}, fmt.Errorf("%w: %s", ErrNotCached, schemeCode)
	}

	series, err := timeseries.New(points)
	if err != nil {
		return provider.FundSeries{}, fmt.Errorf("store: 缓存序列非法: %w", err)
	}

	return provider.FundSeries{
		SchemeCode: schemeCode,
		Name:       name,
		Series:     series,
	}, nil
}

// Snapshot 是一条持久化的分析结果。
type Snapshot struct {
	ID         int64           `json:"id"`
	SchemeCode string          `json:"scheme_code"`
	Benchmark  string          `json:"benchmark"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
}

// SaveSnapshot 追加一条分析快照。
func (r *Repository) SaveSnapshot(ctx context.Context, schemeCode, benchmark string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("store: 序列化快照失败: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO analysis_snapshots (scheme_code, benchmark, payload, created_at) VALUES (?, ?, ?, ?)`,
		schemeCode, benchmark, string(body), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("store: 写入快照失败: %w", err)
	}
	return nil
}

// ListSnapshots 按时间倒序返回某只基金的历史快照，schemeCode 为空时返回全部。
func (r *Repository) ListSnapshots(ctx context.Context, schemeCode string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, scheme_code, benchmark, payload, created_at FROM analysis_snapshots`
	args := []interface{}{}
	if schemeCode != "" {
		query += ` WHERE scheme_code = ?`
		args = append(args, schemeCode)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: 查询快照失败: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshots []Snapshot
	for rows.Next() {
		var (
			snap      Snapshot
			payload   string
			createdAt string
		)
		if err := rows.Scan(&snap.ID, &snap.SchemeCode, &snap.Benchmark, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("store: 扫描快照失败: %w", err)
		}
		snap.Payload = json.RawMessage(payload)
		if ts, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
			snap.CreatedAt = ts
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: 遍历快照失败: %w", err)
	}

	return snapshots, nil
}
