// Package sqlite는 거래 원장 기록을 SQLite에 저장합니다
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/assist-by/hookbridge/internal/domain"
	"github.com/assist-by/hookbridge/internal/ledger"
)

var _ ledger.Sink = (*Store)(nil)

// Store는 SQLite 기반 원장 저장소입니다
type Store struct {
	db *sql.DB
}

// Open은 dsn의 데이터베이스를 열고 스키마를 생성합니다
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite 열기 실패: %w", err)
	}
	// 단일 연결로 쓰기 경합을 피합니다
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			symbol TEXT NOT NULL,
			action TEXT NOT NULL,
			source TEXT,
			quantity REAL NOT NULL,
			reference_price REAL NOT NULL DEFAULT 0,
			leverage INTEGER NOT NULL DEFAULT 0,
			margin_type TEXT,
			entry_order_id INTEGER NOT NULL DEFAULT 0,
			stop_order_id INTEGER,
			target_order_id INTEGER,
			stop_price REAL NOT NULL DEFAULT 0,
			target_price REAL NOT NULL DEFAULT 0,
			closed_opposite BOOLEAN NOT NULL DEFAULT 0,
			closed_json TEXT,
			warnings_json TEXT,
			status TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_trades_symbol_created ON trades(symbol, created_at);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("스키마 생성 실패 %s: %w", q, err)
		}
	}
	return nil
}

// Save는 기록을 저장합니다 (같은 ID는 덮어씀)
func (s *Store) Save(ctx context.Context, r domain.TradeRecord) error {
	closed, err := json.Marshal(r.Closed)
	if err != nil {
		return fmt.Errorf("청산 내역 직렬화 실패: %w", err)
	}
	warnings, err := json.Marshal(r.Warnings)
	if err != nil {
		return fmt.Errorf("경고 직렬화 실패: %w", err)
	}

	query := `INSERT OR REPLACE INTO trades (id, created_at, symbol, action, source, quantity, reference_price, leverage, margin_type,
			  entry_order_id, stop_order_id, target_order_id, stop_price, target_price, closed_opposite, closed_json, warnings_json, status)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.Timestamp.UTC(), r.Symbol, string(r.Action), r.Source, r.Quantity, r.ReferencePrice, r.Leverage, string(r.MarginType),
		r.EntryOrderID, nullableID(r.StopOrderID), nullableID(r.TargetOrderID), r.StopPrice, r.TargetPrice, r.ClosedOpposite,
		string(closed), string(warnings), string(r.Status))
	if err != nil {
		return fmt.Errorf("거래 기록 저장 실패: %w", err)
	}
	return nil
}

// List는 최신 기록부터 최대 limit개를 반환합니다 (symbol이 비어 있으면 전체)
func (s *Store) List(ctx context.Context, symbol string, limit int) ([]domain.TradeRecord, error) {
	if limit <= 0 {
		limit = ledger.DefaultCapacity
	}
	query := `SELECT id, created_at, symbol, action, source, quantity, reference_price, leverage, margin_type,
			  entry_order_id, stop_order_id, target_order_id, stop_price, target_price, closed_opposite, closed_json, warnings_json, status
			  FROM trades WHERE (? = '' OR symbol = ?) ORDER BY created_at DESC, rowid DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, symbol, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("거래 기록 조회 실패: %w", err)
	}
	defer rows.Close()

	var records []domain.TradeRecord
	for rows.Next() {
		var (
			r                    domain.TradeRecord
			createdAt            time.Time
			action, marginType   string
			source               sql.NullString
			status               string
			stopID, targetID     sql.NullInt64
			closedJSON, warnJSON sql.NullString
		)
		if err := rows.Scan(&r.ID, &createdAt, &r.Symbol, &action, &source, &r.Quantity, &r.ReferencePrice, &r.Leverage, &marginType,
			&r.EntryOrderID, &stopID, &targetID, &r.StopPrice, &r.TargetPrice, &r.ClosedOpposite, &closedJSON, &warnJSON, &status); err != nil {
			return nil, fmt.Errorf("거래 기록 읽기 실패: %w", err)
		}
		r.Timestamp = createdAt
		r.Action = domain.Action(action)
		r.Source = source.String
		r.MarginType = domain.MarginType(marginType)
		r.Status = domain.TradeStatus(status)
		if stopID.Valid {
			r.StopOrderID = &stopID.Int64
		}
		if targetID.Valid {
			r.TargetOrderID = &targetID.Int64
		}
		if closedJSON.Valid && closedJSON.String != "" && closedJSON.String != "null" {
			if err := json.Unmarshal([]byte(closedJSON.String), &r.Closed); err != nil {
				return nil, fmt.Errorf("청산 내역 파싱 실패: %w", err)
			}
		}
		if warnJSON.Valid && warnJSON.String != "" && warnJSON.String != "null" {
			if err := json.Unmarshal([]byte(warnJSON.String), &r.Warnings); err != nil {
				return nil, fmt.Errorf("경고 파싱 실패: %w", err)
			}
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close는 데이터베이스를 닫습니다
func (s *Store) Close() error {
	return s.db.Close()
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
