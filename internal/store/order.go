package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// OrderRecord 是入库的订单及其预填上下文。
type OrderRecord struct {
	OrderID          int64           `json:"order_id"`
	Symbol           string          `json:"symbol"`
	CptyID           string          `json:"cpty_id"`
	Side             string          `json:"side"`
	Size             int64           `json:"size"`
	OrderNotes       string          `json:"order_notes"`
	ArrivalTime      time.Time       `json:"arrival_time"`
	PrefillResult    json.RawMessage `json:"prefill_result"`
	SubmittedParams  json.RawMessage `json:"submitted_params"`
	TraderOverrides  json.RawMessage `json:"trader_overrides"`
	SubmissionStatus string          `json:"submission_status"`
	SubmittedAt      time.Time       `json:"submitted_at"`
}

// InsertOrder 写入订单并返回自增的 order_id。
func (s *Store) InsertOrder(ctx context.Context, record OrderRecord) (int64, error) {
	if record.ArrivalTime.IsZero() {
		record.ArrivalTime = time.Now().UTC()
	}
	if record.SubmittedAt.IsZero() {
		record.SubmittedAt = time.Now().UTC()
	}
	if record.SubmissionStatus == "" {
		record.SubmissionStatus = "Submitted"
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO order_data
			(symbol, cpty_id, side, size, order_notes, arrival_time,
			 prefill_result, submitted_params, trader_overrides,
			 submission_status, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Symbol, record.CptyID, record.Side, record.Size, record.OrderNotes,
		record.ArrivalTime.Format(time.RFC3339),
		rawOrEmpty(record.PrefillResult), rawOrEmpty(record.SubmittedParams), rawOrEmpty(record.TraderOverrides),
		record.SubmissionStatus, record.SubmittedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("写入订单失败: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("读取订单ID失败: %w", err)
	}

	return id, nil
}

// Order 按 order_id 返回订单，不存在时返回 ErrNotFound。
func (s *Store) Order(ctx context.Context, orderID int64) (OrderRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT order_id, symbol, cpty_id, COALESCE(side, ''), size, order_notes,
			arrival_time, prefill_result, submitted_params, trader_overrides,
			submission_status, submitted_at
		 FROM order_data WHERE order_id = ?`,
		orderID,
	)

	var (
		record    OrderRecord
		arrival   string
		submitted string
		prefill   string
		params    string
		overrides string
	)
	err := row.Scan(&record.OrderID, &record.Symbol, &record.CptyID, &record.Side,
		&record.Size, &record.OrderNotes, &arrival, &prefill, &params, &overrides,
		&record.SubmissionStatus, &submitted)
	if errors.Is(err, sql.ErrNoRows) {
		return OrderRecord{}, fmt.Errorf("订单 %d: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return OrderRecord{}, fmt.Errorf("查询订单失败: %w", err)
	}

	record.PrefillResult = json.RawMessage(prefill)
	record.SubmittedParams = json.RawMessage(params)
	record.TraderOverrides = json.RawMessage(overrides)
	record.ArrivalTime = parseTimeOrNow(arrival)
	record.SubmittedAt = parseTimeOrNow(submitted)

	return record, nil
}

func rawOrEmpty(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}

func parseTimeOrNow(value string) time.Time {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Now().UTC()
	}
	return ts
}
