package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// MarketSnapshot 是某只股票的最新行情切片。
type MarketSnapshot struct {
	Symbol        string  `json:"symbol"`
	LTP           float64 `json:"ltp"`
	Bid           float64 `json:"bid"`
	Ask           float64 `json:"ask"`
	TimeToClose   int     `json:"time_to_close"`
	VolatilityPct float64 `json:"volatility_pct"`
	AvgTradeSize  int64   `json:"avg_trade_size"`
}

// MarketSnapshot 返回该 symbol 最新一条行情，不存在时返回 ErrNotFound。
func (s *Store) MarketSnapshot(ctx context.Context, symbol string) (MarketSnapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT symbol, ltp, bid, ask, time_to_close, volatility_pct, avg_trade_size
		 FROM market_data WHERE symbol = ? ORDER BY snapshot_id DESC LIMIT 1`,
		symbol,
	)

	var snap MarketSnapshot
	err := row.Scan(&snap.Symbol, &snap.LTP, &snap.Bid, &snap.Ask,
		&snap.TimeToClose, &snap.VolatilityPct, &snap.AvgTradeSize)
	if errors.Is(err, sql.ErrNoRows) {
		return MarketSnapshot{}, fmt.Errorf("行情 %s: %w", symbol, ErrNotFound)
	}
	if err != nil {
		return MarketSnapshot{}, fmt.Errorf("查询行情失败: %w", err)
	}

	return snap, nil
}

// InsertMarketSnapshot 写入一条行情快照。
func (s *Store) InsertMarketSnapshot(ctx context.Context, snap MarketSnapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO market_data (symbol, ltp, bid, ask, time_to_close, volatility_pct, avg_trade_size)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.Symbol, snap.LTP, snap.Bid, snap.Ask,
		snap.TimeToClose, snap.VolatilityPct, snap.AvgTradeSize,
	)
	if err != nil {
		return fmt.Errorf("写入行情失败: %w", err)
	}
	return nil
}

// UpdateTimeToClose 更新该 symbol 全部快照的剩余交易时间，返回 ErrNotFound 表示无此股票。
func (s *Store) UpdateTimeToClose(ctx context.Context, symbol string, minutes int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE market_data SET time_to_close = ? WHERE symbol = ?`,
		minutes, symbol,
	)
	if err != nil {
		return fmt.Errorf("更新剩余交易时间失败: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("读取更新结果失败: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("行情 %s: %w", symbol, ErrNotFound)
	}

	return nil
}
