package store

import (
	"context"
	"fmt"
)

// SeedDemoData 在行情与客户表为空时填入演示数据，已存在数据则不做任何事。
func (s *Store) SeedDemoData(ctx context.Context) error {
	var marketCount int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM market_data`).Scan(&marketCount); err != nil {
		return fmt.Errorf("检查行情表失败: %w", err)
	}

	if marketCount == 0 {
		for _, snap := range demoMarketData {
			if err := s.InsertMarketSnapshot(ctx, snap); err != nil {
				return err
			}
		}
	}

	var clientCount int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM client_profiles`).Scan(&clientCount); err != nil {
		return fmt.Errorf("检查客户表失败: %w", err)
	}

	if clientCount == 0 {
		for _, profile := range demoClients {
			if err := s.UpsertClient(ctx, profile); err != nil {
				return err
			}
		}
	}

	return nil
}

var demoMarketData = []MarketSnapshot{
	{Symbol: "RELIANCE.NS", LTP: 2845.5, Bid: 2845.0, Ask: 2846.0, TimeToClose: 120, VolatilityPct: 1.8, AvgTradeSize: 7500},
	{Symbol: "INFY.NS", LTP: 1520.3, Bid: 1520.0, Ask: 1520.6, TimeToClose: 120, VolatilityPct: 2.1, AvgTradeSize: 9000},
	{Symbol: "TCS.NS", LTP: 3890.2, Bid: 3889.8, Ask: 3890.6, TimeToClose: 120, VolatilityPct: 1.5, AvgTradeSize: 5200},
	{Symbol: "HDFCBANK.NS", LTP: 1680.7, Bid: 1680.4, Ask: 1681.0, TimeToClose: 120, VolatilityPct: 2.7, AvgTradeSize: 12000},
	{Symbol: "ICICIBANK.NS", LTP: 1125.4, Bid: 1125.1, Ask: 1125.7, TimeToClose: 120, VolatilityPct: 2.3, AvgTradeSize: 11000},
	{Symbol: "SBIN.NS", LTP: 815.6, Bid: 815.3, Ask: 815.9, TimeToClose: 120, VolatilityPct: 3.1, AvgTradeSize: 15000},
	{Symbol: "BHARTIARTL.NS", LTP: 1545.8, Bid: 1545.5, Ask: 1546.1, TimeToClose: 120, VolatilityPct: 1.9, AvgTradeSize: 8500},
	{Symbol: "ITC.NS", LTP: 465.2, Bid: 465.0, Ask: 465.4, TimeToClose: 120, VolatilityPct: 1.2, AvgTradeSize: 20000},
}

var demoClients = []ClientProfile{
	{CptyID: "CP001", ClientName: "Alpha Capital", UrgencyFactor: 0.85, PriceSensitivity: "LOW", ExecutionModel: "Principal"},
	{CptyID: "CP002", ClientName: "Beta Asset Management", UrgencyFactor: 0.45, PriceSensitivity: "HIGH", ExecutionModel: "Agency"},
	{CptyID: "CP003", ClientName: "Gamma Pension Fund", UrgencyFactor: 0.25, PriceSensitivity: "HIGH", ExecutionModel: "Agency"},
	{CptyID: "CP004", ClientName: "Delta Hedge Fund", UrgencyFactor: 0.70, PriceSensitivity: "MEDIUM", ExecutionModel: "Principal"},
	{CptyID: "CP005", ClientName: "Epsilon Insurance", UrgencyFactor: 0.35, PriceSensitivity: "HIGH", ExecutionModel: "Agency"},
}
