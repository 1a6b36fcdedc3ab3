package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"order-prefill/internal/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	// 内存库限制单连接，避免每个连接各自一份空库。
	s, err := NewSQLite(config.DatabaseConfig{
		InMemory:     true,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("NewSQLite returned error: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := s.Close(); closeErr != nil {
			t.Errorf("Close returned error: %v", closeErr)
		}
	})
	return s
}

func TestMarketSnapshot_LatestWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := MarketSnapshot{Symbol: "RELIANCE.NS", LTP: 2840.0, Bid: 2839.5, Ask: 2840.5,
		TimeToClose: 180, VolatilityPct: 1.8, AvgTradeSize: 7500}
	second := first
	second.LTP = 2845.5
	second.TimeToClose = 120

	if err := s.InsertMarketSnapshot(ctx, first); err != nil {
		t.Fatalf("InsertMarketSnapshot returned error: %v", err)
	}
	if err := s.InsertMarketSnapshot(ctx, second); err != nil {
		t.Fatalf("InsertMarketSnapshot returned error: %v", err)
	}

	got, err := s.MarketSnapshot(ctx, "RELIANCE.NS")
	if err != nil {
		t.Fatalf("MarketSnapshot returned error: %v", err)
	}
	if got.LTP != 2845.5 || got.TimeToClose != 120 {
		t.Errorf("snapshot = %+v, want latest insert", got)
	}
}

func TestMarketSnapshot_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.MarketSnapshot(context.Background(), "MISSING.NS")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateTimeToClose(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	snap := MarketSnapshot{Symbol: "INFY.NS", LTP: 1520.3, Bid: 1520.0, Ask: 1520.6,
		TimeToClose: 120, VolatilityPct: 2.1, AvgTradeSize: 9000}
	if err := s.InsertMarketSnapshot(ctx, snap); err != nil {
		t.Fatalf("InsertMarketSnapshot returned error: %v", err)
	}

	if err := s.UpdateTimeToClose(ctx, "INFY.NS", 20); err != nil {
		t.Fatalf("UpdateTimeToClose returned error: %v", err)
	}

	got, err := s.MarketSnapshot(ctx, "INFY.NS")
	if err != nil {
		t.Fatalf("MarketSnapshot returned error: %v", err)
	}
	if got.TimeToClose != 20 {
		t.Errorf("time_to_close = %d, want 20", got.TimeToClose)
	}

	if err := s.UpdateTimeToClose(ctx, "MISSING.NS", 20); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestClientProfile_UpsertAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	profile := ClientProfile{CptyID: "CP001", ClientName: "Alpha Capital",
		UrgencyFactor: 0.85, PriceSensitivity: "LOW", ExecutionModel: "Principal"}
	if err := s.UpsertClient(ctx, profile); err != nil {
		t.Fatalf("UpsertClient returned error: %v", err)
	}

	profile.UrgencyFactor = 0.6
	if err := s.UpsertClient(ctx, profile); err != nil {
		t.Fatalf("UpsertClient (update) returned error: %v", err)
	}

	got, err := s.ClientProfile(ctx, "CP001")
	if err != nil {
		t.Fatalf("ClientProfile returned error: %v", err)
	}
	if got.UrgencyFactor != 0.6 {
		t.Errorf("urgency_factor = %v, want updated 0.6", got.UrgencyFactor)
	}

	if err := s.UpsertClient(ctx, ClientProfile{CptyID: "CP002", ClientName: "Beta",
		UrgencyFactor: 0.45, PriceSensitivity: "HIGH", ExecutionModel: "Agency"}); err != nil {
		t.Fatalf("UpsertClient returned error: %v", err)
	}

	list, err := s.ListClients(ctx)
	if err != nil {
		t.Fatalf("ListClients returned error: %v", err)
	}
	if len(list) != 2 || list[0].CptyID != "CP001" || list[1].CptyID != "CP002" {
		t.Errorf("list = %+v, want CP001,CP002 in order", list)
	}

	if _, err := s.ClientProfile(ctx, "CP999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestOrderRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.InsertOrder(ctx, OrderRecord{
		Symbol:        "RELIANCE.NS",
		CptyID:        "CP001",
		Side:          "Sell",
		Size:          50000,
		OrderNotes:    "urgent sell - eod compliance",
		PrefillResult: json.RawMessage(`{"urgency_score":87}`),
	})
	if err != nil {
		t.Fatalf("InsertOrder returned error: %v", err)
	}
	if id <= 0 {
		t.Fatalf("order id = %d, want positive", id)
	}

	got, err := s.Order(ctx, id)
	if err != nil {
		t.Fatalf("Order returned error: %v", err)
	}
	if got.Symbol != "RELIANCE.NS" || got.Side != "Sell" || got.Size != 50000 {
		t.Errorf("order = %+v", got)
	}
	if got.SubmissionStatus != "Submitted" {
		t.Errorf("status = %q, want default Submitted", got.SubmissionStatus)
	}
	if string(got.SubmittedParams) != "{}" || string(got.TraderOverrides) != "{}" {
		t.Errorf("empty payloads should default to {}, got %s / %s", got.SubmittedParams, got.TraderOverrides)
	}
	if string(got.PrefillResult) != `{"urgency_score":87}` {
		t.Errorf("prefill_result = %s", got.PrefillResult)
	}

	if _, err := s.Order(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSeedDemoData_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SeedDemoData(ctx); err != nil {
		t.Fatalf("SeedDemoData returned error: %v", err)
	}
	if err := s.SeedDemoData(ctx); err != nil {
		t.Fatalf("SeedDemoData (second run) returned error: %v", err)
	}

	var marketCount int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM market_data`).Scan(&marketCount); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if marketCount != len(demoMarketData) {
		t.Errorf("market rows = %d, want %d", marketCount, len(demoMarketData))
	}

	clients, err := s.ListClients(ctx)
	if err != nil {
		t.Fatalf("ListClients returned error: %v", err)
	}
	if len(clients) != len(demoClients) {
		t.Errorf("clients = %d, want %d", len(clients), len(demoClients))
	}
}
