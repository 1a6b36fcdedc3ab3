package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"order-prefill/internal/audit"
	"order-prefill/internal/config"
	"order-prefill/internal/engine"
	"order-prefill/internal/store"
)

// server 持有 HTTP 层依赖。路由全部挂在 /api 之下。
type server struct {
	engine *engine.Engine
	store  *store.Store
	audit  *audit.Service
	logger *zap.Logger
}

func newRouter(cfg config.ServerConfig, eng *engine.Engine, st *store.Store, auditSvc *audit.Service, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &server{
		engine: eng,
		store:  st,
		audit:  auditSvc,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/clients", s.handleListClients)
	mux.HandleFunc("GET /api/market/{symbol}", s.handleMarket)
	mux.HandleFunc("PUT /api/market/{symbol}/ttc", s.handleUpdateTTC)
	mux.HandleFunc("POST /api/prefill", s.handlePrefill)
	mux.HandleFunc("POST /api/orders/submit", s.handleSubmitOrder)
	mux.HandleFunc("GET /api/orders/{id}", s.handleOrder)
	mux.HandleFunc("GET /api/events", s.handleListEvents)

	var handler http.Handler = mux
	if cfg.EnableCORS {
		handler = corsMiddleware(handler)
	}
	return handler
}

// prefillRequest 是 POST /api/prefill 的请求体。
type prefillRequest struct {
	Symbol      string `json:"symbol"`
	CptyID      string `json:"cpty_id"`
	Size        int64  `json:"size"`
	OrderNotes  string `json:"order_notes"`
	Side        string `json:"side,omitempty"`
	TimeToClose *int   `json:"time_to_close,omitempty"`
}

// submitRequest 是 POST /api/orders/submit 的请求体。
type submitRequest struct {
	Symbol          string          `json:"symbol"`
	CptyID          string          `json:"cpty_id"`
	Side            string          `json:"side"`
	Size            int64           `json:"size"`
	OrderNotes      string          `json:"order_notes"`
	PrefilledParams json.RawMessage `json:"prefilled_params"`
	TraderOverrides json.RawMessage `json:"trader_overrides"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	database := "ok"
	if err := s.store.DB().PingContext(r.Context()); err != nil {
		status = "degraded"
		database = err.Error()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         status,
		"database":       database,
		"engine_version": engine.Version,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.store.ListClients(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"clients": clients})
}

func (s *server) handleMarket(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	snap, err := s.store.MarketSnapshot(r.Context(), symbol)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *server) handleUpdateTTC(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	ttc, err := strconv.Atoi(r.URL.Query().Get("ttc"))
	if err != nil || ttc < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("ttc 必须为非负整数"))
		return
	}

	if err := s.store.UpdateTimeToClose(r.Context(), symbol, ttc); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":        symbol,
		"time_to_close": ttc,
		"updated":       true,
	})
}

func (s *server) handlePrefill(w http.ResponseWriter, r *http.Request) {
	var req prefillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("请求体不是合法 JSON"))
		return
	}

	result, err := s.engine.ComputePrefill(r.Context(), engine.Request{
		Symbol:              req.Symbol,
		CptyID:              req.CptyID,
		Size:                req.Size,
		Notes:               req.OrderNotes,
		Side:                req.Side,
		TimeToCloseOverride: req.TimeToClose,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.audit.RecordPrefill(r.Context(), audit.PrefillPayload{
		Symbol: req.Symbol,
		CptyID: req.CptyID,
		Size:   req.Size,
		Notes:  req.OrderNotes,
		Result: result,
	})

	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("请求体不是合法 JSON"))
		return
	}
	if strings.TrimSpace(req.Symbol) == "" || strings.TrimSpace(req.CptyID) == "" || req.Size <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("symbol、cpty_id 与正数 size 为必填"))
		return
	}

	now := time.Now().UTC()
	orderID, err := s.store.InsertOrder(r.Context(), store.OrderRecord{
		Symbol:          req.Symbol,
		CptyID:          req.CptyID,
		Side:            req.Side,
		Size:            req.Size,
		OrderNotes:      req.OrderNotes,
		ArrivalTime:     now,
		PrefillResult:   req.PrefilledParams,
		SubmittedParams: req.PrefilledParams,
		TraderOverrides: req.TraderOverrides,
		SubmittedAt:     now,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.audit.RecordOrderSubmit(r.Context(), audit.OrderSubmitPayload{
		OrderID: orderID,
		Symbol:  req.Symbol,
		CptyID:  req.CptyID,
		Side:    req.Side,
		Size:    req.Size,
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"order_id":          orderID,
		"status":            "submitted",
		"submission_time":   now.Format(time.RFC3339),
		"validation_status": "PASSED",
	})
}

func (s *server) handleOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("订单ID必须为整数"))
		return
	}

	record, err := s.store.Order(r.Context(), orderID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("limit 必须为正整数"))
			return
		}
		if parsed > 1000 {
			parsed = 1000
		}
		limit = parsed
	}

	events, err := s.audit.ListEvents(r.Context(), audit.EventType(r.URL.Query().Get("type")), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// writeError 把领域错误映射为 HTTP 状态码，其余按 500 处理并留审计记录。
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, engine.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		s.logger.Error("请求处理失败",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		s.audit.RecordError(r.Context(), "请求处理失败", err, map[string]interface{}{
			"path":   r.URL.Path,
			"method": r.Method,
		})
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func errorBody(detail string) map[string]string {
	return map[string]string{"detail": detail}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
