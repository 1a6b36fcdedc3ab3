package audit

import "time"

// EventType 标识审计事件类别。
type EventType string

const (
	EventPrefill     EventType = "prefill"
	EventOrderSubmit EventType = "order_submit"
	EventError       EventType = "error"
)

// Event 是一条审计记录。
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// PrefillPayload 记录一次预填计算的输入与结果。
type PrefillPayload struct {
	Symbol string      `json:"symbol"`
	CptyID string      `json:"cpty_id"`
	Size   int64       `json:"size"`
	Notes  string      `json:"notes"`
	Result interface{} `json:"result"`
}

// OrderSubmitPayload 记录订单入库。
type OrderSubmitPayload struct {
	OrderID int64  `json:"order_id"`
	Symbol  string `json:"symbol"`
	CptyID  string `json:"cpty_id"`
	Side    string `json:"side"`
	Size    int64  `json:"size"`
}

// ErrorPayload 记录一次失败。
type ErrorPayload struct {
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}
