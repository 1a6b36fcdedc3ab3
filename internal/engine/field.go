package engine

// Confidence 表示单个参数推断结果的可信度。
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// Field 是带注释的参数值。Rationale 永远非空：
// 有值时解释取值依据，刻意为空时解释为何为空。
type Field[T any] struct {
	Value      *T         `json:"value"`
	Confidence Confidence `json:"confidence"`
	Rationale  string     `json:"rationale"`
}

// NewField 构造有值字段。
func NewField[T any](value T, confidence Confidence, rationale string) Field[T] {
	return Field[T]{
		Value:      &value,
		Confidence: confidence,
		Rationale:  rationale,
	}
}

// NullField 构造刻意为空的字段，rationale 说明原因。
func NullField[T any](confidence Confidence, rationale string) Field[T] {
	return Field[T]{
		Value:      nil,
		Confidence: confidence,
		Rationale:  rationale,
	}
}

// ValueOr 返回字段值，空值时返回 fallback。
func (f Field[T]) ValueOr(fallback T) T {
	if f.Value == nil {
		return fallback
	}
	return *f.Value
}
