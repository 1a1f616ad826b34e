package core

import (
	"context"
	"time"
)

// QueryEvent 是一次搜索请求的日志记录（追加写，引擎只读）。
type QueryEvent struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"` // 匿名请求为空
	Query       string    `json:"query"`
	ResultCount int       `json:"result_count"`
	LatencyMS   int64     `json:"latency_ms"`
	At          time.Time `json:"at"`
}

// ClickEvent 是搜索结果的点击记录，通过 QueryID 关联到 QueryEvent。
type ClickEvent struct {
	QueryID   string    `json:"query_id"`
	ProductID string    `json:"product_id"`
	Position  int       `json:"position"`
	At        time.Time `json:"at"`
}

// ConversionEvent 是搜索带来的成交记录，通过 QueryID 关联到 QueryEvent。
type ConversionEvent struct {
	QueryID string    `json:"query_id"`
	OrderID string    `json:"order_id"`
	Value   float64   `json:"value"`
	At      time.Time `json:"at"`
}

// EventProvider 是搜索/点击/成交事件日志的领域接口。
//
// 引擎按时间窗读取：画像取 90 天、热点话题取 7 天、
// 重训触发只需要一个自上次训练以来的计数。
type EventProvider interface {
	// QueriesSince 返回 since 之后的搜索事件
	QueriesSince(ctx context.Context, since time.Time) ([]QueryEvent, error)

	// ClicksSince 返回 since 之后的点击事件
	ClicksSince(ctx context.Context, since time.Time) ([]ClickEvent, error)

	// ConversionsSince 返回 since 之后的成交事件
	ConversionsSince(ctx context.Context, since time.Time) ([]ConversionEvent, error)

	// QueryCountSince 返回 since 之后的搜索事件数（重训谓词用，避免全量拉取）
	QueryCountSince(ctx context.Context, since time.Time) (int64, error)
}
