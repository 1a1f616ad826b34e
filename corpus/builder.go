// Package corpus 将商品目录快照变换为训练语料。
//
// 核心思想：
//   - 每个商品拼接为一篇文档：名称、描述、标签、类目、品牌、近期评论
//   - 追加派生信号词（质量/价位/库存），让向量空间"看见"结构化字段
//   - 纯函数：相同输入产生逐字节相同的输出，训练可复现、可测试
package corpus

import (
	"fmt"
	"strings"

	"github.com/rushteam/searchkit/core"
)

// Document 是一个商品对应的语料文档。
type Document struct {
	ProductID string
	Text      string
}

// Builder 持有文档派生词的阈值参数。
type Builder struct {
	// PriceLow / PriceHigh 价位分档阈值（作用于实际售价）
	PriceLow  float64
	PriceHigh float64

	// HighStock 高库存阈值
	HighStock int

	// MaxReviews 每篇文档最多拼接的评论数
	MaxReviews int
}

// NewBuilder 按引擎配置创建 Builder。
func NewBuilder(cfg core.EngineConfig) *Builder {
	return &Builder{
		PriceLow:   cfg.PriceLowThreshold,
		PriceHigh:  cfg.PriceHighThreshold,
		HighStock:  cfg.HighStockThreshold,
		MaxReviews: cfg.MaxReviewsPerDoc,
	}
}

// Build 将目录快照变换为有序语料，顺序与输入一致。
func (b *Builder) Build(entries []core.CatalogEntry) []Document {
	docs := make([]Document, 0, len(entries))
	for i := range entries {
		docs = append(docs, Document{
			ProductID: entries[i].ID,
			Text:      b.Document(&entries[i]),
		})
	}
	return docs
}

// Document 构建单个商品的文档文本（小写）。
func (b *Builder) Document(e *core.CatalogEntry) string {
	parts := make([]string, 0, 8)
	parts = append(parts, e.Name, e.Description)
	if len(e.Tags) > 0 {
		parts = append(parts, strings.Join(e.Tags, " "))
	}
	parts = append(parts, e.Category, e.Brand)

	// 近期评论：输入约定按时间倒序，取前 MaxReviews 条
	reviews := e.Reviews
	if b.MaxReviews > 0 && len(reviews) > b.MaxReviews {
		reviews = reviews[:b.MaxReviews]
	}
	for _, r := range reviews {
		if r.Comment != "" {
			parts = append(parts, r.Comment)
		}
	}

	// 派生信号词
	if tok := qualityToken(e.AvgRating(), len(e.Reviews)); tok != "" {
		parts = append(parts, tok)
	}
	if tok := priceToken(e.EffectivePrice(), b.PriceLow, b.PriceHigh); tok != "" {
		parts = append(parts, tok)
	}
	if tok := stockToken(e.Stock, b.HighStock); tok != "" {
		parts = append(parts, tok)
	}

	return strings.ToLower(strings.Join(compact(parts), " "))
}

// qualityToken 将平均评分映射为质量信号词；无评论不打词。
func qualityToken(avgRating float64, reviewCount int) string {
	if reviewCount == 0 {
		return ""
	}
	switch {
	case avgRating >= 4.5:
		return "excellent quality highly rated"
	case avgRating >= 4.0:
		return "good quality well rated"
	default:
		return ""
	}
}

// priceToken 将实际售价映射为价位信号词。
func priceToken(price, low, high float64) string {
	switch {
	case price < low:
		return "budget affordable cheap"
	case price > high:
		return "premium luxury expensive"
	default:
		return ""
	}
}

// stockToken 将库存水平映射为供货信号词。
func stockToken(stock, high int) string {
	switch {
	case stock == 0:
		return "out of stock unavailable"
	case stock > high:
		return "in stock available"
	default:
		return ""
	}
}

// compact 去掉空串，保持顺序。
func compact(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// String 便于日志/调试输出。
func (d Document) String() string {
	return fmt.Sprintf("%s: %s", d.ProductID, d.Text)
}
