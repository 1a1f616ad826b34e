package core

import "context"

// Review 是商品的一条评论（只取引擎需要的字段：文本与评分）。
type Review struct {
	Comment string  `json:"comment"`
	Rating  float64 `json:"rating"`
}

// CatalogEntry 是商品目录的一条只读快照。
//
// 每个训练周期从 CatalogProvider 重新拉取，周期内不可变：
// 语料构建、聚类、个性化加权都基于同一份快照，保证可复现。
type CatalogEntry struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
	Brand       string   `json:"brand"`
	Price       float64  `json:"price"`
	SalePrice   float64  `json:"sale_price"` // 0 表示无促销价
	Stock       int      `json:"stock"`
	Reviews     []Review `json:"reviews"` // 按时间倒序的最近评论
}

// EffectivePrice 返回实际售价：有促销价时取促销价，否则取原价。
func (e *CatalogEntry) EffectivePrice() float64 {
	if e.SalePrice > 0 && e.SalePrice < e.Price {
		return e.SalePrice
	}
	return e.Price
}

// AvgRating 返回评论的平均评分；无评论时返回 0。
func (e *CatalogEntry) AvgRating() float64 {
	if len(e.Reviews) == 0 {
		return 0
	}
	var sum float64
	for _, r := range e.Reviews {
		sum += r.Rating
	}
	return sum / float64(len(e.Reviews))
}

// CatalogProvider 是商品目录的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由调用方的存储层实现
//   - 引擎只读目录，不承担商品数据的写入与一致性
type CatalogProvider interface {
	// ActiveEntries 返回全部在售商品的快照（训练用）
	ActiveEntries(ctx context.Context) ([]CatalogEntry, error)

	// Entries 按 ID 批量返回商品（画像解析用）；缺失的 ID 直接跳过
	Entries(ctx context.Context, ids []string) ([]CatalogEntry, error)
}
