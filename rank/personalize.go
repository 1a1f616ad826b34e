// Package rank 提供查询路径的打分与排序节点。
package rank

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rushteam/searchkit/core"
	"github.com/rushteam/searchkit/pipeline"
	"github.com/rushteam/searchkit/pkg/utils"
)

// Personalize 是个性化加权节点：在基础相似度分上叠加画像驱动的加分。
//
// 加分规则（全部可叠加）：
//   - 商品类目在用户偏好类目内：+CategoryBoost
//   - 商品品牌在用户偏好品牌内：+BrandBoost
//   - 商品实际售价在用户均价 ±PriceTolerance 内（仅当均价非零）：+PriceBoost
//   - 用户点击过该商品：+ClickedBoost
//
// 最终分 = 基础分 + 各项加分之和。加分是纯加性的，不做归一化或
// 截断：同加分的两个候选之间，基础分的先后顺序永远保持。
// 无画像（匿名/未知用户）时原样透传。
type Personalize struct {
	// Bundles 提供当前存活的模型（取商品快照）
	Bundles core.BundleProvider

	// 各项加分；零值取默认
	CategoryBoost float64
	BrandBoost    float64
	PriceBoost    float64
	ClickedBoost  float64

	// PriceTolerance 价位匹配的相对容差（默认 0.30）
	PriceTolerance float64
}

func (n *Personalize) Name() string        { return "rank.personalize" }
func (n *Personalize) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *Personalize) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	profile := (*core.UserProfile)(nil)
	if rctx != nil {
		profile = rctx.Profile
	}
	bundle := (*core.ModelBundle)(nil)
	if n.Bundles != nil {
		bundle = n.Bundles.Live()
	}

	if profile != nil && !profile.IsEmpty() && bundle != nil {
		for _, it := range items {
			boost, reasons := n.boost(profile, bundle, it.ID)
			if boost > 0 {
				it.Score += boost
				it.PutLabel("boost", utils.Label{
					Value:  fmt.Sprintf("%s:%.2f", strings.Join(reasons, "+"), boost),
					Source: "rank",
				})
			}
		}
	}

	// 按最终分降序；同分按 ID 升序，保证输出确定
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

// Boost 计算单个商品的个性化加分（测试与外部复用入口）。
func (n *Personalize) Boost(profile *core.UserProfile, entry core.CatalogEntry) float64 {
	boost, _ := n.boostEntry(profile, entry)
	return boost
}

func (n *Personalize) boost(profile *core.UserProfile, bundle *core.ModelBundle, productID string) (float64, []string) {
	entry, ok := bundle.Entry(productID)
	if !ok {
		if profile.HasClicked(productID) {
			return n.clickedBoost(), []string{"clicked"}
		}
		return 0, nil
	}
	return n.boostEntry(profile, entry)
}

func (n *Personalize) boostEntry(profile *core.UserProfile, entry core.CatalogEntry) (float64, []string) {
	var boost float64
	var reasons []string

	if profile.PrefersCategory(entry.Category) {
		boost += defaultBoost(n.CategoryBoost, 0.20)
		reasons = append(reasons, "category")
	}
	if profile.PrefersBrand(entry.Brand) {
		boost += defaultBoost(n.BrandBoost, 0.15)
		reasons = append(reasons, "brand")
	}
	if profile.AvgPrice > 0 {
		tolerance := n.PriceTolerance
		if tolerance <= 0 {
			tolerance = 0.30
		}
		if math.Abs(entry.EffectivePrice()-profile.AvgPrice) <= tolerance*profile.AvgPrice {
			boost += defaultBoost(n.PriceBoost, 0.10)
			reasons = append(reasons, "price")
		}
	}
	if profile.HasClicked(entry.ID) {
		boost += n.clickedBoost()
		reasons = append(reasons, "clicked")
	}
	return boost, reasons
}

func (n *Personalize) clickedBoost() float64 {
	return defaultBoost(n.ClickedBoost, 0.05)
}

func defaultBoost(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

var _ pipeline.Node = (*Personalize)(nil)
