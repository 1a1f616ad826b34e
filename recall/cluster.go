package recall

import (
	"context"

	"github.com/rushteam/searchkit/core"
	"github.com/rushteam/searchkit/pipeline"
	"github.com/rushteam/searchkit/pkg/utils"
)

// Cluster 是同簇召回节点：返回目标商品所在语义簇的其他成员。
//
// 目标商品从 rctx.Params["product_id"] 读取。商品不在任何簇中
// （例如上次训练后才上架）时返回空列表，不报错。
type Cluster struct {
	// Bundles 提供当前存活的模型
	Bundles core.BundleProvider

	// TopK 返回数量上限；<= 0 时取 rctx.Limit
	TopK int
}

func (n *Cluster) Name() string        { return "recall.cluster" }
func (n *Cluster) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Cluster) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if n.Bundles == nil || rctx == nil {
		return nil, nil
	}
	productID, _ := rctx.Param("product_id")
	pid, ok := productID.(string)
	if !ok || pid == "" {
		return nil, nil
	}

	bundle := n.Bundles.Live()
	clusterID, ok := bundle.ClusterOf[pid]
	if !ok {
		return nil, nil
	}

	topK := n.TopK
	if topK <= 0 {
		topK = rctx.Limit
	}

	out := make([]*core.Item, 0, topK)
	for _, member := range bundle.Clusters[clusterID] {
		if member == pid {
			continue
		}
		it := core.NewItem(member)
		if e, ok := bundle.Entry(member); ok {
			it.Meta["category"] = e.Category
			it.Meta["brand"] = e.Brand
			it.Meta["price"] = e.EffectivePrice()
			it.Meta["stock"] = e.Stock
		}
		it.PutLabel("recall_source", utils.Label{Value: "cluster", Source: "recall"})
		out = append(out, it)
		if topK > 0 && len(out) >= topK {
			break
		}
	}
	return out, nil
}

var _ pipeline.Node = (*Cluster)(nil)
