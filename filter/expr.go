package filter

import (
	"context"

	"github.com/rushteam/searchkit/core"
	"github.com/rushteam/searchkit/pkg/dsl"
)

// ExprFilter 是 CEL 表达式驱动的规则过滤器。
//
// 表达式对单个候选求值，true 表示剔除。典型规则：
//   - `item.stock == 0`                  剔除无货商品
//   - `item.score < 0.15 && rctx.user_id == ""` 匿名请求收紧阈值
//   - `label.recall_source == "cluster"` 按召回来源剔除
type ExprFilter struct {
	// Rule CEL 表达式，结果必须是布尔
	Rule string
}

// NewExprFilter 创建规则过滤器，装载期即校验表达式可编译。
func NewExprFilter(rule string) (*ExprFilter, error) {
	if err := dsl.Check(rule); err != nil {
		return nil, err
	}
	return &ExprFilter{Rule: rule}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if f.Rule == "" {
		return false, nil
	}
	return dsl.NewEval(item, rctx).Evaluate(f.Rule)
}

var _ Filter = (*ExprFilter)(nil)
