package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/searchkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

// getCELEnv 获取或创建 CEL 环境，定义 item/label/rctx 三个变量。
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Check 只编译不执行，用于配置装载期提前发现坏规则。
func Check(expr string) error {
	env, err := getCELEnv()
	if err != nil {
		return fmt.Errorf("dsl: init cel env: %w", err)
	}
	if _, issues := env.Compile(expr); issues != nil && issues.Err() != nil {
		return fmt.Errorf("dsl: compile %q: %w", expr, issues.Err())
	}
	return nil
}

// Eval 是业务规则解释器，使用 CEL (Common Expression Language) 实现。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.score > 0.7 / item.stock == 0
//   - 标签：label.recall_source == "semantic"
//   - 逻辑：item.category == "Jewelry" && item.score > 0.5
//   - 请求：rctx.user_id != ""
//
// 典型场景：查询期过滤规则，例如 `item.stock == 0` 剔除无货商品。
type Eval struct {
	item *core.Item
	rctx *core.RecommendContext
}

// NewEval 创建一个针对单个 item 的解释器。
func NewEval(item *core.Item, rctx *core.RecommendContext) *Eval {
	return &Eval{item: item, rctx: rctx}
}

// Evaluate 编译并执行表达式，返回布尔结果。
// 表达式结果不是 bool 时返回错误。
func (e *Eval) Evaluate(expr string) (bool, error) {
	env, err := getCELEnv()
	if err != nil {
		return false, fmt.Errorf("dsl: init cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("dsl: compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("dsl: program %q: %w", expr, err)
	}

	out, _, err := prg.Eval(e.activation())
	if err != nil {
		return false, fmt.Errorf("dsl: eval %q: %w", expr, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression %q is not boolean", expr)
	}
	return b, nil
}

// activation 将 item / label / rctx 展开为 CEL 变量。
// item 的 Meta 字段直接平铺，方便规则写 item.category / item.stock。
func (e *Eval) activation() map[string]any {
	item := make(map[string]any)
	label := make(map[string]any)
	rctx := make(map[string]any)

	if e.item != nil {
		for k, v := range e.item.Meta {
			item[k] = v
		}
		item["id"] = e.item.ID
		item["score"] = e.item.Score
		for k, lbl := range e.item.Labels {
			label[k] = lbl.Value
		}
	}
	if e.rctx != nil {
		rctx["user_id"] = e.rctx.UserID
		rctx["query"] = e.rctx.Query
		rctx["limit"] = e.rctx.Limit
		for k, v := range e.rctx.Params {
			rctx[k] = v
		}
	}

	return map[string]any{"item": item, "label": label, "rctx": rctx}
}
