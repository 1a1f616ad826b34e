package core

import "github.com/rushteam/searchkit/pkg/utils"

// RecommendContext 承载一次查询的用户/请求信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string // 匿名请求为空
	Query  string // 原始查询文本
	Limit  int    // 期望返回数量

	// Profile 是从当前 Bundle 解析出的用户画像；匿名或未知用户为 nil
	Profile *UserProfile

	// Params 请求级上下文参数（product_id、device_type 等）
	Params map[string]any

	// Labels 是请求级标签，可驱动 Pipeline 行为
	Labels map[string]utils.Label
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// Param 按 key 读取请求参数。
func (rctx *RecommendContext) Param(key string) (any, bool) {
	if rctx.Params == nil {
		return nil, false
	}
	v, ok := rctx.Params[key]
	return v, ok
}
