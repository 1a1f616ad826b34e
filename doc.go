// Package searchkit 是一个商品搜索相关性与个性化引擎工具包（Search Kit）。
//
// 设计要点：
// - Bundle-first: 训练产物（向量空间/聚类/主题/画像）打包为不可变 ModelBundle，原子发布
// - Pipeline-first: 查询逻辑通过 Node 串联（Recall → Filter → Rank → ReRank）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
// - 优雅降级: 无模型、空画像、冷启动都返回空结果或纯相关性排序，绝不报错
package searchkit

import "github.com/rushteam/searchkit/pipeline"

// 轻量 facade：便于用户直接 import "searchkit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
