// Package profile 将用户的搜索/点击/成交历史聚合为偏好画像。
//
// 核心思想：
//   - 三类事件按 QueryID 关联，只取时间窗内、有用户 ID 的记录
//   - 点击商品经目录解析出偏好类目/品牌与平均价位
//   - 无点击历史的用户得到空画像（合法状态，表示不做个性化）
package profile

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rushteam/searchkit/core"
)

// Builder 聚合事件日志构建画像。
type Builder struct {
	Catalog core.CatalogProvider
	Events  core.EventProvider

	// Window 行为回溯窗口（默认 90 天）
	Window time.Duration
}

// NewBuilder 创建画像构建器。
func NewBuilder(catalog core.CatalogProvider, events core.EventProvider, cfg core.EngineConfig) *Builder {
	return &Builder{
		Catalog: catalog,
		Events:  events,
		Window:  cfg.ProfileWindow,
	}
}

// Build 构建全部用户的画像。now 由调用方注入（训练时刻），保证可测试。
func (b *Builder) Build(ctx context.Context, now time.Time) (map[string]*core.UserProfile, error) {
	window := b.Window
	if window <= 0 {
		window = 90 * 24 * time.Hour
	}
	since := now.Add(-window)

	queries, err := b.Events.QueriesSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("profile: read queries: %w", err)
	}
	clicks, err := b.Events.ClicksSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("profile: read clicks: %w", err)
	}
	conversions, err := b.Events.ConversionsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("profile: read conversions: %w", err)
	}

	// QueryID -> UserID 关联表，仅保留已登录用户的搜索
	queryUser := make(map[string]string, len(queries))
	profiles := make(map[string]*core.UserProfile)
	get := func(userID string) *core.UserProfile {
		p, ok := profiles[userID]
		if !ok {
			p = core.NewUserProfile(userID)
			p.UpdatedAt = now
			profiles[userID] = p
		}
		return p
	}

	for _, q := range queries {
		if q.UserID == "" {
			continue
		}
		queryUser[q.ID] = q.UserID
		p := get(q.UserID)
		if t := strings.TrimSpace(strings.ToLower(q.Query)); t != "" {
			p.SearchTerms = append(p.SearchTerms, t)
		}
	}

	// 点击：按 QueryID 归属到用户；同时记录每次搜索点了哪些商品（成交归因用）
	queryClicked := make(map[string][]string)
	for _, c := range clicks {
		userID, ok := queryUser[c.QueryID]
		if !ok {
			continue
		}
		get(userID).Clicked[c.ProductID] = true
		queryClicked[c.QueryID] = append(queryClicked[c.QueryID], c.ProductID)
	}

	// 成交：金额计入总消费；该次搜索点击过的商品标记为已购
	for _, cv := range conversions {
		userID, ok := queryUser[cv.QueryID]
		if !ok {
			continue
		}
		p := get(userID)
		p.TotalSpend += cv.Value
		for _, pid := range queryClicked[cv.QueryID] {
			p.Purchased[pid] = true
		}
	}

	if err := b.resolve(ctx, profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// resolve 经目录把点击商品解析为偏好类目/品牌与平均价位。
func (b *Builder) resolve(ctx context.Context, profiles map[string]*core.UserProfile) error {
	idset := make(map[string]bool)
	for _, p := range profiles {
		for pid := range p.Clicked {
			idset[pid] = true
		}
	}
	if len(idset) == 0 {
		return nil
	}

	ids := make([]string, 0, len(idset))
	for pid := range idset {
		ids = append(ids, pid)
	}
	sort.Strings(ids)

	entries, err := b.Catalog.Entries(ctx, ids)
	if err != nil {
		return fmt.Errorf("profile: resolve catalog: %w", err)
	}
	byID := make(map[string]core.CatalogEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	for _, p := range profiles {
		var priceSum float64
		var priced int
		for pid := range p.Clicked {
			e, ok := byID[pid]
			if !ok {
				continue // 商品已下架，跳过
			}
			if e.Category != "" {
				p.PreferredCategories[e.Category] = true
			}
			if e.Brand != "" {
				p.PreferredBrands[e.Brand] = true
			}
			priceSum += e.EffectivePrice()
			priced++
		}
		if priced > 0 {
			p.AvgPrice = priceSum / float64(priced)
		}
	}
	return nil
}
