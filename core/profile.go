package core

import "time"

// UserProfile 是单个用户的偏好画像。
//
// 一句话定义：画像 = 从搜索/点击/成交历史聚合出的偏好信号。
//
// 设计要点：
//   - 派生数据，非权威数据：可随时丢弃并由事件日志重建
//   - 训练周期内构建，随 ModelBundle 一起发布，发布后只读
//   - 空画像是合法状态（无点击历史的用户），表示"不做个性化"
type UserProfile struct {
	UserID string `json:"user_id"`

	// 搜索行为
	SearchTerms []string `json:"search_terms"`

	// 点击/购买集合
	Clicked   map[string]bool `json:"clicked"`
	Purchased map[string]bool `json:"purchased"`

	// 消费水平
	TotalSpend float64 `json:"total_spend"`
	AvgPrice   float64 `json:"avg_price"` // 点击商品的平均实际售价，0 表示未知

	// 偏好集合（由点击商品经目录解析得到）
	PreferredCategories map[string]bool `json:"preferred_categories"`
	PreferredBrands     map[string]bool `json:"preferred_brands"`

	// Features 是外部特征平台（如 Feast）补充的数值特征，可为空
	Features map[string]float64 `json:"features,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewUserProfile 创建一个空画像。
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:              userID,
		Clicked:             make(map[string]bool),
		Purchased:           make(map[string]bool),
		PreferredCategories: make(map[string]bool),
		PreferredBrands:     make(map[string]bool),
	}
}

// IsEmpty 判断画像是否不含任何个性化信号。
func (p *UserProfile) IsEmpty() bool {
	if p == nil {
		return true
	}
	return len(p.Clicked) == 0 && len(p.PreferredCategories) == 0 &&
		len(p.PreferredBrands) == 0 && p.AvgPrice == 0
}

// HasClicked 判断用户是否点击过该商品。
func (p *UserProfile) HasClicked(productID string) bool {
	return p != nil && p.Clicked[productID]
}

// PrefersCategory 判断类目是否在用户偏好集合内。
func (p *UserProfile) PrefersCategory(category string) bool {
	return p != nil && p.PreferredCategories[category]
}

// PrefersBrand 判断品牌是否在用户偏好集合内。
func (p *UserProfile) PrefersBrand(brand string) bool {
	return p != nil && p.PreferredBrands[brand]
}
