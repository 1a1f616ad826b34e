// Package config 提供 yaml 配置驱动的组件装配：
// 存储后端、训练阈值、产物持久化、查询规则与 Feast 特征源
// 都由配置声明，代码里不做运行期探测。
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/searchkit/core"
	"github.com/rushteam/searchkit/filter"
	"github.com/rushteam/searchkit/profile"
	"github.com/rushteam/searchkit/store"
)

// Duration 是支持 "6h"/"30m" 字符串的时长字段。
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Config 是 searchkit 的顶层配置。所有字段都有可用的零值默认。
type Config struct {
	Engine   EngineSection   `yaml:"engine"`
	Trainer  TrainerSection  `yaml:"trainer"`
	Store    StoreSection    `yaml:"store"`
	Artifact ArtifactSection `yaml:"artifact"`
	Serving  ServingSection  `yaml:"serving"`
	Feast    FeastSection    `yaml:"feast"`
}

// EngineSection 覆盖训练与检索的阈值参数（缺省走内置默认）。
type EngineSection struct {
	PriceLow        float64  `yaml:"price_low"`
	PriceHigh       float64  `yaml:"price_high"`
	HighStock       int      `yaml:"high_stock"`
	MaxVocab        int      `yaml:"max_vocab"`
	MinDocFreq      int      `yaml:"min_doc_freq"`
	MaxDocRatio     float64  `yaml:"max_doc_ratio"`
	MinSimilarity   float64  `yaml:"min_similarity"`
	MaxClusters     int      `yaml:"max_clusters"`
	ProductsPerSlot int      `yaml:"products_per_slot"`
	TopicWindow     Duration `yaml:"topic_window"`
	MinTopicQueries int      `yaml:"min_topic_queries"`
	MaxTopics       int      `yaml:"max_topics"`
	ProfileWindow   Duration `yaml:"profile_window"`
}

// TrainerSection 配置重训触发条件。
type TrainerSection struct {
	Interval       Duration `yaml:"interval"`
	QueryThreshold int64    `yaml:"query_threshold"`
}

// StoreSection 选择 blob 存储后端。
// backend: redis / memory / noop（noop 表示显式关闭 blob 持久化）。
type StoreSection struct {
	Backend string `yaml:"backend"`
	Addr    string `yaml:"addr"`
	DB      int    `yaml:"db"`
}

// ArtifactSection 配置模型产物的持久化位置。
type ArtifactSection struct {
	Key          string   `yaml:"key"`
	TTL          Duration `yaml:"ttl"`
	FallbackPath string   `yaml:"fallback_path"`
}

// ServingSection 配置查询路径的规则过滤，每条 rule 是一个 CEL 表达式，
// 求值为 true 的候选被剔除。例如 `item.stock == 0`。
type ServingSection struct {
	Rules []string `yaml:"rules"`
}

// FeastSection 配置可选的 Feast 在线特征源；host 为空表示关闭。
type FeastSection struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Project  string   `yaml:"project"`
	Features []string `yaml:"features"`
}

// Load 从 yaml 文件加载配置。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse 解析 yaml 配置内容。
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置的静态合法性。
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "", "memory", "noop":
	case "redis":
		if c.Store.Addr == "" {
			return fmt.Errorf("config: store backend redis requires addr")
		}
	default:
		return fmt.Errorf("config: unsupported store backend %q (supported: redis, memory, noop)", c.Store.Backend)
	}
	if c.Feast.Host != "" && c.Feast.Project == "" {
		return fmt.Errorf("config: feast requires project when host is set")
	}
	return nil
}

// EngineConfig 把 yaml 覆盖项合并进参考默认配置。
func (c *Config) EngineConfig() core.EngineConfig {
	ec := core.EngineConfig{
		PriceLowThreshold:  c.Engine.PriceLow,
		PriceHighThreshold: c.Engine.PriceHigh,
		HighStockThreshold: c.Engine.HighStock,
		MaxVocab:           c.Engine.MaxVocab,
		MinDocFreq:         c.Engine.MinDocFreq,
		MaxDocRatio:        c.Engine.MaxDocRatio,
		MinSimilarity:      c.Engine.MinSimilarity,
		MaxClusters:        c.Engine.MaxClusters,
		ProductsPerSlot:    c.Engine.ProductsPerSlot,
		TopicWindow:        time.Duration(c.Engine.TopicWindow),
		MinTopicQueries:    c.Engine.MinTopicQueries,
		MaxTopics:          c.Engine.MaxTopics,
		ProfileWindow:      time.Duration(c.Engine.ProfileWindow),
		RetrainInterval:    time.Duration(c.Trainer.Interval),
		RetrainQueries:     c.Trainer.QueryThreshold,
		ArtifactTTL:        time.Duration(c.Artifact.TTL),
	}
	ec.Normalize()
	return ec
}

// BuildStore 按配置构建 blob 存储后端（默认 memory）。
func (c *Config) BuildStore() (core.Store, error) {
	switch c.Store.Backend {
	case "redis":
		return store.NewRedisStore(c.Store.Addr, c.Store.DB)
	case "noop":
		return store.NewNoopStore(), nil
	default:
		return store.NewMemoryStore(), nil
	}
}

// BuildFilters 把 serving.rules 编译为 CEL 过滤器。
func (c *Config) BuildFilters() ([]filter.Filter, error) {
	if len(c.Serving.Rules) == 0 {
		return nil, nil
	}
	filters := make([]filter.Filter, 0, len(c.Serving.Rules))
	for _, rule := range c.Serving.Rules {
		f, err := filter.NewExprFilter(rule)
		if err != nil {
			return nil, fmt.Errorf("config: compile rule %q: %w", rule, err)
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// BuildEnricher 按配置创建 Feast 画像补充器；未配置时返回 (nil, nil)。
func (c *Config) BuildEnricher() (*profile.FeastEnricher, error) {
	if c.Feast.Host == "" {
		return nil, nil
	}
	port := c.Feast.Port
	if port <= 0 {
		port = 6566
	}
	return profile.NewFeastEnricher(c.Feast.Host, port, c.Feast.Project, c.Feast.Features)
}
