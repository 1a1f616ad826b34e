// Package trainer 实现后台重训调度：决定何时重训、串起完整训练流水线、
// 原子发布新模型。
//
// 状态机只有两个状态：Idle 与 Training。
//   - 固定间隔唤醒，评估重训谓词（从未训练 / 超过间隔 / 新事件量超阈值）
//   - 谓词不满足：无副作用回到 Idle
//   - 谓词满足：构建一个全新的 ModelBundle，单次原子替换发布，再持久化
//
// 训练中的任何失败都在调度器边界被捕获并记录，当前周期作废，
// 上一个存活模型继续服务，训练失败绝不影响查询路径。
package trainer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/searchkit/cluster"
	"github.com/rushteam/searchkit/core"
	"github.com/rushteam/searchkit/corpus"
	"github.com/rushteam/searchkit/embedding"
	"github.com/rushteam/searchkit/modelstore"
	"github.com/rushteam/searchkit/profile"
	"github.com/rushteam/searchkit/topic"
)

// 聚类与主题采样的固定种子：相同输入必须产出相同模型。
const trainSeed = 1

// State 是调度器状态。
type State int32

const (
	StateIdle State = iota
	StateTraining
)

// Clock 是可注入的时钟，让重训谓词可以不真实等待地测试。
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock 返回真实时钟。
func SystemClock() Clock { return systemClock{} }

// Publisher 接收新训练出的 Bundle（engine 实现为原子指针替换）。
type Publisher interface {
	Publish(bundle *core.ModelBundle)
}

// ErrTrainingInProgress 表示已有训练周期在运行。
var ErrTrainingInProgress = core.NewDomainError(core.ModuleTrainer, core.ErrorCodeUnavailable, "trainer: training already in progress")

// Scheduler 是重训调度器，也是 ModelBundle 的唯一写入方。
type Scheduler struct {
	// Artifacts 模型持久化适配器；nil 表示不持久化
	Artifacts *modelstore.Adapter

	// Enricher 可选的 Feast 画像特征补充
	Enricher *profile.FeastEnricher

	// Clock 可注入时钟（默认真实时钟）
	Clock Clock

	catalog   core.CatalogProvider
	events    core.EventProvider
	publisher Publisher
	cfg       core.EngineConfig
	logger    zerolog.Logger

	state atomic.Int32

	mu          sync.Mutex
	lastTrained time.Time
	lastVersion int64
}

// NewScheduler 创建调度器。
func NewScheduler(catalog core.CatalogProvider, events core.EventProvider, publisher Publisher, cfg core.EngineConfig, logger zerolog.Logger) *Scheduler {
	cfg.Normalize()
	return &Scheduler{
		Clock:     SystemClock(),
		catalog:   catalog,
		events:    events,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With().Str("component", "trainer").Logger(),
	}
}

// State 返回当前状态。
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// LastVersion 返回最近一次成功发布的版本令牌；0 表示从未训练。
func (s *Scheduler) LastVersion() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastVersion
}

// Restore 把恢复出的历史模型登记为"最近一次成功训练"。
// 进程启动加载持久化产物后调用，避免立刻触发一次多余的重训。
func (s *Scheduler) Restore(bundle *core.ModelBundle) {
	if bundle == nil || bundle.Version <= 0 {
		return
	}
	s.mu.Lock()
	s.lastTrained = bundle.TrainedAt
	s.lastVersion = bundle.Version
	s.mu.Unlock()
	s.publisher.Publish(bundle)
}

// ShouldRetrain 评估重训谓词，返回是否重训及触发原因。
func (s *Scheduler) ShouldRetrain(ctx context.Context) (bool, string, error) {
	s.mu.Lock()
	lastTrained, lastVersion := s.lastTrained, s.lastVersion
	s.mu.Unlock()

	if lastVersion == 0 {
		return true, "never_trained", nil
	}
	if s.Clock.Now().Sub(lastTrained) > s.cfg.RetrainInterval {
		return true, "interval_elapsed", nil
	}
	count, err := s.events.QueryCountSince(ctx, lastTrained)
	if err != nil {
		return false, "", fmt.Errorf("trainer: count queries since %s: %w", lastTrained.Format(time.RFC3339), err)
	}
	if count > s.cfg.RetrainQueries {
		return true, "query_volume", nil
	}
	return false, "", nil
}

// Run 是后台调度循环：固定间隔唤醒，直到 ctx 取消。
// 启动时立即评估一次（冷启动尽快出模型）。
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RetrainInterval)
	defer ticker.Stop()

	s.evaluate(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.evaluate(ctx)
		}
	}
}

func (s *Scheduler) evaluate(ctx context.Context) {
	should, reason, err := s.ShouldRetrain(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("retrain predicate failed, skipping cycle")
		return
	}
	if !should {
		return
	}
	if _, err := s.TrainOnce(ctx); err != nil {
		s.logger.Error().Err(err).Str("reason", reason).Msg("training cycle failed, previous bundle stays live")
		return
	}
	s.logger.Info().Str("reason", reason).Int64("version", s.LastVersion()).Msg("training cycle completed")
}

// TrainOnce 运行一个完整训练周期并发布结果。
// 已有周期在运行时返回 ErrTrainingInProgress；构建失败时不发布、
// 不推进 lastTrained，上一个模型保持存活。
func (s *Scheduler) TrainOnce(ctx context.Context) (*core.ModelBundle, error) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateTraining)) {
		return nil, ErrTrainingInProgress
	}
	defer s.state.Store(int32(StateIdle))

	now := s.Clock.Now()
	bundle, err := s.buildBundle(ctx, now)
	if err != nil {
		return nil, err
	}

	// 原子发布：读者要么看到整体旧模型，要么看到整体新模型
	s.publisher.Publish(bundle)
	s.mu.Lock()
	s.lastTrained = now
	s.lastVersion = bundle.Version
	s.mu.Unlock()

	// 持久化失败不回滚已发布的内存模型
	if s.Artifacts != nil {
		if err := s.Artifacts.Save(ctx, bundle); err != nil {
			s.logger.Warn().Err(err).Int64("version", bundle.Version).Msg("bundle persist failed, serving from memory")
		}
	}
	return bundle, nil
}

// buildBundle 构建一个全新的、尚未发布的 Bundle。
// 商品链路（语料→向量→聚类）严格串行；画像与主题只读事件日志，
// 与商品链路并发执行。任何 panic 都折算为本周期的错误。
func (s *Scheduler) buildBundle(ctx context.Context, now time.Time) (bundle *core.ModelBundle, err error) {
	defer func() {
		if r := recover(); r != nil {
			bundle = nil
			err = fmt.Errorf("trainer: training pipeline panic: %v", r)
		}
	}()

	bundle = core.EmptyBundle()
	bundle.Version = now.UnixNano()
	bundle.TrainedAt = now

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		entries, err := s.catalog.ActiveEntries(gctx)
		if err != nil {
			return fmt.Errorf("trainer: catalog snapshot: %w", err)
		}
		docs := corpus.NewBuilder(s.cfg).Build(entries)
		texts := make([]string, len(docs))
		for i, d := range docs {
			texts[i] = d.Text
		}

		space := embedding.Fit(texts, embedding.Config{
			MaxVocab:    s.cfg.MaxVocab,
			MinGram:     1,
			MaxGram:     3,
			MinDocFreq:  s.cfg.MinDocFreq,
			MaxDocRatio: s.cfg.MaxDocRatio,
			SublinearTF: true,
		})
		if space == nil {
			// 空目录：发布降级（空）产物
			return nil
		}

		vectors := make(map[string]map[string]float64, len(docs))
		for _, d := range docs {
			vectors[d.ProductID] = space.Transform(d.Text)
		}
		res := cluster.Fit(vectors, cluster.Config{
			MaxClusters:     s.cfg.MaxClusters,
			ProductsPerSlot: s.cfg.ProductsPerSlot,
			Seed:            trainSeed,
		})

		catalogIndex := make(map[string]core.CatalogEntry, len(entries))
		for _, e := range entries {
			catalogIndex[e.ID] = e
		}

		bundle.Space = space
		bundle.Vectors = vectors
		bundle.Clusters = res.Members
		bundle.ClusterOf = res.Assignments
		bundle.Catalog = catalogIndex
		return nil
	})

	g.Go(func() error {
		profiles, err := profile.NewBuilder(s.catalog, s.events, s.cfg).Build(gctx, now)
		if err != nil {
			return err
		}
		if s.Enricher != nil {
			if err := s.Enricher.Enrich(gctx, profiles); err != nil {
				s.logger.Warn().Err(err).Msg("profile enrichment failed, using event-derived profiles only")
			}
		}
		bundle.Profiles = profiles
		return nil
	})

	g.Go(func() error {
		queries, err := s.events.QueriesSince(gctx, now.Add(-s.cfg.TopicWindow))
		if err != nil {
			return fmt.Errorf("trainer: read recent queries: %w", err)
		}
		x := topic.NewExtractor(s.cfg)
		x.Seed = trainSeed
		bundle.Topics = x.Extract(queries)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bundle, nil
}
