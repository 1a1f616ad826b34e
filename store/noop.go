package store

import (
	"context"

	"github.com/rushteam/searchkit/core"
)

// NoopStore 是显式"关闭"的 Store 实现：写入被丢弃，读取永远未命中。
//
// 用于通过配置明确关闭 blob 持久化（此时模型只靠本地文件兜底），
// 替代"运行期探测可选依赖"的做法：能力有没有，由配置说了算。
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) Name() string { return "noop" }

func (n *NoopStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, core.ErrStoreNotFound
}

func (n *NoopStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	return nil
}

func (n *NoopStore) Delete(ctx context.Context, key string) error { return nil }

func (n *NoopStore) Close() error { return nil }

var _ core.Store = (*NoopStore)(nil)
