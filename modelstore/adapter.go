// Package modelstore 负责 ModelBundle 的持久化与恢复。
//
// 序列化采用带模式版本号的 JSON 信封：加载旧格式或损坏的产物时
// 安全地降级为"无历史模型"，绝不让反序列化错误拖垮启动。
//
// 写路径：blob 存储（带 TTL）+ 本地文件兜底；两者都只是加速冷启动，
// 任何持久化失败都不回滚已经发布的内存模型。
package modelstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/searchkit/core"
)

// SchemaVersion 是产物格式版本号；破坏性修改格式时递增。
const SchemaVersion = 1

// DefaultKey 是 blob 存储中的默认产物 key。
const DefaultKey = "searchkit:model"

// envelope 是持久化信封：先校验 Schema，再解开 Bundle。
type envelope struct {
	Schema int               `json:"schema"`
	Bundle *core.ModelBundle `json:"bundle"`
}

// Adapter 是模型产物的存取适配器。
type Adapter struct {
	// Blob 是 blob 存储后端（redis / memory / noop）
	Blob core.Store

	// Key blob 存储中的产物 key
	Key string

	// TTL blob 产物的存活时长
	TTL time.Duration

	// FallbackPath 本地文件兜底路径；为空则关闭文件兜底
	FallbackPath string

	logger zerolog.Logger
}

// NewAdapter 创建产物适配器。
func NewAdapter(blob core.Store, fallbackPath string, ttl time.Duration, logger zerolog.Logger) *Adapter {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Adapter{
		Blob:         blob,
		Key:          DefaultKey,
		TTL:          ttl,
		FallbackPath: fallbackPath,
		logger:       logger.With().Str("component", "modelstore").Logger(),
	}
}

// Save 持久化一个已发布的 Bundle：先写 blob，再写本地文件兜底。
// 只有所有已配置的路径都失败才返回错误；调用方按"非致命"处理。
func (a *Adapter) Save(ctx context.Context, bundle *core.ModelBundle) error {
	data, err := json.Marshal(envelope{Schema: SchemaVersion, Bundle: bundle})
	if err != nil {
		return fmt.Errorf("modelstore: marshal bundle: %w", err)
	}

	var blobErr, fileErr error
	if a.Blob != nil {
		blobErr = a.Blob.Set(ctx, a.key(), data, int(a.TTL.Seconds()))
		if blobErr != nil {
			a.logger.Warn().Err(blobErr).Str("backend", a.Blob.Name()).
				Msg("blob persist failed, in-memory bundle stays authoritative")
		}
	}
	if a.FallbackPath != "" {
		fileErr = writeFileAtomic(a.FallbackPath, data)
		if fileErr != nil {
			a.logger.Warn().Err(fileErr).Str("path", a.FallbackPath).
				Msg("file fallback persist failed")
		}
	}

	blobFailed := a.Blob == nil || blobErr != nil
	fileFailed := a.FallbackPath == "" || fileErr != nil
	if (a.Blob != nil || a.FallbackPath != "") && blobFailed && fileFailed {
		return fmt.Errorf("modelstore: persist bundle v%d: %w", bundle.Version, errors.Join(blobErr, fileErr))
	}
	return nil
}

// Load 恢复最近一次持久化的 Bundle：blob 优先，其次本地文件。
// 两者都缺失或损坏时返回 (nil, nil)，即"无历史模型"。
func (a *Adapter) Load(ctx context.Context) (*core.ModelBundle, error) {
	if a.Blob != nil {
		data, err := a.Blob.Get(ctx, a.key())
		if err == nil {
			if bundle := a.decode(data, a.Blob.Name()); bundle != nil {
				return bundle, nil
			}
		} else if !core.IsStoreNotFound(err) {
			a.logger.Warn().Err(err).Str("backend", a.Blob.Name()).Msg("blob restore failed, trying file fallback")
		}
	}

	if a.FallbackPath != "" {
		data, err := os.ReadFile(a.FallbackPath)
		if err == nil {
			if bundle := a.decode(data, "file"); bundle != nil {
				return bundle, nil
			}
		} else if !os.IsNotExist(err) {
			a.logger.Warn().Err(err).Str("path", a.FallbackPath).Msg("file restore failed")
		}
	}
	return nil, nil
}

// decode 解开信封；任何不一致（坏 JSON、模式不符、空载荷）都视作"无历史模型"。
func (a *Adapter) decode(data []byte, source string) *core.ModelBundle {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		a.logger.Warn().Err(err).Str("source", source).Msg("corrupt model artifact, treating as no prior model")
		return nil
	}
	if env.Schema != SchemaVersion || env.Bundle == nil || env.Bundle.Version <= 0 {
		a.logger.Warn().Int("schema", env.Schema).Str("source", source).
			Msg("unsupported model artifact, treating as no prior model")
		return nil
	}
	normalize(env.Bundle)
	a.logger.Info().Int64("version", env.Bundle.Version).Str("source", source).Msg("restored model bundle")
	return env.Bundle
}

// normalize 补齐反序列化可能缺失的 map 字段，恢复出的 Bundle 必须可直接服务。
func normalize(b *core.ModelBundle) {
	if b.Vectors == nil {
		b.Vectors = make(map[string]map[string]float64)
	}
	if b.Clusters == nil {
		b.Clusters = make(map[int][]string)
	}
	if b.ClusterOf == nil {
		b.ClusterOf = make(map[string]int)
	}
	if b.Profiles == nil {
		b.Profiles = make(map[string]*core.UserProfile)
	}
	if b.Catalog == nil {
		b.Catalog = make(map[string]core.CatalogEntry)
	}
}

func (a *Adapter) key() string {
	if a.Key != "" {
		return a.Key
	}
	return DefaultKey
}

// writeFileAtomic 先写临时文件再重命名，避免读到半个产物。
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
