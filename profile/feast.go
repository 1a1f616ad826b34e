package profile

import (
	"context"
	"fmt"
	"sort"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/searchkit/core"
)

// OnlineFeatureClient 是 Feast 在线特征读取的最小接口。
// 生产实现为 feastsdk.GrpcClient；测试可用假实现。
type OnlineFeatureClient interface {
	GetOnlineFeatures(ctx context.Context, req *feastsdk.OnlineFeaturesRequest) (*feastsdk.OnlineFeaturesResponse, error)
}

// FeastEnricher 用 Feast 在线特征库补充画像的数值特征。
//
// 可选能力：未配置时训练器直接跳过。补充失败只影响 Features 字段，
// 事件日志聚合出的画像主体不受影响。
type FeastEnricher struct {
	Client OnlineFeatureClient

	// Project Feast 项目名
	Project string

	// Features 要拉取的特征全名列表，如 "user_stats:session_count"
	Features []string

	// EntityKey 实体主键名（默认 "user_id"）
	EntityKey string
}

// NewFeastEnricher 连接 Feast Feature Server 并创建补充器。
func NewFeastEnricher(host string, port int, project string, features []string) (*FeastEnricher, error) {
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("profile: connect feast: %w", err)
	}
	return &FeastEnricher{
		Client:   client,
		Project:  project,
		Features: features,
	}, nil
}

// Enrich 为全部画像补充在线特征。按用户 ID 升序构造请求，保证可复现。
func (e *FeastEnricher) Enrich(ctx context.Context, profiles map[string]*core.UserProfile) error {
	if e == nil || e.Client == nil || len(e.Features) == 0 || len(profiles) == 0 {
		return nil
	}
	entityKey := e.EntityKey
	if entityKey == "" {
		entityKey = "user_id"
	}

	userIDs := make([]string, 0, len(profiles))
	for uid := range profiles {
		userIDs = append(userIDs, uid)
	}
	sort.Strings(userIDs)

	rows := make([]feastsdk.Row, len(userIDs))
	for i, uid := range userIDs {
		rows[i] = feastsdk.Row{entityKey: feastsdk.StrVal(uid)}
	}

	resp, err := e.Client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: e.Features,
		Entities: rows,
		Project:  e.Project,
	})
	if err != nil {
		return fmt.Errorf("profile: feast online features: %w", err)
	}

	respRows := resp.Rows()
	if len(respRows) != len(userIDs) {
		return fmt.Errorf("profile: feast row count mismatch: want %d, got %d", len(userIDs), len(respRows))
	}

	for i, uid := range userIDs {
		p := profiles[uid]
		for _, name := range e.Features {
			val, ok := respRows[i][name]
			if !ok {
				continue
			}
			if f, ok := numericValue(val); ok {
				if p.Features == nil {
					p.Features = make(map[string]float64)
				}
				p.Features[name] = f
			}
		}
	}
	return nil
}

// numericValue 从 SDK 的 proto Value 提取数值特征；非数值类型跳过。
func numericValue(v *feasttypes.Value) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.GetVal().(type) {
	case *feasttypes.Value_DoubleVal:
		return val.DoubleVal, true
	case *feasttypes.Value_FloatVal:
		return float64(val.FloatVal), true
	case *feasttypes.Value_Int64Val:
		return float64(val.Int64Val), true
	case *feasttypes.Value_Int32Val:
		return float64(val.Int32Val), true
	case *feasttypes.Value_BoolVal:
		if val.BoolVal {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
