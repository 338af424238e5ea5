package feast

import (
	"context"
	"encoding/json"

	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/factorkit/core"
)

// FactorSource 把 Feast 在线特征当作用户隐向量来源，实现 core.FactorStore。
//
// 使用场景：用户隐向量由离线任务物化进 Feast（向量特征或 JSON 字符串
// 特征均可），在线召回按 user_id 实时取回。物品侧全量向量不适合走
// 特征服务（一次要拉全部物品），仍从 Store 读取：
//
//	&recall.FactorRecall{
//	    Store:     feastSource,                  // 用户向量 ← Feast
//	    ItemStore: storeAdapter,                 // 物品向量 ← Redis/Memory
//	}
type FactorSource struct {
	Client Client

	// Project Feast 项目名称
	Project string

	// EntityName 用户实体名，默认 "user_id"
	EntityName string

	// Feature 用户向量特征名，默认 "als_factors:user_vector"。
	// 特征值支持 double list 或 JSON 数组字符串两种物化格式。
	Feature string
}

func (s *FactorSource) Name() string { return "feast_factor_source" }

func (s *FactorSource) GetUserVector(ctx context.Context, userID string) ([]float64, error) {
	if s.Client == nil {
		return []float64{}, nil
	}

	entity := s.EntityName
	if entity == "" {
		entity = "user_id"
	}
	feature := s.Feature
	if feature == "" {
		feature = "als_factors:user_vector"
	}

	resp, err := s.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   []string{feature},
		EntityRows: []map[string]interface{}{{entity: userID}},
		Project:    s.Project,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.FeatureVectors) == 0 {
		return []float64{}, nil
	}

	raw, ok := resp.FeatureVectors[0].Values[feature]
	if !ok {
		return []float64{}, nil
	}
	return decodeVector(raw)
}

// decodeVector 兼容两种物化格式：double list 特征与 JSON 数组字符串。
func decodeVector(raw interface{}) ([]float64, error) {
	switch v := raw.(type) {
	case *feasttypes.Value:
		if list := v.GetDoubleListVal(); list != nil {
			out := make([]float64, len(list.Val))
			copy(out, list.Val)
			return out, nil
		}
		if s := v.GetStringVal(); s != "" {
			var vec []float64
			if err := json.Unmarshal([]byte(s), &vec); err != nil {
				return nil, err
			}
			return vec, nil
		}
		return []float64{}, nil
	case []float64:
		return v, nil
	case string:
		var vec []float64
		if err := json.Unmarshal([]byte(v), &vec); err != nil {
			return nil, err
		}
		return vec, nil
	default:
		return []float64{}, nil
	}
}

// GetItemVector 物品向量不走特征服务（见 FactorSource 的文档）。
func (s *FactorSource) GetItemVector(ctx context.Context, itemKey string) ([]float64, error) {
	return nil, core.NewDomainError(core.ModuleRecall, core.ErrorCodeNotSupported,
		"feast: item vectors are not served from the feature store")
}

// GetAllItemVectors 同 GetItemVector：配合 FactorRecall.ItemStore 使用。
func (s *FactorSource) GetAllItemVectors(ctx context.Context) (map[string][]float64, error) {
	return nil, core.NewDomainError(core.ModuleRecall, core.ErrorCodeNotSupported,
		"feast: item vectors are not served from the feature store")
}

func (s *FactorSource) GetAllItemKeys(ctx context.Context) ([]string, error) {
	return nil, core.NewDomainError(core.ModuleRecall, core.ErrorCodeNotSupported,
		"feast: item vectors are not served from the feature store")
}

var _ core.FactorStore = (*FactorSource)(nil)
