package recall

import (
	"context"
	"encoding/json"

	"github.com/rushteam/factorkit/core"
)

// StoreFactorAdapter 是基于 core.Store 接口的隐向量存储适配器。
// 读取 recall.Publish 写入的布局：
//
//	用户隐向量：{KeyPrefix}:user:{userID}
//	物品隐向量：{KeyPrefix}:item:{itemKey}
//	物品键列表：{KeyPrefix}:items
//
// 值均为 JSON 编码。
type StoreFactorAdapter struct {
	store core.Store

	// KeyPrefix 是存储 key 的前缀，默认 "factor"
	KeyPrefix string
}

// NewStoreFactorAdapter 创建一个基于 core.Store 的隐向量适配器。
func NewStoreFactorAdapter(s core.Store, keyPrefix string) *StoreFactorAdapter {
	if keyPrefix == "" {
		keyPrefix = "factor"
	}
	return &StoreFactorAdapter{store: s, KeyPrefix: keyPrefix}
}

func (a *StoreFactorAdapter) Name() string { return "store_factor_adapter" }

func (a *StoreFactorAdapter) GetUserVector(ctx context.Context, userID string) ([]float64, error) {
	return a.getVector(ctx, a.KeyPrefix+":user:"+userID)
}

func (a *StoreFactorAdapter) GetItemVector(ctx context.Context, itemKey string) ([]float64, error) {
	return a.getVector(ctx, a.KeyPrefix+":item:"+itemKey)
}

// getVector 读取单个 JSON 向量；key 不存在按"无向量"处理返回空切片。
func (a *StoreFactorAdapter) getVector(ctx context.Context, key string) ([]float64, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return []float64{}, nil
		}
		return nil, err
	}
	var vec []float64
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func (a *StoreFactorAdapter) GetAllItemKeys(ctx context.Context) ([]string, error) {
	data, err := a.store.Get(ctx, a.KeyPrefix+":items")
	if err != nil {
		if core.IsStoreNotFound(err) {
			return []string{}, nil
		}
		return nil, err
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

func (a *StoreFactorAdapter) GetAllItemVectors(ctx context.Context) (map[string][]float64, error) {
	keys, err := a.GetAllItemKeys(ctx)
	if err != nil {
		return nil, err
	}

	// 一次 BatchGet 拉全量向量，避免逐 key 往返
	storeKeys := make([]string, len(keys))
	for i, k := range keys {
		storeKeys[i] = a.KeyPrefix + ":item:" + k
	}
	raw, err := a.store.BatchGet(ctx, storeKeys)
	if err != nil {
		return nil, err
	}

	result := make(map[string][]float64, len(keys))
	for i, k := range keys {
		data, ok := raw[storeKeys[i]]
		if !ok {
			continue
		}
		var vec []float64
		if json.Unmarshal(data, &vec) != nil || len(vec) == 0 {
			continue
		}
		result[k] = vec
	}
	return result, nil
}

var _ core.FactorStore = (*StoreFactorAdapter)(nil)
