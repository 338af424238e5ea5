package filter

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rushteam/factorkit/core"
)

// StoreAdapter 是基于 core.Store 的交互历史适配器。
// key 布局：{KeyPrefix}:seen:{userID} → 物品键列表（JSON）。
type StoreAdapter struct {
	store core.Store

	// KeyPrefix 存储 key 前缀，默认 "factor"
	KeyPrefix string
}

// NewStoreAdapter 创建一个基于 core.Store 的交互历史适配器。
func NewStoreAdapter(s core.Store, keyPrefix string) *StoreAdapter {
	if keyPrefix == "" {
		keyPrefix = "factor"
	}
	return &StoreAdapter{store: s, KeyPrefix: keyPrefix}
}

func (a *StoreAdapter) GetSeenItems(ctx context.Context, userID string) ([]string, error) {
	data, err := a.store.Get(ctx, a.KeyPrefix+":seen:"+userID)
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

// PublishSeen 把训练交互中每个用户触达过的物品键列表写入 Store，
// 供 SeenFilter 在线过滤。与 recall.Publish 在同一个离线任务里调用。
func PublishSeen(ctx context.Context, s core.Store, keyPrefix string, interactions []core.Interaction) error {
	if keyPrefix == "" {
		keyPrefix = "factor"
	}

	byUser := make(map[int64][]string)
	seen := make(map[int64]map[string]bool)
	for _, in := range interactions {
		if seen[in.UserID] == nil {
			seen[in.UserID] = make(map[string]bool)
		}
		if seen[in.UserID][in.ItemKey] {
			continue
		}
		seen[in.UserID][in.ItemKey] = true
		byUser[in.UserID] = append(byUser[in.UserID], in.ItemKey)
	}

	kvs := make(map[string][]byte, len(byUser))
	for uid, keys := range byUser {
		data, err := json.Marshal(keys)
		if err != nil {
			return err
		}
		kvs[keyPrefix+":seen:"+strconv.FormatInt(uid, 10)] = data
	}
	return s.BatchSet(ctx, kvs)
}

var _ SeenStore = (*StoreAdapter)(nil)
