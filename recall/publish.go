package recall

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rushteam/factorkit/core"
	"github.com/rushteam/factorkit/index"
	"github.com/rushteam/factorkit/model"
)

// Publish 把训练完成的模型写入 Store，供在线召回查表。
// key 布局与 StoreFactorAdapter 的读取约定一致：
//
//	{prefix}:user:{userID} → 用户隐向量（JSON）
//	{prefix}:item:{itemKey} → 物品隐向量（JSON），物品下标经 mapping 还原为键
//	{prefix}:items → 已发布物品键列表（JSON）
//
// ttl 为可选的秒级过期时间，语义同 core.Store.Set。
func Publish(ctx context.Context, s core.Store, prefix string, m *model.Model, mapping *index.Mapping, ttl ...int) error {
	if prefix == "" {
		prefix = "factor"
	}

	kvs := make(map[string][]byte)
	for _, uid := range m.Users() {
		vec, _ := m.UserFactor(uid)
		data, err := json.Marshal(vec)
		if err != nil {
			return err
		}
		kvs[prefix+":user:"+strconv.FormatInt(uid, 10)] = data
	}

	itemKeys := make([]string, 0, len(m.Items()))
	for _, idx := range m.Items() {
		key, ok := mapping.Key(idx)
		if !ok {
			// 隐向量表中的下标必须在映射里；缺失说明 mapping 与模型不配套
			return core.NewDomainError(core.ModuleRecall, core.ErrorCodeUnknownKey,
				"recall: item index "+strconv.Itoa(idx)+" has no mapping entry")
		}
		vec, _ := m.ItemFactor(idx)
		data, err := json.Marshal(vec)
		if err != nil {
			return err
		}
		kvs[prefix+":item:"+key] = data
		itemKeys = append(itemKeys, key)
	}

	itemsData, err := json.Marshal(itemKeys)
	if err != nil {
		return err
	}
	kvs[prefix+":items"] = itemsData

	return s.BatchSet(ctx, kvs, ttl...)
}

// PublishTopN 为每个训练用户预计算 TopN 推荐并写入有序集合：
//
//	{prefix}:topn:user:{userID} → zset，member 为物品键，score 为预测分数
//
// 在线侧由 PrecomputedRecall 以 ZRange 读取。n<1 时透传模型的 INVALID_N。
func PublishTopN(ctx context.Context, s core.KeyValueStore, prefix string, m *model.Model, mapping *index.Mapping, n int) error {
	if prefix == "" {
		prefix = "factor"
	}

	recs, err := m.RecommendForUsers(n)
	if err != nil {
		return err
	}
	for uid, items := range recs {
		key := prefix + ":topn:user:" + strconv.FormatInt(uid, 10)
		for _, it := range items {
			itemKey, ok := mapping.Key(it.ItemIndex)
			if !ok {
				return core.NewDomainError(core.ModuleRecall, core.ErrorCodeUnknownKey,
					"recall: item index "+strconv.Itoa(it.ItemIndex)+" has no mapping entry")
			}
			if err := s.ZAdd(ctx, key, it.Score, itemKey); err != nil {
				return err
			}
		}
	}
	return nil
}
