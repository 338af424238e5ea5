package recall

import (
	"context"
	"sort"

	"github.com/rushteam/factorkit/core"
	"github.com/rushteam/factorkit/pipeline"
	"github.com/rushteam/factorkit/pkg/utils"
)

// FactorRecall 是基于矩阵分解隐向量的在线召回源。
//
// 核心思想：离线 ALS 训练产出用户/物品隐向量（model.ALS → recall.Publish），
// 在线只做查表 + 点积：预测分数 = 用户隐向量 · 物品隐向量，取 TopK。
//
// 工程特征：
//   - 实时性：好（离线训练，在线查表）
//   - 计算复杂度：低（向量点积）
//   - 冷启动：未发布向量的用户返回空结果，由 Fanout 的其他源兜底
//
// 用户向量来源优先级：
//  1. RecommendContext.UserVector（请求侧直接携带）
//  2. Store.GetUserVector（隐向量存储，如 StoreFactorAdapter / feast.FactorSource）
type FactorRecall struct {
	Store core.FactorStore

	// ItemStore 物品向量的来源；为 nil 时使用 Store（用户向量来自
	// Feast 等外部特征服务时，物品向量仍从本地/Redis 读取）
	ItemStore core.FactorStore

	// TopK 返回 TopK 个物品，<=0 时取 20
	TopK int
}

func (r *FactorRecall) Name() string        { return "recall.factor" }
func (r *FactorRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *FactorRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *FactorRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Store == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	userVector := rctx.UserVector
	if len(userVector) == 0 {
		var err error
		userVector, err = r.Store.GetUserVector(ctx, rctx.UserID)
		if err != nil {
			return nil, err
		}
	}
	if len(userVector) == 0 {
		// 冷启动用户：没有隐向量，不打分
		return nil, nil
	}

	itemStore := r.ItemStore
	if itemStore == nil {
		itemStore = r.Store
	}
	itemVectors, err := itemStore.GetAllItemVectors(ctx)
	if err != nil {
		return nil, err
	}

	type scored struct {
		key   string
		score float64
	}
	scores := make([]scored, 0, len(itemVectors))
	for key, vec := range itemVectors {
		if len(vec) != len(userVector) {
			continue
		}
		var s float64
		for i := range vec {
			s += userVector[i] * vec[i]
		}
		scores = append(scores, scored{key: key, score: s})
	}

	// 分数降序，同分按物品键升序（与离线 TopN 的 tie-break 对齐）
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].key < scores[j].key
	})

	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}
	if len(scores) > topK {
		scores = scores[:topK]
	}

	out := make([]*core.Item, 0, len(scores))
	for _, s := range scores {
		it := core.NewItem(s.key)
		it.Score = s.score
		it.PutLabel("recall_source", utils.Label{Value: "factor", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

var _ Source = (*FactorRecall)(nil)
var _ pipeline.Node = (*FactorRecall)(nil)
