package recall

import (
	"context"

	"github.com/rushteam/factorkit/core"
	"github.com/rushteam/factorkit/pipeline"
	"github.com/rushteam/factorkit/pkg/utils"
)

// PrecomputedRecall 读取离线预计算的 TopN 推荐表（PublishTopN 写入的
// 有序集合）。相比 FactorRecall 省掉了在线点积，代价是结果新鲜度取决
// 于离线任务的发布频率。
// PrecomputedRecall 同时实现 Source 和 Node 接口，可直接在 Pipeline 中使用。
type PrecomputedRecall struct {
	Store core.KeyValueStore

	// KeyPrefix 与 PublishTopN 的 prefix 一致，默认 "factor"
	KeyPrefix string

	// TopK 读取条数，<=0 时取 20
	TopK int
}

func (r *PrecomputedRecall) Name() string        { return "recall.precomputed" }
func (r *PrecomputedRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *PrecomputedRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *PrecomputedRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Store == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	prefix := r.KeyPrefix
	if prefix == "" {
		prefix = "factor"
	}
	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}

	key := prefix + ":topn:user:" + rctx.UserID
	members, err := r.Store.ZRange(ctx, key, 0, int64(topK)-1)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(members))
	for _, itemKey := range members {
		it := core.NewItem(itemKey)
		if score, err := r.Store.ZScore(ctx, key, itemKey); err == nil {
			it.Score = score
		}
		it.PutLabel("recall_source", utils.Label{Value: "precomputed", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

var _ Source = (*PrecomputedRecall)(nil)
var _ pipeline.Node = (*PrecomputedRecall)(nil)
