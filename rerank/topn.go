package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/factorkit/core"
	"github.com/rushteam/factorkit/pipeline"
)

// TopNNode 是 Top-N 截断节点：按分数降序排序后截取前 N 个物品。
// 同分物品按 ID 升序，保证同一输入永远产出同一列表。
//
// 使用场景：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.FactorRecall{...},  // 召回
//	        &filter.FilterNode{...},    // 过滤
//	        &rerank.TopNNode{N: 10},    // 截取 Top 10
//	    },
//	}
type TopNNode struct {
	// N 要保留的物品数量；N <= 0 时只排序不截断
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})

	if n.N > 0 && len(out) > n.N {
		out = out[:n.N]
	}
	return out, nil
}

var _ pipeline.Node = (*TopNNode)(nil)
