package filter

import (
	"context"

	"github.com/rushteam/factorkit/core"
	"github.com/rushteam/factorkit/pipeline"
	"github.com/rushteam/factorkit/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器。
// 任何一个过滤器返回 true，该物品就会被过滤掉。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		filtered := false
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				// 过滤器出错时记录但不中断流程
				continue
			}
			if ok {
				filtered = true
				// 记录过滤原因，用于调试/观测
				item.PutLabel("filtered", utils.Label{Value: "true", Source: f.Name()})
				break
			}
		}
		if !filtered {
			out = append(out, item)
		}
	}
	return out, nil
}

var _ pipeline.Node = (*FilterNode)(nil)
