package recall

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/factorkit/core"
	"github.com/rushteam/factorkit/pipeline"
	"github.com/rushteam/factorkit/pkg/utils"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并合并结果。
// 典型用法：FactorRecall（实时打分）与 PrecomputedRecall（预计算表）
// 并发取数，前者为冷启动兜底留空位。支持超时、限流、合并策略。
type Fanout struct {
	Sources       []Source
	Dedup         bool
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	MergeStrategy string        // 合并策略：first / union / priority（优先级按 Sources 顺序）
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	var (
		mu  sync.Mutex
		all []*core.Item
	)
	eg, _ := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		s := src
		priority := i // 索引越小优先级越高

		eg.Go(func() error {
			recallCtx := ctx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(ctx, n.Timeout)
				defer cancel()
			}

			items, err := s.Recall(recallCtx, rctx)
			if err != nil {
				// 单个召回源超时/出错时返回空结果，不中断其他源
				return nil
			}

			// 记录召回来源 label，方便 explain / 观测
			for _, it := range items {
				it.PutLabel("recall_source", utils.Label{Value: s.Name(), Source: "recall"})
				it.PutLabel("recall_priority", utils.Label{Value: strconv.Itoa(priority), Source: "recall"})
			}

			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	switch n.MergeStrategy {
	case "priority":
		return n.mergeByPriority(all), nil
	case "union":
		return all, nil
	default: // "first" 或默认
		return n.mergeFirst(all), nil
	}
}

// mergeFirst 按 ID 去重，保留第一个出现的（默认策略）。
func (n *Fanout) mergeFirst(all []*core.Item) []*core.Item {
	if !n.Dedup {
		return all
	}
	seen := make(map[string]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		if old, ok := seen[it.ID]; ok {
			for k, v := range it.Labels {
				old.PutLabel(k, v)
			}
			continue
		}
		seen[it.ID] = it
		out = append(out, it)
	}
	return out
}

// mergeByPriority 按优先级合并：相同 ID 时保留优先级更高的（索引更小）。
func (n *Fanout) mergeByPriority(all []*core.Item) []*core.Item {
	if !n.Dedup {
		return all
	}
	seen := make(map[string]*core.Item, len(all))
	order := make([]string, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		old, exists := seen[it.ID]
		if !exists {
			seen[it.ID] = it
			order = append(order, it.ID)
			continue
		}
		if itemPriority(it) < itemPriority(old) {
			seen[it.ID] = it
		} else {
			for k, v := range it.Labels {
				old.PutLabel(k, v)
			}
		}
	}
	out := make([]*core.Item, 0, len(seen))
	for _, id := range order {
		out = append(out, seen[id])
	}
	return out
}

func itemPriority(it *core.Item) int {
	lbl, ok := it.Labels["recall_priority"]
	if !ok {
		return int(^uint(0) >> 1)
	}
	p, err := strconv.Atoi(lbl.Value)
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return p
}

var _ pipeline.Node = (*Fanout)(nil)
