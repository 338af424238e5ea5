package filter

import (
	"context"

	"github.com/rushteam/factorkit/core"
)

// BlacklistFilter 按静态黑名单过滤物品（下架、违规、人工屏蔽等）。
type BlacklistFilter struct {
	blocked map[string]bool
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(itemKeys []string) *BlacklistFilter {
	blocked := make(map[string]bool, len(itemKeys))
	for _, k := range itemKeys {
		blocked[k] = true
	}
	return &BlacklistFilter{blocked: blocked}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return false, nil
	}
	return f.blocked[item.ID], nil
}

var _ Filter = (*BlacklistFilter)(nil)
