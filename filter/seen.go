package filter

import (
	"context"

	"github.com/rushteam/factorkit/core"
)

// SeenStore 是用户交互历史的存储接口。
type SeenStore interface {
	// GetSeenItems 获取用户已交互过的物品键列表
	GetSeenItems(ctx context.Context, userID string) ([]string, error)
}

// SeenFilter 过滤掉用户训练期间已交互过的物品。
// 矩阵分解对已交互物品天然打高分（它就是拿这些交互拟合出来的），
// 不过滤的话推荐列表会被用户早就消费过的物品占满。
type SeenFilter struct {
	// Store 用于读取用户交互历史
	Store SeenStore
}

func (f *SeenFilter) Name() string {
	return "filter.seen"
}

func (f *SeenFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil || rctx.UserID == "" || f.Store == nil {
		return false, nil
	}

	seen, err := f.Store.GetSeenItems(ctx, rctx.UserID)
	if err != nil {
		// 历史读取失败时放行，宁可多推不可空推
		return false, nil
	}
	for _, key := range seen {
		if item.ID == key {
			return true, nil
		}
	}
	return false, nil
}

var _ Filter = (*SeenFilter)(nil)
