package filter

import (
	"context"

	"github.com/rushteam/factorkit/core"
	"github.com/rushteam/factorkit/pkg/dsl"
)

// ExprFilter 是规则驱动的过滤器：CEL 表达式求值为 true 的物品被过滤。
//
// 示例：
//   - `item.score < 0.1` → 过滤低分候选
//   - `label.recall_source == "precomputed" && item.score < 0.5`
type ExprFilter struct {
	// Expr CEL 表达式，为空时不过滤任何物品
	Expr string
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.Expr == "" || item == nil {
		return false, nil
	}
	return dsl.NewEval(item, rctx).Evaluate(f.Expr)
}

var _ Filter = (*ExprFilter)(nil)
