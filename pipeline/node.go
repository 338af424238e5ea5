package pipeline

import (
	"context"

	"github.com/rushteam/factorkit/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindRecall Kind = "recall" // 召回阶段：生成候选集
	KindFilter Kind = "filter" // 过滤阶段：剔除不符合约束的候选
	KindReRank Kind = "rerank" // 重排阶段：截断/调序
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用"输入 items -> 输出 items"的形态，方便召回生成、过滤截断、
// 重排调序等操作自由组合。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}

// NodeBuilder 根据配置构建 Node，配合 NodeFactory 实现配置驱动。
type NodeBuilder = func(config map[string]interface{}) (Node, error)
