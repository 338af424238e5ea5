// Package factorkit 是一个矩阵分解推荐工具包（Factorization Kit）。
//
// 设计要点：
// - 训练与服务分层：index/model/eval 负责离线训练与评估，recall/filter/rerank/pipeline 负责在线服务
// - 确定性优先: 相同种子与相同输入保证相同的隐向量与推荐结果，便于回归与离线评估
// - Pipeline-first: 在线推荐逻辑通过 Node 串联（Recall → Filter → ReRank）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
package factorkit

import "github.com/rushteam/factorkit/pipeline"

// 轻量 facade：便于用户直接 import "factorkit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindReRank = pipeline.KindReRank
)
