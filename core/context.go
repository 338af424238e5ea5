package core

import "github.com/rushteam/factorkit/pkg/utils"

// RecommendContext 承载用户/场景/实时信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string // 使用 string 类型（通用，支持所有 ID 格式）
	Scene  string

	// UserVector 是请求侧直接携带的用户隐向量（可选）。
	// 不为空时召回节点优先使用它，避免一次存储读取。
	UserVector []float64

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数（query、device_type、realtime_* 等）
	Params map[string]any
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
