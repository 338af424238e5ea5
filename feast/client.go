// Package feast 提供 Feast Feature Store 的在线特征客户端，以及把用户
// 隐向量当作在线特征读取的 core.FactorStore 适配器。
package feast

import (
	"context"
	"time"
)

// Client 是 Feast 在线特征服务的客户端接口。
//
// Feast 是一个开源的 Feature Store。在 FactorKit 中的用途：离线训练
// 任务把用户隐向量物化进 Feast 的在线存储后，在线召回通过此客户端
// 按 user_id 取回向量（见 FactorSource）。
//
// 参考：https://github.com/feast-dev/feast
type Client interface {
	// GetOnlineFeatures 获取在线特征（用于实时召回/预测）
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求
type GetOnlineFeaturesRequest struct {
	// Features 特征名称列表，例如 ["als_factors:user_vector"]
	Features []string

	// EntityRows 实体行，例如 [{"user_id": "1001"}]
	EntityRows []map[string]interface{}

	// Project 项目名称（可选，缺省用客户端配置的项目）
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应
type GetOnlineFeaturesResponse struct {
	// FeatureVectors 特征向量列表，每个元素对应一个实体行
	FeatureVectors []FeatureVector
}

// FeatureVector 单个实体行的特征值集合
type FeatureVector struct {
	// Values 特征值，key 为特征名称
	Values map[string]interface{}

	// EntityRow 对应的实体行
	EntityRow map[string]interface{}
}

// ClientConfig 客户端配置
type ClientConfig struct {
	Endpoint string
	Project  string
	Timeout  time.Duration
	Auth     *AuthConfig
}

// AuthConfig 认证配置
type AuthConfig struct {
	Type  string // "static"
	Token string
}

// ClientOption 客户端配置选项
type ClientOption func(*ClientConfig)

// WithTimeout 设置请求超时
func WithTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) { c.Timeout = d }
}

// WithStaticToken 使用静态 Token 认证
func WithStaticToken(token string) ClientOption {
	return func(c *ClientConfig) {
		c.Auth = &AuthConfig{Type: "static", Token: token}
	}
}
