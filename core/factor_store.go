package core

import "context"

// FactorStore 是隐向量数据的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（recall、feast）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//
// 使用场景：
//   - 在线召回：用户隐向量 × 所有物品隐向量 → TopK
//   - 离线训练产出的隐向量通过 recall.Publish 写入 Store，再由
//     recall.StoreFactorAdapter 以此接口读出
//
// 实现：
//   - recall.StoreFactorAdapter（基于 core.Store）
//   - feast.FactorSource（基于 Feast 在线特征服务，仅用户向量）
type FactorStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// GetUserVector 获取用户的隐向量；不存在时返回空切片
	GetUserVector(ctx context.Context, userID string) ([]float64, error)

	// GetItemVector 获取物品的隐向量；不存在时返回空切片
	GetItemVector(ctx context.Context, itemKey string) ([]float64, error)

	// GetAllItemVectors 获取所有物品的隐向量（用于在线召回的全量打分）
	GetAllItemVectors(ctx context.Context) (map[string][]float64, error)

	// GetAllItemKeys 获取所有已发布物品键的列表
	GetAllItemKeys(ctx context.Context) ([]string, error)
}
