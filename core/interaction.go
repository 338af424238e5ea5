package core

// Interaction 是一条原始交互信号：用户对某个外部物品键的一次行为。
//
// Strength 的语义由数据源决定：
//   - 显式反馈：评分（如 1~10）
//   - 隐式反馈：0 表示隐式信号（浏览/曝光），>0 表示带权重的行为
//
// 同一 (UserID, ItemKey) 允许出现多条记录，聚合策略由训练方决定
// （见 model.ALS 的文档：默认按输入顺序后写覆盖）。
type Interaction struct {
	UserID   int64
	ItemKey  string
	Strength float64
}

// Triple 是经过 Indexer 编号后的交互：物品键被映射为稠密下标。
// 矩阵分解只接受 Triple，不直接接受 Interaction。
type Triple struct {
	UserID    int64
	ItemIndex int
	Strength  float64
}

// Pair 是预测目标的 key：(用户, 物品下标)。
type Pair struct {
	UserID    int64
	ItemIndex int
}

// Prediction 是一条预测结果：用户隐向量与物品隐向量的点积。
type Prediction struct {
	UserID    int64
	ItemIndex int
	Score     float64
}
