package model

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/factorkit/core"
)

// ALS 是交替最小二乘（Alternating Least Squares）矩阵分解训练器。
//
// 核心思想：把用户×物品交互矩阵 R 分解为用户隐向量矩阵 X 和物品隐向量
// 矩阵 Y，预测分数 = x_u · y_i。交替固定一侧、对另一侧逐行求解岭回归的
// 闭式解，迭代 Iterations 轮。
//
// 两种形式：
//   - 显式（Implicit=false）：只在观测项上最小化
//     Σ_(u,i)∈观测 (r_ui − x_u·y_i)² + λ(Σ n_u‖x_u‖² + Σ n_i‖y_i‖²)
//     其中 n_u / n_i 为该行/列的观测数（按观测数加权的正则，ALS-WR）。
//   - 隐式（Implicit=true）：strength 不是要还原的目标，而是置信度权重：
//     c_ui = 1 + Alpha·strength，p_ui = 1（strength>0）或 0，最小化
//     Σ_u,i c_ui(p_ui − x_u·y_i)² + λ(Σ n_u‖x_u‖² + Σ n_i‖y_i‖²)。
//
// 工程特征：
//   - 同一半步内各行的求解相互独立，按 Parallelism 并发执行；
//     半步之间（X 更新与 Y 更新）有严格屏障，迭代之间串行。
//   - 固定 Seed 下训练完全可复现：隐向量按排序后的 ID 顺序初始化。
//   - 重复的 (user, item) 条目按输入顺序后写覆盖（last-write-wins）。
//
// 在 FactorKit 中的位置：
//   - 离线训练产出 Model，经 recall.Publish 写入 Store
//   - 在线由 recall.FactorRecall / recall.PrecomputedRecall 查表服务
type ALS struct {
	// Rank 隐向量维度（>=1）
	Rank int

	// Iterations 交替迭代轮数（>=1）
	Iterations int

	// Reg 正则化系数 λ（>=0），按行/列观测数加权
	Reg float64

	// Implicit 是否使用隐式反馈形式
	Implicit bool

	// Alpha 隐式形式的置信度系数：c = 1 + Alpha·strength。
	// 仅 Implicit=true 时生效；<=0 时取 1.0。
	Alpha float64

	// Seed 隐向量初始化的随机种子，固定后训练可复现
	Seed int64

	// Parallelism 每个半步内并发求解的 worker 数；<=0 时取 GOMAXPROCS
	Parallelism int
}

// ItemScore 是面向用户的 TopN 推荐条目。
type ItemScore struct {
	ItemIndex int
	Score     float64
}

// UserScore 是面向物品的 TopN 推荐条目。
type UserScore struct {
	UserID int64
	Score  float64
}

// Model 是训练完成的矩阵分解模型。Fit 返回后不可变：
// Predict / RecommendForUsers / RecommendForItems 都是只读操作，可并发调用。
type Model struct {
	rank        int
	userIDs     []int64           // 训练期间出现过的用户，升序
	itemIdxs    []int             // 训练期间出现过的物品下标，升序
	userFactors map[int64][]float64
	itemFactors map[int][]float64
	implicit    bool
	loss        []float64 // 每轮迭代结束时的目标函数值
}

// Fit 从带下标的交互三元组训练模型（Untrained → Trained 的唯一入口）。
// 每轮迭代开始前检查 ctx 是否已取消；不会打断进行中的半步求解。
func (a *ALS) Fit(ctx context.Context, triples []core.Triple) (*Model, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	if len(triples) == 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeEmptyTrainingSet,
			"model: training set is empty")
	}

	alpha := a.Alpha
	if alpha <= 0 {
		alpha = 1.0
	}
	workers := a.Parallelism
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// 构建稀疏矩阵的行视图与列视图，重复条目后写覆盖
	userRows := make(map[int64]map[int]float64)
	for _, t := range triples {
		row := userRows[t.UserID]
		if row == nil {
			row = make(map[int]float64)
			userRows[t.UserID] = row
		}
		row[t.ItemIndex] = t.Strength
	}
	itemCols := make(map[int]map[int64]float64)
	for uid, row := range userRows {
		for idx, s := range row {
			col := itemCols[idx]
			if col == nil {
				col = make(map[int64]float64)
				itemCols[idx] = col
			}
			col[uid] = s
		}
	}

	m := &Model{
		rank:        a.Rank,
		userIDs:     sortedUserIDs(userRows),
		itemIdxs:    sortedItemIdxs(itemCols),
		userFactors: make(map[int64][]float64, len(userRows)),
		itemFactors: make(map[int][]float64, len(itemCols)),
		implicit:    a.Implicit,
	}

	// 确定性初始化：按升序 ID 依次从同一个 rng 取数
	rng := rand.New(rand.NewSource(a.Seed))
	for _, uid := range m.userIDs {
		m.userFactors[uid] = randomVector(rng, a.Rank)
	}
	for _, idx := range m.itemIdxs {
		m.itemFactors[idx] = randomVector(rng, a.Rank)
	}

	// 行视图/列视图转为按下标排序的稀疏条目，保证求解与打分顺序确定
	userEntries := make(map[int64][]itemEntry, len(userRows))
	for uid, row := range userRows {
		userEntries[uid] = sortRow(row)
	}
	itemEntries := make(map[int][]userEntry, len(itemCols))
	for idx, col := range itemCols {
		itemEntries[idx] = sortCol(col)
	}

	for iter := 0; iter < a.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// 半步 1：固定 Y，逐用户求解 X
		if err := a.solveUsers(ctx, m, userEntries, alpha, workers); err != nil {
			return nil, err
		}
		// 半步 2：固定 X，逐物品求解 Y
		if err := a.solveItems(ctx, m, itemEntries, alpha, workers); err != nil {
			return nil, err
		}

		m.loss = append(m.loss, a.objective(m, userEntries, alpha))
	}

	return m, nil
}

func (a *ALS) validate() error {
	switch {
	case a.Rank < 1:
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidHyperparameter,
			fmt.Sprintf("model: rank must be >= 1, got %d", a.Rank))
	case a.Iterations < 1:
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidHyperparameter,
			fmt.Sprintf("model: iterations must be >= 1, got %d", a.Iterations))
	case a.Reg < 0:
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidHyperparameter,
			fmt.Sprintf("model: regularization must be >= 0, got %g", a.Reg))
	}
	return nil
}

type itemEntry struct {
	idx      int
	strength float64
}

type userEntry struct {
	uid      int64
	strength float64
}

func sortRow(row map[int]float64) []itemEntry {
	out := make([]itemEntry, 0, len(row))
	for idx, s := range row {
		out = append(out, itemEntry{idx: idx, strength: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].idx < out[j].idx })
	return out
}

func sortCol(col map[int64]float64) []userEntry {
	out := make([]userEntry, 0, len(col))
	for uid, s := range col {
		out = append(out, userEntry{uid: uid, strength: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].uid < out[j].uid })
	return out
}

func sortedUserIDs(rows map[int64]map[int]float64) []int64 {
	out := make([]int64, 0, len(rows))
	for uid := range rows {
		out = append(out, uid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedItemIdxs(cols map[int]map[int64]float64) []int {
	out := make([]int, 0, len(cols))
	for idx := range cols {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

func randomVector(rng *rand.Rand, rank int) []float64 {
	v := make([]float64, rank)
	for i := range v {
		v[i] = rng.Float64() * 0.1
	}
	return v
}

// solveUsers 固定物品矩阵，逐用户求解岭回归。各用户写入各自的 factor
// 槽位，互不相交，可安全并发。
func (a *ALS) solveUsers(ctx context.Context, m *Model, userEntries map[int64][]itemEntry, alpha float64, workers int) error {
	var gram [][]float64
	if a.Implicit {
		gram = gramMatrix(m.itemFactors, m.itemIdxs, a.Rank)
	}

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for _, uid := range m.userIDs {
		uid := uid
		entries := userEntries[uid]
		eg.Go(func() error {
			vecs := make([][]float64, len(entries))
			strengths := make([]float64, len(entries))
			for i, e := range entries {
				vecs[i] = m.itemFactors[e.idx]
				strengths[i] = e.strength
			}
			x, err := a.solveOne(vecs, strengths, gram, alpha)
			if err != nil {
				return err
			}
			// 写入预分配的向量槽位而不是 map：并发只读 map + 写互不相交的
			// 切片内容是安全的，并发写 map 不是
			copy(m.userFactors[uid], x)
			return nil
		})
	}
	return eg.Wait()
}

// solveItems 是 solveUsers 的对称半步：固定用户矩阵，逐物品求解。
func (a *ALS) solveItems(ctx context.Context, m *Model, itemEntries map[int][]userEntry, alpha float64, workers int) error {
	var gram [][]float64
	if a.Implicit {
		gram = gramMatrixUsers(m.userFactors, m.userIDs, a.Rank)
	}

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for _, idx := range m.itemIdxs {
		idx := idx
		entries := itemEntries[idx]
		eg.Go(func() error {
			vecs := make([][]float64, len(entries))
			strengths := make([]float64, len(entries))
			for i, e := range entries {
				vecs[i] = m.userFactors[e.uid]
				strengths[i] = e.strength
			}
			y, err := a.solveOne(vecs, strengths, gram, alpha)
			if err != nil {
				return err
			}
			copy(m.itemFactors[idx], y)
			return nil
		})
	}
	return eg.Wait()
}

// solveOne 对单行（单个用户或单个物品）求解正规方程 A·w = b：
//
//	显式：A = Σ v vᵀ + λ·n·I            b = Σ r·v
//	隐式：A = VᵀV + Σ (c−1) v vᵀ + λ·n·I b = Σ c·p·v
//
// 其中 n 为该行观测数，VᵀV 为对侧矩阵的 Gram 矩阵（gram 参数，半步内共享）。
func (a *ALS) solveOne(vecs [][]float64, strengths []float64, gram [][]float64, alpha float64) ([]float64, error) {
	k := a.Rank
	A := newMatrix(k)
	b := make([]float64, k)

	if a.Implicit {
		for i := range A {
			copy(A[i], gram[i])
		}
		for n, v := range vecs {
			s := strengths[n]
			conf := 1 + alpha*s
			if s > 0 {
				for i := 0; i < k; i++ {
					b[i] += conf * v[i]
				}
			}
			// c−1 = alpha·s，s=0 的条目对 A 没有额外贡献
			w := alpha * s
			if w != 0 {
				for i := 0; i < k; i++ {
					for j := 0; j < k; j++ {
						A[i][j] += w * v[i] * v[j]
					}
				}
			}
		}
	} else {
		for n, v := range vecs {
			r := strengths[n]
			for i := 0; i < k; i++ {
				b[i] += r * v[i]
				for j := 0; j < k; j++ {
					A[i][j] += v[i] * v[j]
				}
			}
		}
	}

	lambda := a.Reg * float64(len(vecs))
	for i := 0; i < k; i++ {
		A[i][i] += lambda
	}

	return solveLinear(A, b)
}

// objective 计算当前因子下的全局目标函数值（含正则项），用于收敛观测。
// 隐式形式利用 x·G·x 技巧避免遍历全部 user×item 组合。
func (a *ALS) objective(m *Model, userEntries map[int64][]itemEntry, alpha float64) float64 {
	var loss float64

	if a.Implicit {
		gram := gramMatrix(m.itemFactors, m.itemIdxs, a.Rank)
		for _, uid := range m.userIDs {
			x := m.userFactors[uid]
			// Σ_i (x·y_i)²  —— 未观测项按 c=1, p=0 计入
			loss += quadForm(gram, x)
			for _, e := range userEntries[uid] {
				d := dot(x, m.itemFactors[e.idx])
				conf := 1 + alpha*e.strength
				p := 0.0
				if e.strength > 0 {
					p = 1.0
				}
				// 把该观测项从"未观测"修正为带置信度的项
				loss += conf*(p-d)*(p-d) - d*d
			}
		}
	} else {
		for _, uid := range m.userIDs {
			x := m.userFactors[uid]
			for _, e := range userEntries[uid] {
				d := e.strength - dot(x, m.itemFactors[e.idx])
				loss += d * d
			}
		}
	}

	for _, uid := range m.userIDs {
		loss += a.Reg * float64(len(userEntries[uid])) * sumSquares(m.userFactors[uid])
	}
	itemCounts := make(map[int]int)
	for _, uid := range m.userIDs {
		for _, e := range userEntries[uid] {
			itemCounts[e.idx]++
		}
	}
	for idx, cnt := range itemCounts {
		loss += a.Reg * float64(cnt) * sumSquares(m.itemFactors[idx])
	}
	return loss
}

// Rank 返回隐向量维度。
func (m *Model) Rank() int { return m.rank }

// Implicit 返回模型是否由隐式反馈形式训练。
func (m *Model) Implicit() bool { return m.implicit }

// LossHistory 返回每轮迭代结束时的目标函数值（副本）。
// 调用方可据此做收敛判断：相邻两轮变化足够小时停止追加迭代。
func (m *Model) LossHistory() []float64 {
	out := make([]float64, len(m.loss))
	copy(out, m.loss)
	return out
}

// Users 返回训练期间出现过的全部用户 ID，升序（副本）。
func (m *Model) Users() []int64 {
	out := make([]int64, len(m.userIDs))
	copy(out, m.userIDs)
	return out
}

// Items 返回训练期间出现过的全部物品下标，升序（副本）。
func (m *Model) Items() []int {
	out := make([]int, len(m.itemIdxs))
	copy(out, m.itemIdxs)
	return out
}

// UserFactor 返回用户的隐向量（副本）。
func (m *Model) UserFactor(userID int64) ([]float64, bool) {
	v, ok := m.userFactors[userID]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out, true
}

// ItemFactor 返回物品的隐向量（副本）。
func (m *Model) ItemFactor(itemIndex int) ([]float64, bool) {
	v, ok := m.itemFactors[itemIndex]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out, true
}

// Predict 对 (用户, 物品下标) 对逐一打分。
//
// 冷启动策略为 drop：用户 ID 或物品下标在训练期间未出现时，该 pair 被
// 直接从输出中剔除（而不是输出 NaN），因此 len(输出) <= len(输入)，
// 差值即冷启动 pair 数。注意 drop 只看单侧是否见过：已知用户 × 已知
// 物品的组合即使训练时没有共同出现过，也是合法的预测目标。
func (m *Model) Predict(pairs []core.Pair) []core.Prediction {
	out := make([]core.Prediction, 0, len(pairs))
	for _, p := range pairs {
		x, ok := m.userFactors[p.UserID]
		if !ok {
			continue
		}
		y, ok := m.itemFactors[p.ItemIndex]
		if !ok {
			continue
		}
		out = append(out, core.Prediction{
			UserID:    p.UserID,
			ItemIndex: p.ItemIndex,
			Score:     dot(x, y),
		})
	}
	return out
}

// RecommendForUsers 为每个用户计算 TopN 物品：分数降序，同分按物品下标
// 升序。users 为空时覆盖全部训练用户；未见过的用户被跳过。
func (m *Model) RecommendForUsers(n int, users ...int64) (map[int64][]ItemScore, error) {
	if n < 1 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidN,
			fmt.Sprintf("model: n must be >= 1, got %d", n))
	}
	if len(users) == 0 {
		users = m.userIDs
	}

	out := make(map[int64][]ItemScore, len(users))
	for _, uid := range users {
		x, ok := m.userFactors[uid]
		if !ok {
			continue
		}
		scores := make([]ItemScore, 0, len(m.itemIdxs))
		for _, idx := range m.itemIdxs {
			scores = append(scores, ItemScore{ItemIndex: idx, Score: dot(x, m.itemFactors[idx])})
		}
		sort.Slice(scores, func(i, j int) bool {
			if scores[i].Score != scores[j].Score {
				return scores[i].Score > scores[j].Score
			}
			return scores[i].ItemIndex < scores[j].ItemIndex
		})
		if len(scores) > n {
			scores = scores[:n]
		}
		out[uid] = scores
	}
	return out, nil
}

// RecommendForItems 是 RecommendForUsers 的对称操作：为每个物品计算
// TopN 用户，同分按用户 ID 升序。
func (m *Model) RecommendForItems(n int, items ...int) (map[int][]UserScore, error) {
	if n < 1 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidN,
			fmt.Sprintf("model: n must be >= 1, got %d", n))
	}
	if len(items) == 0 {
		items = m.itemIdxs
	}

	out := make(map[int][]UserScore, len(items))
	for _, idx := range items {
		y, ok := m.itemFactors[idx]
		if !ok {
			continue
		}
		scores := make([]UserScore, 0, len(m.userIDs))
		for _, uid := range m.userIDs {
			scores = append(scores, UserScore{UserID: uid, Score: dot(m.userFactors[uid], y)})
		}
		sort.Slice(scores, func(i, j int) bool {
			if scores[i].Score != scores[j].Score {
				return scores[i].Score > scores[j].Score
			}
			return scores[i].UserID < scores[j].UserID
		})
		if len(scores) > n {
			scores = scores[:n]
		}
		out[idx] = scores
	}
	return out, nil
}
