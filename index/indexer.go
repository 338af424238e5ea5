// Package index 把稀疏的外部物品键（string）映射为矩阵分解所需的
// 稠密连续整数下标（0 起始）。
package index

import (
	"fmt"
	"sort"

	"github.com/rushteam/factorkit/core"
)

// Policy 决定 Transform/Apply 遇到映射外的键时的行为。
type Policy int

const (
	// PolicyKeep 保留未知键，统一映射到哨兵下标 Mapping.Sentinel()（默认）。
	// 未知物品按删失数据处理，隐向量表中没有哨兵下标对应的向量。
	PolicyKeep Policy = iota

	// PolicyDrop 丢弃未知键对应的记录。
	PolicyDrop

	// PolicyFail 遇到未知键立即返回 UNKNOWN_KEY 错误。
	PolicyFail
)

// Mapping 是物品键与稠密下标之间的双射，由 Fit 一次性构建后不可变。
//
// 编号规则：按键在语料中的出现次数降序分配下标（高频物品下标小），
// 次数相同时按首次出现顺序。规则是确定性的：同一份输入永远得到同一份映射。
type Mapping struct {
	keyToIndex map[string]int
	indexToKey []string
}

// Fit 扫描键语料并构建 Mapping。不修改输入。
func Fit(keys []string) *Mapping {
	counts := make(map[string]int, len(keys))
	firstSeen := make(map[string]int, len(keys))
	order := make([]string, 0, len(keys))

	for i, k := range keys {
		if _, ok := counts[k]; !ok {
			firstSeen[k] = i
			order = append(order, k)
		}
		counts[k]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		ci, cj := counts[order[i]], counts[order[j]]
		if ci != cj {
			return ci > cj
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	m := &Mapping{
		keyToIndex: make(map[string]int, len(order)),
		indexToKey: order,
	}
	for idx, k := range order {
		m.keyToIndex[k] = idx
	}
	return m
}

// Len 返回映射中的键数量。
func (m *Mapping) Len() int {
	return len(m.indexToKey)
}

// Sentinel 返回未知键的哨兵下标（PolicyKeep 时使用），即 Len()。
func (m *Mapping) Sentinel() int {
	return len(m.indexToKey)
}

// Index 查找键对应的下标。
func (m *Mapping) Index(key string) (int, bool) {
	idx, ok := m.keyToIndex[key]
	return idx, ok
}

// Key 查找下标对应的键（Index 的逆）。
func (m *Mapping) Key(index int) (string, bool) {
	if index < 0 || index >= len(m.indexToKey) {
		return "", false
	}
	return m.indexToKey[index], true
}

// Keys 返回按下标顺序排列的所有键。返回的是副本，调用方可自由修改。
func (m *Mapping) Keys() []string {
	out := make([]string, len(m.indexToKey))
	copy(out, m.indexToKey)
	return out
}

// Transform 把键序列映射为下标序列，未知键按 policy 处理。
// PolicyDrop 时输出长度可能小于输入长度。不修改输入。
func (m *Mapping) Transform(keys []string, policy Policy) ([]int, error) {
	out := make([]int, 0, len(keys))
	for _, k := range keys {
		idx, ok := m.keyToIndex[k]
		if !ok {
			switch policy {
			case PolicyDrop:
				continue
			case PolicyFail:
				return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeUnknownKey,
					fmt.Sprintf("index: unknown key %q", k))
			default:
				idx = m.Sentinel()
			}
		}
		out = append(out, idx)
	}
	return out, nil
}

// Apply 把原始交互批量转换为带下标的 Triple，未知物品键按 policy 处理。
// 训练前的标准入口：通常配合 PolicyDrop 使用，丢掉映射外的物品。
func (m *Mapping) Apply(interactions []core.Interaction, policy Policy) ([]core.Triple, error) {
	out := make([]core.Triple, 0, len(interactions))
	for _, in := range interactions {
		idx, ok := m.keyToIndex[in.ItemKey]
		if !ok {
			switch policy {
			case PolicyDrop:
				continue
			case PolicyFail:
				return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeUnknownKey,
					fmt.Sprintf("index: unknown key %q", in.ItemKey))
			default:
				idx = m.Sentinel()
			}
		}
		out = append(out, core.Triple{UserID: in.UserID, ItemIndex: idx, Strength: in.Strength})
	}
	return out, nil
}

// FitInteractions 直接从交互语料构建 Mapping（以 ItemKey 为键）。
func FitInteractions(interactions []core.Interaction) *Mapping {
	keys := make([]string, len(interactions))
	for i, in := range interactions {
		keys[i] = in.ItemKey
	}
	return Fit(keys)
}
