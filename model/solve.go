package model

import (
	"math"

	"github.com/rushteam/factorkit/core"
)

// 本文件是 ALS 用到的小规模稠密线性代数：rank×rank 的正规方程求解与
// Gram 矩阵。rank 通常在 10~100 量级，直接高斯消元即可。

func newMatrix(k int) [][]float64 {
	m := make([][]float64, k)
	for i := range m {
		m[i] = make([]float64, k)
	}
	return m
}

// solveLinear 用列主元高斯消元求解 A·x = b。A 和 b 会被就地修改。
// A 接近奇异时返回 INVALID_INPUT（正则 λ>0 时不会发生）。
func solveLinear(A [][]float64, b []float64) ([]float64, error) {
	k := len(b)

	for col := 0; col < k; col++ {
		// 选列主元
		pivot := col
		maxAbs := math.Abs(A[col][col])
		for row := col + 1; row < k; row++ {
			if abs := math.Abs(A[row][col]); abs > maxAbs {
				maxAbs = abs
				pivot = row
			}
		}
		if maxAbs < 1e-12 {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
				"model: singular normal equations (try regularization > 0)")
		}
		if pivot != col {
			A[col], A[pivot] = A[pivot], A[col]
			b[col], b[pivot] = b[pivot], b[col]
		}

		// 消元
		for row := col + 1; row < k; row++ {
			f := A[row][col] / A[col][col]
			if f == 0 {
				continue
			}
			for j := col; j < k; j++ {
				A[row][j] -= f * A[col][j]
			}
			b[row] -= f * b[col]
		}
	}

	// 回代
	x := make([]float64, k)
	for i := k - 1; i >= 0; i-- {
		sum := b[i]
		for j := i + 1; j < k; j++ {
			sum -= A[i][j] * x[j]
		}
		x[i] = sum / A[i][i]
	}
	return x, nil
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func sumSquares(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return sum
}

// gramMatrix 计算物品矩阵的 Gram 矩阵 YᵀY（隐式形式每个半步共享一份）。
func gramMatrix(factors map[int][]float64, idxs []int, k int) [][]float64 {
	g := newMatrix(k)
	for _, idx := range idxs {
		v := factors[idx]
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				g[i][j] += v[i] * v[j]
			}
		}
	}
	return g
}

// gramMatrixUsers 计算用户矩阵的 Gram 矩阵 XᵀX。
func gramMatrixUsers(factors map[int64][]float64, ids []int64, k int) [][]float64 {
	g := newMatrix(k)
	for _, uid := range ids {
		v := factors[uid]
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				g[i][j] += v[i] * v[j]
			}
		}
	}
	return g
}

// quadForm 计算二次型 xᵀGx。
func quadForm(g [][]float64, x []float64) float64 {
	var sum float64
	for i := range x {
		row := g[i]
		for j := range x {
			sum += x[i] * row[j] * x[j]
		}
	}
	return sum
}
