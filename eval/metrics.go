// Package eval 提供预测结果与留出真值之间的回归类误差指标。
package eval

import (
	"math"

	"github.com/rushteam/factorkit/core"
)

// RMSE 计算均方根误差：对每条 key 存在于 actuals 中的预测累计平方误差，
// 返回 sqrt(平方误差均值)。
//
// 交集为空时返回 NO_MATCHED_PAIRS —— 上游 Predict 的冷启动 drop 策略
// 就是为了避免把未定义的预测（NaN）带到这里，而不是在这里求均值时炸掉。
func RMSE(predictions []core.Prediction, actuals map[core.Pair]float64) (float64, error) {
	sum, n := matchedSquaredError(predictions, actuals)
	if n == 0 {
		return 0, core.NewDomainError(core.ModuleEval, core.ErrorCodeNoMatchedPairs,
			"eval: no prediction matches any actual pair")
	}
	return math.Sqrt(sum / float64(n)), nil
}

// MSE 是 RMSE 去掉开方的版本，契约相同。
func MSE(predictions []core.Prediction, actuals map[core.Pair]float64) (float64, error) {
	sum, n := matchedSquaredError(predictions, actuals)
	if n == 0 {
		return 0, core.NewDomainError(core.ModuleEval, core.ErrorCodeNoMatchedPairs,
			"eval: no prediction matches any actual pair")
	}
	return sum / float64(n), nil
}

// MAE 计算匹配对上的平均绝对误差，契约与 RMSE 相同。
func MAE(predictions []core.Prediction, actuals map[core.Pair]float64) (float64, error) {
	var sum float64
	n := 0
	for _, p := range predictions {
		actual, ok := actuals[core.Pair{UserID: p.UserID, ItemIndex: p.ItemIndex}]
		if !ok {
			continue
		}
		sum += math.Abs(actual - p.Score)
		n++
	}
	if n == 0 {
		return 0, core.NewDomainError(core.ModuleEval, core.ErrorCodeNoMatchedPairs,
			"eval: no prediction matches any actual pair")
	}
	return sum / float64(n), nil
}

func matchedSquaredError(predictions []core.Prediction, actuals map[core.Pair]float64) (float64, int) {
	var sum float64
	n := 0
	for _, p := range predictions {
		actual, ok := actuals[core.Pair{UserID: p.UserID, ItemIndex: p.ItemIndex}]
		if !ok {
			continue
		}
		d := actual - p.Score
		sum += d * d
		n++
	}
	return sum, n
}
