// Package dsl 提供基于 CEL (Common Expression Language) 的规则求值，
// 用于 Label/分数驱动的过滤策略。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/factorkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Eval 是规则 DSL 解释器。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：label.recall_source == "factor"
//   - 数值：item.score > 0.7 / item.score >= 0.5
//   - 逻辑：label.recall_source == "precomputed" && item.score > 0.8
//   - 存在性：label.recall_source != null
//   - 包含：label.recall_source.contains("factor")
//
// 注意：CEL 访问不存在的 key 会报错，用 label.key != null 检查存在性。
type Eval struct {
	item *core.Item
	rctx *core.RecommendContext
	env  *cel.Env
}

// NewEval 创建一个新的 DSL 解释器。
func NewEval(item *core.Item, rctx *core.RecommendContext) *Eval {
	env, _ := getCELEnv()
	return &Eval{item: item, rctx: rctx, env: env}
}

// Evaluate 编译并执行 DSL 表达式，返回布尔结果。空表达式视为 true。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	if e.env == nil {
		return false, fmt.Errorf("dsl: cel env init failed")
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("dsl: compile error: %v", issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("dsl: program error: %v", err)
	}

	out, _, err := prg.Eval(e.buildInput())
	if err != nil {
		return false, fmt.Errorf("dsl: eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func (e *Eval) buildInput() map[string]any {
	item := map[string]any{}
	labelAccessor := map[string]any{}
	if e.item != nil {
		for k, v := range e.item.Labels {
			// label.recall_source 直接取 value
			labelAccessor[k] = v.Value
		}
		item = map[string]any{
			"id":    e.item.ID,
			"score": e.item.Score,
			"meta":  e.item.Meta,
		}
	}

	rctx := map[string]any{}
	if e.rctx != nil {
		rctx = map[string]any{
			"user_id": e.rctx.UserID,
			"scene":   e.rctx.Scene,
			"params":  e.rctx.Params,
		}
	}

	return map[string]any{
		"item":  item,
		"label": labelAccessor,
		"rctx":  rctx,
	}
}
