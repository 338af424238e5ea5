// Package builders 注册内置 Node 的配置构建器。
// 以空白导入触发注册：import _ "github.com/rushteam/factorkit/config/builders"
package builders

import (
	"fmt"
	"sync"
	"time"

	"github.com/rushteam/factorkit/config"
	"github.com/rushteam/factorkit/core"
	"github.com/rushteam/factorkit/filter"
	"github.com/rushteam/factorkit/pipeline"
	"github.com/rushteam/factorkit/pkg/conv"
	"github.com/rushteam/factorkit/recall"
	"github.com/rushteam/factorkit/rerank"
	"github.com/rushteam/factorkit/store"
)

func init() {
	config.Register("recall.factor", BuildFactorNode)
	config.Register("recall.precomputed", BuildPrecomputedNode)
	config.Register("recall.fanout", BuildFanoutNode)
	config.Register("filter", BuildFilterNode)
	config.Register("rerank.topn", BuildTopNNode)
}

var (
	defaultStore   core.KeyValueStore
	defaultStoreMu sync.RWMutex
)

// SetDefaultStore 注入配置驱动时召回/过滤节点共享的存储。
// node 配置里出现 `store: {backend: redis, addr: ...}` 时优先用配置构建，
// 否则回落到这里注入的实例。
func SetDefaultStore(s core.KeyValueStore) {
	defaultStoreMu.Lock()
	defer defaultStoreMu.Unlock()
	defaultStore = s
}

func resolveStore(cfg map[string]interface{}) (core.KeyValueStore, error) {
	if sc, ok := cfg["store"].(map[string]interface{}); ok {
		backend := conv.ConfigGet(sc, "backend", "")
		switch backend {
		case "redis":
			addr := conv.ConfigGet(sc, "addr", "localhost:6379")
			db := conv.ConfigGetInt(sc, "db", 0)
			return store.NewRedisStore(addr, db)
		case "memory":
			return store.NewMemoryStore(), nil
		default:
			return nil, fmt.Errorf("unknown store backend: %s", backend)
		}
	}

	defaultStoreMu.RLock()
	defer defaultStoreMu.RUnlock()
	if defaultStore == nil {
		return nil, fmt.Errorf("no store configured (set node config `store` or call builders.SetDefaultStore)")
	}
	return defaultStore, nil
}

func BuildFactorNode(cfg map[string]interface{}) (pipeline.Node, error) {
	s, err := resolveStore(cfg)
	if err != nil {
		return nil, err
	}
	prefix := conv.ConfigGet(cfg, "key_prefix", "factor")
	return &recall.FactorRecall{
		Store: recall.NewStoreFactorAdapter(s, prefix),
		TopK:  conv.ConfigGetInt(cfg, "top_k", 20),
	}, nil
}

func BuildPrecomputedNode(cfg map[string]interface{}) (pipeline.Node, error) {
	s, err := resolveStore(cfg)
	if err != nil {
		return nil, err
	}
	return &recall.PrecomputedRecall{
		Store:     s,
		KeyPrefix: conv.ConfigGet(cfg, "key_prefix", "factor"),
		TopK:      conv.ConfigGetInt(cfg, "top_k", 20),
	}, nil
}

func BuildFanoutNode(cfg map[string]interface{}) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}
	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]interface{})
		if !ok {
			continue
		}
		sourceType := conv.ConfigGet(sourceMap, "type", "")
		switch sourceType {
		case "factor":
			node, err := BuildFactorNode(sourceMap)
			if err != nil {
				return nil, err
			}
			sources = append(sources, node.(*recall.FactorRecall))
		case "precomputed":
			node, err := BuildPrecomputedNode(sourceMap)
			if err != nil {
				return nil, err
			}
			sources = append(sources, node.(*recall.PrecomputedRecall))
		default:
			return nil, fmt.Errorf("unknown source type: %s", sourceType)
		}
	}

	fanout := &recall.Fanout{
		Sources:       sources,
		Dedup:         conv.ConfigGet(cfg, "dedup", true),
		MergeStrategy: conv.ConfigGet(cfg, "merge_strategy", "first"),
	}
	if sec := conv.ConfigGetInt(cfg, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	if n := conv.ConfigGetInt(cfg, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = n
	}
	return fanout, nil
}

func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	node := &filter.FilterNode{}

	if keys := conv.SliceAnyToString(cfg["blacklist"]); len(keys) > 0 {
		node.Filters = append(node.Filters, filter.NewBlacklistFilter(keys))
	}
	if expr := conv.ConfigGet(cfg, "expr", ""); expr != "" {
		node.Filters = append(node.Filters, &filter.ExprFilter{Expr: expr})
	}
	if seen := conv.ConfigGet(cfg, "filter_seen", false); seen {
		s, err := resolveStore(cfg)
		if err != nil {
			return nil, err
		}
		prefix := conv.ConfigGet(cfg, "key_prefix", "factor")
		node.Filters = append(node.Filters, &filter.SeenFilter{
			Store: filter.NewStoreAdapter(s, prefix),
		})
	}
	return node, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
}
