package builders

import (
	"context"
	"testing"

	"github.com/rushteam/factorkit/config"
	"github.com/rushteam/factorkit/core"
	"github.com/rushteam/factorkit/filter"
	"github.com/rushteam/factorkit/index"
	"github.com/rushteam/factorkit/model"
	"github.com/rushteam/factorkit/pipeline"
	"github.com/rushteam/factorkit/recall"
	"github.com/rushteam/factorkit/store"
)

func TestRegisteredTypes(t *testing.T) {
	want := []string{"filter", "recall.factor", "recall.fanout", "recall.precomputed", "rerank.topn"}
	got := config.SupportedTypes()
	for _, w := range want {
		found := false
		for _, g := range got {
			if g == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("type %q not registered (got %v)", w, got)
		}
	}
}

// TestPipelineFromYAML 端到端：离线训练 → 发布 → 配置驱动的在线召回。
func TestPipelineFromYAML(t *testing.T) {
	ctx := context.Background()

	interactions := []core.Interaction{
		{UserID: 1, ItemKey: "A", Strength: 5},
		{UserID: 1, ItemKey: "B", Strength: 3},
		{UserID: 2, ItemKey: "A", Strength: 4},
		{UserID: 2, ItemKey: "C", Strength: 2},
	}
	mapping := index.FitInteractions(interactions)
	triples, err := mapping.Apply(interactions, index.PolicyFail)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	als := &model.ALS{Rank: 2, Iterations: 10, Reg: 0.05, Seed: 42}
	m, err := als.Fit(ctx, triples)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	s := store.NewMemoryStore()
	defer s.Close()
	if err := recall.Publish(ctx, s, "factor", m, mapping); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := filter.PublishSeen(ctx, s, "factor", interactions); err != nil {
		t.Fatalf("PublishSeen() error = %v", err)
	}
	SetDefaultStore(s)

	data := []byte(`
pipeline:
  name: homepage
  nodes:
    - type: recall.factor
      config:
        top_k: 10
        key_prefix: factor
    - type: filter
      config:
        filter_seen: true
        key_prefix: factor
    - type: rerank.topn
      config:
        n: 5
`)
	cfg, err := pipeline.ParseYAML(data)
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	if err := config.ValidatePipelineConfig(cfg); err != nil {
		t.Fatalf("ValidatePipelineConfig() error = %v", err)
	}
	p, err := cfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}

	// 用户 1 已交互过 A/B，过滤后只剩 C
	items, err := p.Run(ctx, &core.RecommendContext{UserID: "1"}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "C" {
		t.Fatalf("Run() = %v, want single unseen item C", items)
	}
}

func TestValidatePipelineConfig_Unknown(t *testing.T) {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "nosuch.node"}}
	if err := config.ValidatePipelineConfig(cfg); err == nil {
		t.Error("expected error for unknown node type")
	}
}

func TestBuildFilterNode_Blacklist(t *testing.T) {
	node, err := BuildFilterNode(map[string]interface{}{
		"blacklist": []interface{}{"bad1", "bad2"},
	})
	if err != nil {
		t.Fatalf("BuildFilterNode() error = %v", err)
	}

	items := []*core.Item{core.NewItem("bad1"), core.NewItem("ok")}
	out, err := node.Process(context.Background(), &core.RecommendContext{UserID: "1"}, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "ok" {
		t.Errorf("Process() = %v, want [ok]", out)
	}
}

func TestBuildFanoutNode(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()
	SetDefaultStore(s)

	node, err := BuildFanoutNode(map[string]interface{}{
		"sources": []interface{}{
			map[string]interface{}{"type": "factor"},
			map[string]interface{}{"type": "precomputed"},
		},
		"merge_strategy": "priority",
		"max_concurrent": 2,
	})
	if err != nil {
		t.Fatalf("BuildFanoutNode() error = %v", err)
	}
	fanout, ok := node.(*recall.Fanout)
	if !ok {
		t.Fatalf("node type = %T, want *recall.Fanout", node)
	}
	if len(fanout.Sources) != 2 {
		t.Errorf("sources = %d, want 2", len(fanout.Sources))
	}
	if fanout.MergeStrategy != "priority" {
		t.Errorf("merge strategy = %q, want priority", fanout.MergeStrategy)
	}

	if _, err := BuildFanoutNode(map[string]interface{}{}); err == nil {
		t.Error("BuildFanoutNode() without sources should fail")
	}
}
