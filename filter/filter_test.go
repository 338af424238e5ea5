package filter

import (
	"context"
	"testing"

	"github.com/rushteam/factorkit/core"
	"github.com/rushteam/factorkit/pkg/utils"
	"github.com/rushteam/factorkit/store"
)

func TestSeenFilter(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()

	interactions := []core.Interaction{
		{UserID: 1, ItemKey: "A", Strength: 5},
		{UserID: 1, ItemKey: "B", Strength: 3},
		{UserID: 1, ItemKey: "A", Strength: 4}, // 重复交互只记一次
		{UserID: 2, ItemKey: "C", Strength: 2},
	}
	if err := PublishSeen(ctx, s, "factor", interactions); err != nil {
		t.Fatalf("PublishSeen() error = %v", err)
	}

	adapter := NewStoreAdapter(s, "factor")
	seen, err := adapter.GetSeenItems(ctx, "1")
	if err != nil {
		t.Fatalf("GetSeenItems() error = %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("GetSeenItems(1) = %v, want [A B]", seen)
	}

	// 无历史的用户返回空列表
	none, err := adapter.GetSeenItems(ctx, "999")
	if err != nil {
		t.Fatalf("GetSeenItems(999) error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("GetSeenItems(999) = %v, want empty", none)
	}

	f := &SeenFilter{Store: adapter}
	rctx := &core.RecommendContext{UserID: "1"}

	tests := []struct {
		itemKey string
		want    bool
	}{
		{"A", true},
		{"B", true},
		{"C", false}, // 用户 2 的历史，不影响用户 1
		{"D", false},
	}
	for _, tt := range tests {
		got, err := f.ShouldFilter(ctx, rctx, core.NewItem(tt.itemKey))
		if err != nil {
			t.Fatalf("ShouldFilter(%q) error = %v", tt.itemKey, err)
		}
		if got != tt.want {
			t.Errorf("ShouldFilter(%q) = %v, want %v", tt.itemKey, got, tt.want)
		}
	}

	// 无 Store 时放行
	empty := &SeenFilter{}
	if got, _ := empty.ShouldFilter(ctx, rctx, core.NewItem("A")); got {
		t.Error("SeenFilter without store should not filter")
	}
}

func TestBlacklistFilter(t *testing.T) {
	ctx := context.Background()
	f := NewBlacklistFilter([]string{"banned1", "banned2"})

	if got, _ := f.ShouldFilter(ctx, nil, core.NewItem("banned1")); !got {
		t.Error("ShouldFilter(banned1) = false, want true")
	}
	if got, _ := f.ShouldFilter(ctx, nil, core.NewItem("ok")); got {
		t.Error("ShouldFilter(ok) = true, want false")
	}
	if got, _ := f.ShouldFilter(ctx, nil, nil); got {
		t.Error("ShouldFilter(nil) = true, want false")
	}
}

func TestExprFilter(t *testing.T) {
	ctx := context.Background()

	item := core.NewItem("x")
	item.Score = 0.05
	item.PutLabel("recall_source", utils.Label{Value: "factor", Source: "recall"})
	rctx := &core.RecommendContext{UserID: "1", Scene: "home"}

	tests := []struct {
		name    string
		expr    string
		want    bool
		wantErr bool
	}{
		{name: "empty expr filters nothing", expr: "", want: false},
		{name: "score threshold hits", expr: "item.score < 0.1", want: true},
		{name: "score threshold misses", expr: "item.score > 0.5", want: false},
		{name: "label match", expr: `label.recall_source == "factor"`, want: true},
		{name: "combined", expr: `label.recall_source == "factor" && item.score < 0.1`, want: true},
		{name: "rctx scene", expr: `rctx.scene == "home"`, want: true},
		{name: "compile error", expr: "item.score <", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &ExprFilter{Expr: tt.expr}
			got, err := f.ShouldFilter(ctx, rctx, item)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ShouldFilter() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterNode(t *testing.T) {
	ctx := context.Background()
	rctx := &core.RecommendContext{UserID: "1"}

	items := []*core.Item{
		core.NewItem("keep"),
		core.NewItem("banned"),
		nil, // nil 物品直接丢弃
		core.NewItem("keep2"),
	}

	node := &FilterNode{
		Filters: []Filter{NewBlacklistFilter([]string{"banned"})},
	}
	out, err := node.Process(ctx, rctx, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Process() returned %d items, want 2", len(out))
	}
	if out[0].ID != "keep" || out[1].ID != "keep2" {
		t.Errorf("Process() kept %q and %q, want keep and keep2", out[0].ID, out[1].ID)
	}

	// 无过滤器时原样返回
	passthrough := &FilterNode{}
	out, err = passthrough.Process(ctx, rctx, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != len(items) {
		t.Errorf("Process() without filters returned %d items, want %d", len(out), len(items))
	}
}
