package index

import (
	"testing"

	"github.com/rushteam/factorkit/core"
)

func TestFit_FrequencyOrdering(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want []string // 按下标顺序的键
	}{
		{
			name: "frequency descending",
			keys: []string{"a", "b", "b", "c", "c", "c"},
			want: []string{"c", "b", "a"},
		},
		{
			name: "ties broken by first appearance",
			keys: []string{"x", "y", "z"},
			want: []string{"x", "y", "z"},
		},
		{
			name: "mixed frequency and ties",
			keys: []string{"m", "n", "n", "o", "m"},
			want: []string{"m", "n", "o"},
		},
		{
			name: "single key repeated",
			keys: []string{"only", "only", "only"},
			want: []string{"only"},
		},
		{
			name: "empty corpus",
			keys: []string{},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Fit(tt.keys)
			if m.Len() != len(tt.want) {
				t.Fatalf("Len() = %d, want %d", m.Len(), len(tt.want))
			}
			got := m.Keys()
			for i, k := range tt.want {
				if got[i] != k {
					t.Errorf("Keys()[%d] = %q, want %q", i, got[i], k)
				}
			}
		})
	}
}

func TestFit_Deterministic(t *testing.T) {
	keys := []string{"a", "b", "a", "c", "b", "a", "d", "d"}
	m1 := Fit(keys)
	m2 := Fit(keys)

	k1, k2 := m1.Keys(), m2.Keys()
	for i := range k1 {
		if k1[i] != k2[i] {
			t.Fatalf("two fits over the same corpus diverge at %d: %q vs %q", i, k1[i], k2[i])
		}
	}
}

func TestMapping_RoundTrip(t *testing.T) {
	m := Fit([]string{"a", "b", "b", "c", "c", "c"})

	// Index 与 Key 必须构成双射
	for _, key := range m.Keys() {
		idx, ok := m.Index(key)
		if !ok {
			t.Fatalf("Index(%q) not found", key)
		}
		back, ok := m.Key(idx)
		if !ok || back != key {
			t.Errorf("Key(Index(%q)) = %q, want %q", key, back, key)
		}
	}

	if _, ok := m.Index("missing"); ok {
		t.Error("Index of unknown key should not be found")
	}
	if _, ok := m.Key(-1); ok {
		t.Error("Key(-1) should not be found")
	}
	if _, ok := m.Key(m.Len()); ok {
		t.Error("Key(Len()) should not be found")
	}
	if m.Sentinel() != m.Len() {
		t.Errorf("Sentinel() = %d, want Len() = %d", m.Sentinel(), m.Len())
	}
}

func TestMapping_Transform(t *testing.T) {
	m := Fit([]string{"a", "a", "b"}) // a→0, b→1

	tests := []struct {
		name    string
		keys    []string
		policy  Policy
		want    []int
		wantErr bool
	}{
		{
			name:   "all known keys",
			keys:   []string{"b", "a", "a"},
			policy: PolicyFail,
			want:   []int{1, 0, 0},
		},
		{
			name:   "keep maps unknown to sentinel",
			keys:   []string{"a", "zzz", "b"},
			policy: PolicyKeep,
			want:   []int{0, 2, 1},
		},
		{
			name:   "drop removes unknown",
			keys:   []string{"a", "zzz", "b"},
			policy: PolicyDrop,
			want:   []int{0, 1},
		},
		{
			name:    "fail returns error on unknown",
			keys:    []string{"a", "zzz"},
			policy:  PolicyFail,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Transform(tt.keys, tt.policy)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !core.IsUnknownKey(err) {
					t.Errorf("expected UNKNOWN_KEY error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Transform() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Transform() len = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Transform()[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestMapping_Apply(t *testing.T) {
	interactions := []core.Interaction{
		{UserID: 1, ItemKey: "a", Strength: 5},
		{UserID: 1, ItemKey: "b", Strength: 3},
		{UserID: 2, ItemKey: "unknown", Strength: 4},
	}
	m := Fit([]string{"a", "a", "b"}) // a→0, b→1

	t.Run("drop policy", func(t *testing.T) {
		triples, err := m.Apply(interactions, PolicyDrop)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if len(triples) != 2 {
			t.Fatalf("Apply() len = %d, want 2", len(triples))
		}
		want := []core.Triple{
			{UserID: 1, ItemIndex: 0, Strength: 5},
			{UserID: 1, ItemIndex: 1, Strength: 3},
		}
		for i := range want {
			if triples[i] != want[i] {
				t.Errorf("Apply()[%d] = %+v, want %+v", i, triples[i], want[i])
			}
		}
	})

	t.Run("keep policy uses sentinel", func(t *testing.T) {
		triples, err := m.Apply(interactions, PolicyKeep)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if len(triples) != 3 {
			t.Fatalf("Apply() len = %d, want 3", len(triples))
		}
		if triples[2].ItemIndex != m.Sentinel() {
			t.Errorf("unknown key index = %d, want sentinel %d", triples[2].ItemIndex, m.Sentinel())
		}
	})

	t.Run("fail policy", func(t *testing.T) {
		_, err := m.Apply(interactions, PolicyFail)
		if !core.IsUnknownKey(err) {
			t.Fatalf("expected UNKNOWN_KEY error, got %v", err)
		}
	})
}

func TestFitInteractions(t *testing.T) {
	interactions := []core.Interaction{
		{UserID: 1, ItemKey: "A", Strength: 5},
		{UserID: 1, ItemKey: "A", Strength: 4},
		{UserID: 2, ItemKey: "B", Strength: 3},
	}
	m := FitInteractions(interactions)
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
	if idx, _ := m.Index("A"); idx != 0 {
		t.Errorf("Index(A) = %d, want 0 (higher frequency)", idx)
	}
	if idx, _ := m.Index("B"); idx != 1 {
		t.Errorf("Index(B) = %d, want 1", idx)
	}
}
