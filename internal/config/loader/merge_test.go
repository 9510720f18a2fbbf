package loader

import "testing"

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"markup": map[string]any{"open": "<secret>", "close": "</secret>"},
		"log":    map[string]any{"level": "info"},
	}
	src := map[string]any{
		"markup":  map[string]any{"open": "<hide>"},
		"log":     "flat",
		"plugins": map[string]any{"enabled": true},
	}

	got := DeepMerge(dst, src)

	markup := got["markup"].(map[string]any)
	if markup["open"] != "<hide>" || markup["close"] != "</secret>" {
		t.Errorf("markup = %v", markup)
	}
	if got["log"] != "flat" {
		t.Errorf("log = %v, want replaced by scalar", got["log"])
	}
	if got["plugins"].(map[string]any)["enabled"] != true {
		t.Errorf("plugins = %v", got["plugins"])
	}
}

func TestDeepMergeNil(t *testing.T) {
	if got := DeepMerge(nil, map[string]any{"a": 1}); got["a"] != 1 {
		t.Errorf("DeepMerge(nil, src) = %v", got)
	}
	dst := map[string]any{"a": 1}
	if got := DeepMerge(dst, nil); got["a"] != 1 {
		t.Errorf("DeepMerge(dst, nil) = %v", got)
	}
}

func TestClone(t *testing.T) {
	src := map[string]any{
		"m": map[string]any{"k": "v"},
		"l": []any{map[string]any{"x": 1}},
	}
	dst := Clone(src)

	dst["m"].(map[string]any)["k"] = "changed"
	dst["l"].([]any)[0].(map[string]any)["x"] = 2

	if src["m"].(map[string]any)["k"] != "v" {
		t.Error("Clone shares nested map")
	}
	if src["l"].([]any)[0].(map[string]any)["x"] != 1 {
		t.Error("Clone shares slice element")
	}
	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}
