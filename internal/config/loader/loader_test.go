package loader

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *MemFS) Stat(path string) (fs.FileInfo, error) {
	if _, ok := m.files[path]; ok {
		return &memFileInfo{name: path}, nil
	}
	return nil, fs.ErrNotExist
}

type memFileInfo struct {
	name string
}

func (f *memFileInfo) Name() string       { return f.name }
func (f *memFileInfo) Size() int64        { return 0 }
func (f *memFileInfo) Mode() fs.FileMode  { return 0644 }
func (f *memFileInfo) ModTime() time.Time { return time.Now() }
func (f *memFileInfo) IsDir() bool        { return false }
func (f *memFileInfo) Sys() any           { return nil }

func TestForPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"/etc/veil/config.toml", "toml", false},
		{"config.TOML", "toml", false},
		{"config.yaml", "yaml", false},
		{"config.yml", "yaml", false},
		{"config.json", "", true},
		{"config", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			l, err := ForPath(NewMemFS(), tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("error = %v, want ErrUnsupportedFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			var got string
			switch l.(type) {
			case *TOMLLoader:
				got = "toml"
			case *YAMLLoader:
				got = "yaml"
			}
			if got != tt.want {
				t.Errorf("loader = %T, want %s", l, tt.want)
			}
		})
	}
}

func TestTOMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/config.toml", `
[markup]
open = "<hide>"
close = "</hide>"

[plugins]
enabled = true
timeout = "500ms"
`)

	config, err := NewTOMLLoaderWithFS(memfs, "/config.toml").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	markup, ok := config["markup"].(map[string]any)
	if !ok {
		t.Fatal("expected markup to be a map")
	}
	if markup["open"] != "<hide>" || markup["close"] != "</hide>" {
		t.Errorf("markup = %v", markup)
	}
	plugins := config["plugins"].(map[string]any)
	if plugins["enabled"] != true || plugins["timeout"] != "500ms" {
		t.Errorf("plugins = %v", plugins)
	}
}

func TestTOMLLoader_Missing(t *testing.T) {
	config, err := NewTOMLLoaderWithFS(NewMemFS(), "/none.toml").Load()
	if err != nil || config != nil {
		t.Errorf("Load = %v, %v, want nil, nil", config, err)
	}
}

func TestTOMLLoader_ParseError(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/bad.toml", "[markup]\nopen = \n")

	_, err := NewTOMLLoaderWithFS(memfs, "/bad.toml").Load()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if pe.Path != "/bad.toml" {
		t.Errorf("Path = %q", pe.Path)
	}
	if pe.Line == 0 {
		t.Error("expected a line number from the TOML decoder")
	}
}

func TestTOMLLoader_LoadFromReader(t *testing.T) {
	config, err := NewTOMLLoader("").LoadFromReader(strings.NewReader(`
[log]
level = "debug"
`))
	if err != nil {
		t.Fatal(err)
	}
	if config["log"].(map[string]any)["level"] != "debug" {
		t.Errorf("config = %v", config)
	}
}

func TestYAMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/config.yaml", `
markup:
  open: "<hide>"
  close: "</hide>"
render:
  placeholder: "{%s}"
plugins:
  enabled: false
`)

	config, err := NewYAMLLoaderWithFS(memfs, "/config.yaml").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	markup, ok := config["markup"].(map[string]any)
	if !ok {
		t.Fatalf("markup = %T, want map[string]any", config["markup"])
	}
	if markup["open"] != "<hide>" {
		t.Errorf("markup.open = %v", markup["open"])
	}
	if config["render"].(map[string]any)["placeholder"] != "{%s}" {
		t.Errorf("render = %v", config["render"])
	}
	if config["plugins"].(map[string]any)["enabled"] != false {
		t.Errorf("plugins = %v", config["plugins"])
	}
}

func TestYAMLLoader_ParseError(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/bad.yaml", "markup:\n  open: [unclosed\n")

	_, err := NewYAMLLoaderWithFS(memfs, "/bad.yaml").Load()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if pe.Path != "/bad.yaml" {
		t.Errorf("Path = %q", pe.Path)
	}
}

func TestNormalize(t *testing.T) {
	in := map[string]any{
		"a": map[any]any{1: "one", "b": map[any]any{"c": true}},
		"l": []any{map[any]any{"x": 1}},
	}
	out := normalize(in)

	a, ok := out["a"].(map[string]any)
	if !ok {
		t.Fatalf("a = %T", out["a"])
	}
	if a["1"] != "one" {
		t.Errorf("a[1] = %v", a["1"])
	}
	if b, ok := a["b"].(map[string]any); !ok || b["c"] != true {
		t.Errorf("a.b = %v", a["b"])
	}
	if l, ok := out["l"].([]any)[0].(map[string]any); !ok || l["x"] != 1 {
		t.Errorf("l = %v", out["l"])
	}
}
