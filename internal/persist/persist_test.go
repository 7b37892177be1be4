package persist

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

type sample struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	in := sample{Name: "career", Items: []string{"a", "b"}}
	if err := Save(path, in); err != nil {
		t.Fatal(err)
	}
	out := Load(path, sample{})
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch: %+v != %+v", in, out)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	def := sample{Name: "default"}
	got := Load(filepath.Join(t.TempDir(), "nope.json"), def)
	if got.Name != "default" {
		t.Errorf("expected default, got %+v", got)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	def := sample{Name: "fallback"}
	got := Load(path, def)
	if got.Name != "fallback" {
		t.Errorf("corrupt file should yield default, got %+v", got)
	}
}

func TestSave_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "state.json")
	if err := Save(path, map[string]int{"x": 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not written: %v", err)
	}
}
