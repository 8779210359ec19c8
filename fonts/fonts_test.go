package fonts

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadBuiltin(t *testing.T) {
	for _, name := range Names() {
		data, err := Load("builtin:" + name)
		if err != nil {
			t.Fatalf("load %s: %v", name, err)
		}
		if len(data) < 4 {
			t.Fatalf("font %s is empty", name)
		}
		// TrueType 或 CFF OpenType 头
		if !bytes.Equal(data[:4], []byte{0, 1, 0, 0}) && !bytes.Equal(data[:4], []byte("OTTO")) {
			t.Fatalf("font %s has unexpected header % x", name, data[:4])
		}
	}
}

func TestLoadDefault(t *testing.T) {
	a, err := Load("builtin:")
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	b, _ := Load(Default)
	if !bytes.Equal(a, b) {
		t.Fatalf("empty builtin name should resolve to %s", Default)
	}
}

func TestLoadUnknown(t *testing.T) {
	if _, err := Load("builtin:comic-sans"); err == nil {
		t.Fatalf("expected error for unknown font")
	}
	if IsBuiltin("fonts/a.ttf") || !IsBuiltin("builtin:gomono") {
		t.Fatalf("IsBuiltin misclassified src")
	}
}

func TestReadResolvesSources(t *testing.T) {
	want, _ := Load(Default)
	got, err := Read("builtin:goregular", "")
	if err != nil || !bytes.Equal(got, want) {
		t.Fatalf("read builtin: %v", err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "body.ttf"), want, 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}
	got, err = Read("body.ttf", dir)
	if err != nil || !bytes.Equal(got, want) {
		t.Fatalf("read relative path: %v", err)
	}
	if _, err := Read("body.ttf", ""); err == nil {
		t.Fatalf("expected error for relative path without base dir")
	}
	if _, err := Read("", dir); err == nil {
		t.Fatalf("expected error for empty src")
	}
}
