package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/orb-zone/dotted"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	tree := map[string]any{
		"greeting": "hola",
		"nested":   map[string]any{"n": 1.0},
	}

	v := dotted.Variants{dotted.DimLang: "es"}

	if err := s.Save(context.Background(), "greeting", tree, v); err != nil {
		t.Fatalf("save error: %v", err)
	}

	got, err := s.Load(context.Background(), "greeting", v)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	if !reflect.DeepEqual(got, tree) {
		t.Errorf("round trip mismatch:\n got %#v\nwant %#v", got, tree)
	}
}

func TestSaveLoadYAML(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, WithExtension(".yaml"))

	tree := map[string]any{"title": "menú", "count": uint64(3)}

	if err := s.Save(context.Background(), "menu", tree, nil); err != nil {
		t.Fatalf("save error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "menu.yaml")); err != nil {
		t.Fatalf("expected menu.yaml on disk: %v", err)
	}

	got, err := s.Load(context.Background(), "menu", nil)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	if got["title"] != "menú" {
		t.Errorf("title = %v, want menú", got["title"])
	}
}

func TestLoadPicksBestVariantFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	write := func(name, body string) {
		t.Helper()

		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write("greeting.json", `{"msg": "hi"}`)
	write("greeting:es.json", `{"msg": "hola"}`)
	write("greeting:es:formal.json", `{"msg": "buenos días"}`)

	got, err := s.Load(context.Background(), "greeting", dotted.Variants{
		dotted.DimLang: "es",
		dotted.DimForm: "formal",
	})
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	if got["msg"] != "buenos días" {
		t.Errorf("msg = %v, want buenos días", got["msg"])
	}
}

func TestLoadFallsBackToBaseFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	path := filepath.Join(dir, "greeting.json")
	if err := os.WriteFile(path, []byte(`{"msg": "hi"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load(context.Background(), "greeting", dotted.Variants{
		dotted.DimLang: "de",
	})
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	if got["msg"] != "hi" {
		t.Errorf("msg = %v, want hi", got["msg"])
	}
}

func TestLoadNotFound(t *testing.T) {
	s := New(t.TempDir())

	_, err := s.Load(context.Background(), "absent", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLoadDecodeError(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	path := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := s.Load(context.Background(), "broken", nil)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}

func TestNameValidation(t *testing.T) {
	s := New(t.TempDir())

	bad := []struct {
		base     string
		variants dotted.Variants
	}{
		{"../evil", nil},
		{"a/b", nil},
		{"", nil},
		{"ok", dotted.Variants{dotted.DimLang: "../up"}},
		{"ok", dotted.Variants{"region": "a b"}},
	}

	for _, tc := range bad {
		_, err := s.Load(context.Background(), tc.base, tc.variants)
		if !errors.Is(err, dotted.ErrVariantValue) {
			t.Errorf("Load(%q, %v): err = %v, want ErrVariantValue",
				tc.base, tc.variants, err)
		}

		err = s.Save(context.Background(), tc.base, map[string]any{}, tc.variants)
		if !errors.Is(err, dotted.ErrVariantValue) {
			t.Errorf("Save(%q, %v): err = %v, want ErrVariantValue",
				tc.base, tc.variants, err)
		}
	}
}

func TestCustomDimensionFileNames(t *testing.T) {
	dir := t.TempDir()
	region := dotted.Dimension{Name: "region", Values: []string{"north", "south"}}
	s := New(dir, WithDimensions(region))

	write := func(name, body string) {
		t.Helper()

		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write("menu.json", `{"msg": "menu"}`)
	write("menu:north.json", `{"msg": "northern menu"}`)

	got, err := s.Load(context.Background(), "menu", dotted.Variants{"region": "north"})
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	if got["msg"] != "northern menu" {
		t.Errorf("msg = %v, want northern menu", got["msg"])
	}
}
