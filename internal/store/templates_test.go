package store

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestTemplatesFirstFreeKey(t *testing.T) {
	dir := t.TempDir()
	ts, err := OpenTemplates(filepath.Join(dir, "templates.json"))
	if err != nil {
		t.Fatal(err)
	}
	k1, _ := ts.Add(Template{Name: "480 CRF 26 a F16"})
	k2, _ := ts.Add(Template{Name: "720 CRF 24 b F16"})
	if k1 != "t1" || k2 != "t2" {
		t.Fatalf("keys = %s, %s, want t1, t2", k1, k2)
	}

	if err := ts.Delete("t1"); err != nil {
		t.Fatal(err)
	}
	k3, _ := ts.Add(Template{Name: "360 CRF 28 a F14"})
	if k3 != "t1" {
		t.Fatalf("key after delete = %s, want t1", k3)
	}
}

func TestTemplatesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.json")
	ts, _ := OpenTemplates(path)

	tpl := Template{
		Name:        "480p 720p CRF a F16",
		Resolutions: []string{"480p", "720p"},
		ResCRF:      map[string]string{"480p": "26", "720p": "24"},
		CRF:         "26",
		Audio:       "he",
		Mode:        "crf",
		FontSize:    16,
		MarginV:     10,
	}
	key, err := ts.Add(tpl)
	if err != nil {
		t.Fatal(err)
	}

	ts2, err := OpenTemplates(path)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := ts2.Get(key)
	if !ok {
		t.Fatalf("template %s lost on reload", key)
	}
	if !reflect.DeepEqual(got, tpl) {
		t.Fatalf("reloaded template = %+v, want %+v", got, tpl)
	}
}

func TestTemplatesListSortedBySlot(t *testing.T) {
	dir := t.TempDir()
	ts, _ := OpenTemplates(filepath.Join(dir, "templates.json"))
	for i := 0; i < 11; i++ {
		ts.Add(Template{Name: "tpl"})
	}
	keys, _ := ts.List()
	if keys[9] != "t10" || keys[10] != "t11" {
		t.Fatalf("keys not slot-sorted: %v", keys)
	}
}

func TestTemplatesDeleteUnknown(t *testing.T) {
	dir := t.TempDir()
	ts, _ := OpenTemplates(filepath.Join(dir, "templates.json"))
	if err := ts.Delete("t9"); err == nil {
		t.Fatal("expected error deleting unknown key")
	}
}
