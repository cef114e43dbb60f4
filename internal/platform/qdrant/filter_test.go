package qdrant

import (
	"reflect"
	"testing"
)

func TestTranslateFilterMapScalarEquality(t *testing.T) {
	out, err := translateFilterMap(map[string]any{"language": "en"})
	if err != nil {
		t.Fatalf("translateFilterMap: %v", err)
	}
	want := []any{map[string]any{"key": "language", "match": map[string]any{"value": "en"}}}
	if !reflect.DeepEqual(out.Must, want) {
		t.Fatalf("got %v, want %v", out.Must, want)
	}
}

func TestTranslateFilterMapInOperator(t *testing.T) {
	out, err := translateFilterMap(map[string]any{
		"chapter": map[string]any{"$in": []any{1, 2, 3}},
	})
	if err != nil {
		t.Fatalf("translateFilterMap: %v", err)
	}
	if len(out.Must) != 1 {
		t.Fatalf("got %d conditions, want 1", len(out.Must))
	}
	cond := out.Must[0].(map[string]any)
	match := cond["match"].(map[string]any)
	if _, ok := match["any"]; !ok {
		t.Fatalf("got %v, want match.any", cond)
	}
}

func TestTranslateFilterMapAndFlattens(t *testing.T) {
	out, err := translateFilterMap(map[string]any{
		"$and": []any{
			map[string]any{"language": "en"},
			map[string]any{"chapter": map[string]any{"$eq": 3}},
		},
	})
	if err != nil {
		t.Fatalf("translateFilterMap: %v", err)
	}
	if len(out.Must) != 2 {
		t.Fatalf("got %d conditions, want 2", len(out.Must))
	}
}

func TestTranslateFilterMapRejectsUnknownOperator(t *testing.T) {
	if _, err := translateFilterMap(map[string]any{"$or": []any{}}); err == nil {
		t.Fatal("expected unsupported operator error")
	}
	if _, err := translateFilterMap(map[string]any{"score": map[string]any{"$gt": 5}}); err == nil {
		t.Fatal("expected unsupported field operator error")
	}
}

func TestTranslateFilterMapEmpty(t *testing.T) {
	out, err := translateFilterMap(nil)
	if err != nil {
		t.Fatalf("translateFilterMap: %v", err)
	}
	if m := out.asMap(); len(m) != 0 {
		t.Fatalf("got %v, want empty map", m)
	}
}
