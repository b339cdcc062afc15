package dataset

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadJSONL(t *testing.T) {
	input := `{"id":"a","title":"Climate policy debate","created_utc":1700000000,"author":"alice"}

not json
{"kind":"t3","data":{"id":"b","title":"Sports game results","selftext":"recap","domain":"self.sports"}}
`
	ds, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(ds.Posts))
	}
	if ds.Posts[0].Author != "alice" || ds.Posts[0].CreatedUTC != 1700000000 {
		t.Errorf("unexpected first post: %+v", ds.Posts[0])
	}
	if ds.Posts[1].ID != "b" || ds.Posts[1].Selftext != "recap" {
		t.Errorf("wrapped post not unwrapped: %+v", ds.Posts[1])
	}
	if !reflect.DeepEqual(ds.Skipped, []int{3}) {
		t.Errorf("skipped = %v, want [3]", ds.Skipped)
	}
}

func TestLoadArray(t *testing.T) {
	input := `  [{"title":"one"},{"kind":"t3","data":{"title":"two"}}]`
	ds, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Posts) != 2 || ds.Posts[0].Title != "one" || ds.Posts[1].Title != "two" {
		t.Errorf("unexpected posts: %+v", ds.Posts)
	}
}

func TestLoadListing(t *testing.T) {
	input := `{"kind":"Listing","data":{"after":"t3_x","children":[
		{"kind":"t3","data":{"title":"first","url":"https://a.test"}},
		{"kind":"t3","data":{"title":"second"}}
	]}}`
	ds, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Posts) != 2 || ds.Posts[0].URL != "https://a.test" {
		t.Errorf("unexpected posts: %+v", ds.Posts)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]string{
		"empty":       "  \n ",
		"all invalid": "{\nnope\n",
		"bad array":   "[{\"title\": 1}]",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(input)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.jsonl")
	if err := os.WriteFile(path, []byte(`{"title":"hello"}`+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	ds, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(ds.Posts) != 1 {
		t.Errorf("expected 1 post, got %d", len(ds.Posts))
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
		t.Error("expected error for missing file")
	}
}
