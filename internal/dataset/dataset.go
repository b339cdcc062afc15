// Package dataset loads post collections from disk.
//
// Three layouts are accepted: JSON Lines with one post per line, a JSON
// array of posts, and a forum API listing ({"data": {"children": [...]}}).
// In every layout a post may also be wrapped as {"kind": "t3", "data": {...}}.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cognicore/threadlens/pkg/threadlens/posts"
)

// maxLine bounds a single JSONL record.
const maxLine = 16 << 20

// Dataset is a loaded collection.
type Dataset struct {
	Posts []posts.Post
	// Skipped lists 1-based line numbers of malformed JSONL records.
	Skipped []int
}

// record is a post, possibly wrapped in a listing child.
type record struct {
	posts.Post
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func (r record) post() (posts.Post, error) {
	if len(r.Data) == 0 || r.Title != "" {
		return r.Post, nil
	}
	var p posts.Post
	if err := json.Unmarshal(r.Data, &p); err != nil {
		return posts.Post{}, err
	}
	return p, nil
}

type listing struct {
	Data struct {
		Children []record `json:"children"`
	} `json:"data"`
}

// LoadFile reads a dataset from path.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ds, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Load reads a dataset in any accepted layout.
func Load(r io.Reader) (*Dataset, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		return nil, err
	}

	var ds *Dataset
	switch first {
	case '[':
		ds, err = loadArray(br)
	default:
		var data []byte
		if data, err = io.ReadAll(br); err != nil {
			return nil, err
		}
		if l, ok := asListing(data); ok {
			ds, err = loadListing(l)
		} else {
			ds, err = loadLines(data)
		}
	}
	if err != nil {
		return nil, err
	}
	if len(ds.Posts) == 0 {
		return nil, fmt.Errorf("no valid posts found")
	}
	return ds, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err == io.EOF {
			return 0, fmt.Errorf("empty dataset")
		}
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			br.ReadByte()
			continue
		}
		return b[0], nil
	}
}

func loadArray(r io.Reader) (*Dataset, error) {
	var recs []record
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decode array: %w", err)
	}
	return fromRecords(recs)
}

// asListing reports whether data is a single listing document.
func asListing(data []byte) (listing, bool) {
	var l listing
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&l); err != nil || l.Data.Children == nil {
		return l, false
	}
	if dec.More() {
		return l, false
	}
	return l, true
}

func loadListing(l listing) (*Dataset, error) {
	return fromRecords(l.Data.Children)
}

func fromRecords(recs []record) (*Dataset, error) {
	ds := &Dataset{Posts: make([]posts.Post, 0, len(recs))}
	for i, rec := range recs {
		p, err := rec.post()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		ds.Posts = append(ds.Posts, p)
	}
	return ds, nil
}

func loadLines(data []byte) (*Dataset, error) {
	ds := &Dataset{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(text, &rec); err != nil {
			ds.Skipped = append(ds.Skipped, line)
			continue
		}
		p, err := rec.post()
		if err != nil {
			ds.Skipped = append(ds.Skipped, line)
			continue
		}
		ds.Posts = append(ds.Posts, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}
	return ds, nil
}
