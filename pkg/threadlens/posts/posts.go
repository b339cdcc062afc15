// Package posts defines the forum post record the pipeline consumes and
// the helpers that turn records into analysis text and metadata rows.
package posts

import (
	"math"
	"strings"
	"time"

	"github.com/cognicore/threadlens/pkg/threadlens/textproc"
)

// Post is one forum submission. Only Title is required by the pipeline;
// every other field defaults to its zero value when absent.
type Post struct {
	ID         string  `json:"id,omitempty"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext,omitempty"`
	CreatedUTC float64 `json:"created_utc,omitempty"` // unix seconds
	Author     string  `json:"author,omitempty"`
	URL        string  `json:"url,omitempty"`
	Domain     string  `json:"domain,omitempty"`
}

// Time returns the creation time in UTC.
func (p Post) Time() time.Time {
	sec, frac := math.Modf(p.CreatedUTC)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
}

// Text assembles the analysis text of p: the preprocessed title, followed
// by the preprocessed selftext when includeSelftext is set.
func Text(p Post, preprocess textproc.Func, includeSelftext bool) string {
	if preprocess == nil {
		preprocess = textproc.Identity
	}
	text := preprocess(p.Title)
	if includeSelftext {
		text += " " + preprocess(p.Selftext)
	}
	return text
}

// Texts applies Text to every post, preserving order.
func Texts(ps []Post, preprocess textproc.Func, includeSelftext bool) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = Text(p, preprocess, includeSelftext)
	}
	return out
}

// Titles returns the raw post titles, used as document labels.
func Titles(ps []Post) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = strings.TrimSpace(p.Title)
	}
	return out
}

// Row is the metadata view of a post.
type Row struct {
	Title    string    `json:"title"`
	Selftext string    `json:"selftext"`
	URL      string    `json:"url"`
	Domain   string    `json:"domain"`
	Time     time.Time `json:"time"`
	Author   string    `json:"author"`
}

// Rows maps posts to metadata rows.
func Rows(ps []Post) []Row {
	rows := make([]Row, len(ps))
	for i, p := range ps {
		rows[i] = Row{
			Title:    p.Title,
			Selftext: p.Selftext,
			URL:      p.URL,
			Domain:   p.Domain,
			Time:     p.Time(),
			Author:   p.Author,
		}
	}
	return rows
}
