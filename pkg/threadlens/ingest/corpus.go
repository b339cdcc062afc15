package ingest

// Counts aggregates token statistics over an ordered corpus. Row order
// follows input order so matrix rows stay aligned with the caller's list.
type Counts struct {
	Docs        []map[string]int // per-document term counts
	DocFreq     map[string]int   // documents containing each term
	TermFreq    map[string]int   // occurrences across the corpus
	TotalTokens int
}

// Count tokenizes every text and accumulates the statistics.
func Count(tok *Tokenizer, texts []string) Counts {
	c := Counts{
		Docs:     make([]map[string]int, len(texts)),
		DocFreq:  make(map[string]int),
		TermFreq: make(map[string]int),
	}
	for i, text := range texts {
		doc := make(map[string]int)
		for _, term := range tok.Tokenize(text) {
			doc[term]++
			c.TermFreq[term]++
			c.TotalTokens++
		}
		for term := range doc {
			c.DocFreq[term]++
		}
		c.Docs[i] = doc
	}
	return c
}

// NumDocs returns the number of documents counted, including empty ones.
func (c Counts) NumDocs() int { return len(c.Docs) }
