// Package threadlens analyzes collections of forum posts: vocabulary
// statistics, a TF-IDF weight matrix, ranked terms, term time series and
// 2D similarity projections of documents or terms.
//
// The core pipeline packages (vocab, tfidf, report, topterms, projection)
// are pure functions of their inputs and explicit configuration. Engine
// wires them together with a text preprocessor and, optionally, a store
// for post snapshots and run summaries.
package threadlens
