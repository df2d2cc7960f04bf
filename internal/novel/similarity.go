// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package novel

import (
	"fmt"
	"math"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/registry"
)

// Analyzer turns text into lower-cased, stop-word-free, Porter-stemmed terms.
type Analyzer struct {
	analyze func([]byte) analysis.TokenStream
}

// NewAnalyzer builds the English analyzer from bleve's registry.
func NewAnalyzer() (*Analyzer, error) {
	a, err := registry.NewCache().AnalyzerNamed(en.AnalyzerName)
	if err != nil {
		return nil, fmt.Errorf("building %s analyzer: %w", en.AnalyzerName, err)
	}
	return &Analyzer{analyze: a.Analyze}, nil
}

// Terms returns the analyzed terms of text in order. Terms containing
// anything other than letters are dropped.
func (a *Analyzer) Terms(text string) []string {
	var terms []string
	for _, tok := range a.analyze([]byte(text)) {
		if isAlpha(tok.Term) {
			terms = append(terms, string(tok.Term))
		}
	}
	return terms
}

func isAlpha(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, r := range string(b) {
		if !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || r > 0x7f) {
			return false
		}
	}
	return true
}

// Similarity is the cosine of the TF-IDF vectors of a and b, with IDF fitted
// on the pair: idf(t) = ln((1+n)/(1+df(t))) + 1, raw term counts, L2
// normalisation. Identical texts score 1; texts sharing no terms score 0.
func (a *Analyzer) Similarity(x, y string) float64 {
	docs := [][]string{a.Terms(x), a.Terms(y)}

	df := map[string]int{}
	tf := make([]map[string]float64, len(docs))
	for i, terms := range docs {
		tf[i] = map[string]float64{}
		for _, t := range terms {
			tf[i][t]++
		}
		for t := range tf[i] {
			df[t]++
		}
	}

	n := float64(len(docs))
	vecs := make([]map[string]float64, len(docs))
	for i := range docs {
		vecs[i] = map[string]float64{}
		var norm float64
		for t, c := range tf[i] {
			w := c * (math.Log((1+n)/(1+float64(df[t]))) + 1)
			vecs[i][t] = w
			norm += w * w
		}
		if norm == 0 {
			return 0
		}
		norm = math.Sqrt(norm)
		for t := range vecs[i] {
			vecs[i][t] /= norm
		}
	}

	var dot float64
	for t, w := range vecs[0] {
		dot += w * vecs[1][t]
	}
	return dot
}
