package rag

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/internal/strutil"
)

// Chunk is one retrievable unit of the knowledge corpus.
type Chunk struct {
	ChunkID string `json:"chunk_id"`
	Source  string `json:"source"`
	Title   string `json:"title"`
	Text    string `json:"text"`
}

// Citation points at a chunk that supported an answer.
type Citation struct {
	Title   string `json:"title"`
	Source  string `json:"source"`
	Snippet string `json:"snippet"`
}

// Engine is a lexical TF-IDF retriever over a small newline-delimited
// JSON corpus. The index is built once at construction; Retrieve is
// read-only afterwards and safe for concurrent use.
type Engine struct {
	chunks  []Chunk
	vectors []map[string]float64
	idf     map[string]float64
}

// NewEngine loads the corpus at corpusPath, falling back to the
// embedded default corpus when the path is empty. A load failure
// disables retrieval instead of failing startup.
func NewEngine(corpusPath string) *Engine {
	chunks, err := loadChunks(corpusPath)
	if err != nil {
		slog.Warn("failed to load retrieval corpus, answers will use defaults", "err", err)
		return &Engine{}
	}
	engine := &Engine{chunks: chunks}
	engine.buildIndex()
	slog.Info("retrieval engine initialized", "chunks", len(chunks))
	return engine
}

func loadChunks(corpusPath string) ([]Chunk, error) {
	raw := defaultCorpus
	if corpusPath != "" {
		data, err := os.ReadFile(corpusPath)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read corpus file")
		}
		raw = data
	}

	var chunks []Chunk
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var chunk Chunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return nil, errors.Wrap(err, "failed to parse corpus line")
		}
		chunks = append(chunks, chunk)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan corpus")
	}
	return chunks, nil
}

func (e *Engine) buildIndex() {
	termFreqs := make([]map[string]int, len(e.chunks))
	docFreqs := map[string]int{}
	for i, chunk := range e.chunks {
		tf := map[string]int{}
		for _, token := range Tokenize(chunk.Text) {
			tf[token]++
		}
		termFreqs[i] = tf
		for term := range tf {
			docFreqs[term]++
		}
	}

	totalDocs := len(e.chunks)
	e.idf = make(map[string]float64, len(docFreqs))
	for term, df := range docFreqs {
		e.idf[term] = math.Log(float64(totalDocs+1)/float64(df+1)) + 1.0
	}

	e.vectors = make([]map[string]float64, len(e.chunks))
	for i, tf := range termFreqs {
		e.vectors[i] = e.weigh(tf)
	}
}

// weigh turns raw term counts into augmented-TF x smoothed-IDF weights.
// The 0.5 floor bounds the influence of document length.
func (e *Engine) weigh(tf map[string]int) map[string]float64 {
	maxTf := 1
	for _, count := range tf {
		if count > maxTf {
			maxTf = count
		}
	}
	vector := make(map[string]float64, len(tf))
	for term, count := range tf {
		normalizedTf := 0.5 + 0.5*float64(count)/float64(maxTf)
		idf, ok := e.idf[term]
		if !ok {
			idf = 1.0
		}
		vector[term] = normalizedTf * idf
	}
	return vector
}

// Available reports whether a corpus was loaded.
func (e *Engine) Available() bool {
	return len(e.chunks) > 0
}

// Retrieve ranks chunks by cosine similarity against query and returns
// at most k citations with strictly positive scores, ties broken by
// corpus order. Snippets are truncated to snippetLen characters. It
// never fails; with no corpus or no term overlap it returns nothing.
func (e *Engine) Retrieve(query string, k int, snippetLen int) []Citation {
	if len(e.chunks) == 0 || k <= 0 {
		return nil
	}

	queryTf := map[string]int{}
	for _, token := range Tokenize(query) {
		queryTf[token]++
	}
	queryVector := e.weigh(queryTf)

	scores := make([]float64, len(e.chunks))
	order := make([]int, len(e.chunks))
	for i := range e.chunks {
		scores[i] = cosineSimilarity(queryVector, e.vectors[i])
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	var citations []Citation
	for _, idx := range order {
		if len(citations) >= k {
			break
		}
		if scores[idx] <= 0 {
			break
		}
		chunk := e.chunks[idx]
		citations = append(citations, Citation{
			Title:   chunk.Title,
			Source:  chunk.Source,
			Snippet: strutil.Truncate(chunk.Text, snippetLen),
		})
	}
	return citations
}

func cosineSimilarity(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for term, valA := range a {
		normA += valA * valA
		if valB, ok := b[term]; ok {
			dot += valA * valB
		}
	}
	for _, valB := range b {
		normB += valB * valB
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Tokenize splits bilingual text into index terms: CJK characters are
// emitted as unigrams plus overlapping bigrams with the following CJK
// rune, latin/digit runs of length >= 2 become lowercase word tokens,
// everything else delimits.
func Tokenize(text string) []string {
	runes := []rune(strings.ToLower(text))
	var tokens []string
	var word []rune

	flush := func() {
		if len(word) >= 2 {
			tokens = append(tokens, string(word))
		}
		word = word[:0]
	}

	for i, r := range runes {
		switch {
		case isCJK(r):
			flush()
			tokens = append(tokens, string(r))
			if i+1 < len(runes) && isCJK(runes[i+1]) {
				tokens = append(tokens, string([]rune{r, runes[i+1]}))
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word = append(word, r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r)
}
