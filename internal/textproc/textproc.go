// Package textproc holds the language resources shared by the analysis stages:
// the English stopword table, the trained punkt sentence tokenizer, and the
// word tokenizer. Init must be called once at startup.
package textproc

import (
	"strings"
	"sync"
	"unicode"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

var (
	once        sync.Once
	initialized bool
	stopwords   map[string]struct{}
	splitter    *sentences.DefaultSentenceTokenizer
)

// Init loads the stopword table and the English punkt model. It is safe to
// call more than once and panics if the bundled model cannot be decoded.
func Init() {
	once.Do(func() {
		stopwords = make(map[string]struct{}, len(englishStopwords))
		for _, w := range englishStopwords {
			stopwords[w] = struct{}{}
		}
		tokenizer, err := english.NewSentenceTokenizer(nil)
		if err != nil {
			panic("textproc: loading English sentence model: " + err.Error())
		}
		splitter = tokenizer
		initialized = true
	})
}

func mustInit() {
	if !initialized {
		panic("textproc: Init must be called before use")
	}
}

// IsStopword reports whether the lowercased token is an English stopword.
func IsStopword(token string) bool {
	mustInit()
	_, ok := stopwords[token]
	return ok
}

// Tokenize lowercases text and returns its word tokens: runs of letters, digits
// or underscores at least two runes long.
func Tokenize(text string) []string {
	var tokens []string
	var b strings.Builder
	n := 0
	flush := func() {
		if n >= 2 {
			tokens = append(tokens, b.String())
		}
		b.Reset()
		n = 0
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(unicode.ToLower(r))
			n++
			continue
		}
		flush()
	}
	flush()
	return tokens
}

// ContentTokens returns Tokenize(text) with stopwords removed.
func ContentTokens(text string) []string {
	tokens := Tokenize(text)
	out := tokens[:0]
	for _, t := range tokens {
		if !IsStopword(t) {
			out = append(out, t)
		}
	}
	return out
}

// SplitSentences splits prose into sentences with the punkt model, which
// knows common abbreviations, initials and decimal numbers. Whitespace inside
// each sentence is collapsed.
func SplitSentences(text string) []string {
	mustInit()
	var out []string
	for _, sentence := range splitter.Tokenize(strings.TrimSpace(text)) {
		s := strings.Join(strings.Fields(sentence.Text), " ")
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
