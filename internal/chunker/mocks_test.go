package chunker

import (
	"errors"
	"regexp"
	"strings"
	"sync"
)

var wordPiece = regexp.MustCompile(`\s*\S+|\s+`)

// wordTokenizer treats each word with its leading whitespace as one token.
// Decode(Encode(x)) == x for every x.
type wordTokenizer struct {
	mu      sync.Mutex
	vocab   map[string]int
	pieces  []string
	failOn  string
	decoded int
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{vocab: make(map[string]int)}
}

func (t *wordTokenizer) Encode(text string) ([]int, error) {
	if t.failOn != "" && strings.Contains(text, t.failOn) {
		return nil, errors.New("unknown byte sequence")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	var ids []int
	for _, piece := range wordPiece.FindAllString(text, -1) {
		id, ok := t.vocab[piece]
		if !ok {
			id = len(t.pieces)
			t.vocab[piece] = id
			t.pieces = append(t.pieces, piece)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (t *wordTokenizer) Decode(tokens []int) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.decoded++
	var b strings.Builder
	for _, id := range tokens {
		if id < 0 || id >= len(t.pieces) {
			return "", errors.New("token out of range")
		}
		b.WriteString(t.pieces[id])
	}
	return b.String(), nil
}

func (t *wordTokenizer) Name() string {
	return "words-test"
}

func (t *wordTokenizer) decodeCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.decoded
}

// failingDecoder encodes like wordTokenizer but cannot decode.
type failingDecoder struct {
	*wordTokenizer
}

func (failingDecoder) Decode([]int) (string, error) {
	return "", errors.New("invalid token")
}
