// Package buffer holds the ordered token sequence a typewriter displays.
package buffer

import "sync"

type Kind uint8

const (
	// Char is a single plain character, escaped and wrapped on render.
	Char Kind = iota
	// Markup is a pre-formed fragment emitted verbatim.
	Markup
)

type Token struct {
	Kind Kind
	Text string
}

func CharToken(r rune) Token { return Token{Kind: Char, Text: string(r)} }

func MarkupToken(s string) Token { return Token{Kind: Markup, Text: s} }

// Chars splits s into one Char token per rune.
func Chars(s string) []Token {
	toks := make([]Token, 0, len(s))
	for _, r := range s {
		toks = append(toks, CharToken(r))
	}
	return toks
}

// Buffer is safe for concurrent readers; writers are serialized by the
// scheduler that owns it.
type Buffer struct {
	mu     sync.RWMutex
	tokens []Token
}

func New(initial []Token) *Buffer {
	b := &Buffer{}
	b.tokens = append(b.tokens, initial...)
	return b
}

func (b *Buffer) Append(toks ...Token) {
	b.mu.Lock()
	b.tokens = append(b.tokens, toks...)
	b.mu.Unlock()
}

// Pop removes the last token. It reports false on an empty buffer.
func (b *Buffer) Pop() (Token, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.tokens) == 0 {
		return Token{}, false
	}
	last := b.tokens[len(b.tokens)-1]
	b.tokens = b.tokens[:len(b.tokens)-1]
	return last, true
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.tokens)
}

// Tokens returns a copy of the current contents.
func (b *Buffer) Tokens() []Token {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Token, len(b.tokens))
	copy(out, b.tokens)
	return out
}

// Texts returns the text of every token, in order.
func (b *Buffer) Texts() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, len(b.tokens))
	for i, t := range b.tokens {
		out[i] = t.Text
	}
	return out
}

func (b *Buffer) String() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, t := range b.tokens {
		n += len(t.Text)
	}
	out := make([]byte, 0, n)
	for _, t := range b.tokens {
		out = append(out, t.Text...)
	}
	return string(out)
}
