package github

// TokenRotator hands out tokens round-robin, forever
type TokenRotator struct {
	tokens []string
	next   int
}

// NewTokenRotator copies tokens; an empty list yields "" on every call
func NewTokenRotator(tokens []string) *TokenRotator {
	return &TokenRotator{tokens: append([]string(nil), tokens...)}
}

// Next returns the next token, wrapping after the last one
func (r *TokenRotator) Next() string {
	if len(r.tokens) == 0 {
		return ""
	}
	token := r.tokens[r.next]
	r.next = (r.next + 1) % len(r.tokens)
	return token
}

// Len is the size of the pool
func (r *TokenRotator) Len() int {
	return len(r.tokens)
}

// Authenticated reports whether any token is configured
func (r *TokenRotator) Authenticated() bool {
	return len(r.tokens) > 0
}
