package search

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/m3rciful/zalogbot/internal/listing"
)

const (
	// Any is the token of the "no constraint" choice.
	Any = "*"
	// StatusUnpublished and StatusAll are the tokens of the status step.
	StatusUnpublished = "u"
	StatusAll         = "a"

	sep         = ":"
	hashPrefix  = "~"
	maxRawToken = 14
)

// ErrExpired means a payload can no longer be mapped onto the current listings.
var ErrExpired = errors.New("search: selection expired")

// EncodePath joins step tokens into a callback payload.
func EncodePath(tokens []string) string {
	return strings.Join(tokens, sep)
}

// DecodePath splits a payload into step tokens. The empty payload is the
// start of the chain.
func DecodePath(payload string) ([]string, error) {
	if payload == "" {
		return nil, nil
	}
	tokens := strings.Split(payload, sep)
	if len(tokens) > int(StepResults) {
		return nil, fmt.Errorf("%w: %d steps", ErrExpired, len(tokens))
	}
	for _, t := range tokens {
		if t == "" {
			return nil, fmt.Errorf("%w: empty token", ErrExpired)
		}
	}
	return tokens, nil
}

// EncodeValue turns a chosen value into a payload token. Long values and
// values that would break the framing are replaced by a short hash so a full
// path stays under Telegram's 64-byte callback limit.
func EncodeValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return Any
	}
	if len(v) > maxRawToken || strings.Contains(v, sep) || strings.HasPrefix(v, hashPrefix) || v == Any {
		return hashToken(v)
	}
	return v
}

func hashToken(v string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(listing.Fold(v)))
	return fmt.Sprintf("%s%06x", hashPrefix, h.Sum32()&0xffffff)
}

// resolveToken maps tok back onto one of candidates. Any resolves to "".
func resolveToken(tok string, candidates []string) (string, error) {
	if tok == Any {
		return "", nil
	}
	hashed := strings.HasPrefix(tok, hashPrefix)
	for _, c := range candidates {
		if hashed && hashToken(c) == tok {
			return c, nil
		}
		if !hashed && listing.EqualFold(c, tok) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown value %q", ErrExpired, tok)
}
