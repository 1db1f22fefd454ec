// Package tokenmap decomposes strings into 1-gram and 2-gram tokens,
// powering prefix/substring-style search over a per-document token-presence
// map without a full-text index.
//
// The same tokenizer serves both sides: Constraints builds the equality
// filters for a search string, Build maintains the map written alongside a
// document.
package tokenmap

import (
	"strings"
	"unicode"

	"github.com/firemodel-go/firemodel/adapter/data"
	"github.com/firemodel-go/firemodel/domain"
	"github.com/firemodel-go/firemodel/pkg/errs"
)

const op = "tokenmap.tokens"

// FieldName is the document field holding the token-presence map.
const FieldName = "tokenMap"

// Tokens cleans the search string and returns the deduplicated union of all
// 1-character and contiguous 2-character substrings, in order of first
// occurrence. Characters outside the basic multilingual plane (surrogate
// pairs in UTF-16 terms, emoji included), the literal characters '~', '*',
// '[' and ']', and whitespace are stripped before tokenizing. An empty or
// whitespace-only input is an invalid argument.
func Tokens(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errs.E(op, errs.InvalidArgument, "search string is empty")
	}
	runes := clean(s)
	seen := make(map[string]struct{}, len(runes)*2)
	res := make([]string, 0, len(runes)*2)
	add := func(tok string) {
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		res = append(res, tok)
	}
	for i := range runes {
		add(string(runes[i]))
		if i+1 < len(runes) {
			add(string(runes[i : i+2]))
		}
	}
	return res, nil
}

func clean(s string) []rune {
	res := make([]rune, 0, len(s))
	for _, r := range s {
		if r > 0xFFFF || unicode.IsSpace(r) {
			continue
		}
		switch r {
		case '~', '*', '[', ']':
			continue
		}
		res = append(res, r)
	}
	return res
}

// Constraints converts a search string into one equality filter per token,
// each matching tokenMap.<token> == true.
func Constraints(s string) ([]domain.Constraint, error) {
	tokens, err := Tokens(s)
	if err != nil {
		return nil, err
	}
	res := make([]domain.Constraint, len(tokens))
	for i, tok := range tokens {
		res[i] = domain.Where{Field: FieldName + "." + tok, Op: "==", Value: true}
	}
	return res, nil
}

// Build computes the token-presence map for a document from the values of
// the given fields. Non-string and empty values contribute nothing.
func Build(fields []string, doc data.M) data.M {
	res := data.M{}
	for _, field := range fields {
		v, ok := data.GetPath(doc, field)
		if !ok {
			continue
		}
		s, ok := v.(string)
		if ok && strings.TrimSpace(s) != "" {
			tokens, err := Tokens(s)
			if err != nil {
				continue
			}
			for _, tok := range tokens {
				res[tok] = true
			}
		}
	}
	return res
}
