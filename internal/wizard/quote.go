// File: internal/wizard/quote.go

// Package wizard implements the scan command wizard engine: mode-driven
// option resolution, local validation, and deterministic command preview
// assembly. The preview string is for the operator's eyes only; the backend
// builds the real invocation from the structured request.
package wizard

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// safeToken matches tokens that can appear bare in a POSIX shell preview.
var safeToken = regexp.MustCompile(`^[A-Za-z0-9_./:=@-]+$`)

// QuoteToken renders one token for the command preview. Safe tokens stay
// bare; anything else is single-quoted with embedded single quotes escaped as
// '\''. An empty token renders as ''.
func QuoteToken(token string) string {
	if token == "" {
		return "''"
	}
	if safeToken.MatchString(token) {
		return token
	}
	return "'" + strings.ReplaceAll(token, "'", `'\''`) + "'"
}

// JoinTokens renders a full command line from tokens, quoting each one.
func JoinTokens(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, token := range tokens {
		quoted[i] = QuoteToken(token)
	}
	return strings.Join(quoted, " ")
}

// SplitArgs splits a user-supplied extra-argument string into tokens,
// honoring single and double quotes. It returns an error on an unterminated
// quote so the wizard can surface it as a validation failure instead of
// submitting garbage.
func SplitArgs(raw string) ([]string, error) {
	var (
		tokens  []string
		current strings.Builder
		inToken bool
		quote   rune
	)
	for _, r := range raw {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case r == ' ' || r == '\t' || r == '\n':
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote in arguments", quote)
	}
	if inToken {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}

// ParseIntInRange parses raw as a whole number and checks it lies in
// [min, max].
func ParseIntInRange(raw string, min, max int) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number", raw)
	}
	if value < min || value > max {
		return 0, fmt.Errorf("%d is outside [%d, %d]", value, min, max)
	}
	return value, nil
}
