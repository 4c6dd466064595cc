package reconcile

import "strings"

// The correlation token is the source project ID, stored as the last line of a
// story's details in the form [id](<token>). It is the only link between the
// two systems. Tokens containing ")" or newlines are not supported.
const (
	tokenPrefix = "[id]("
	tokenSuffix = ")"
)

// ExtractToken returns the source project ID embedded in a story's details.
// The token is present only if the final line is exactly [id](<non-empty token>).
func ExtractToken(details string) (string, bool) {
	if details == "" {
		return "", false
	}
	last := details[strings.LastIndexByte(details, '\n')+1:]
	if !strings.HasPrefix(last, tokenPrefix) || !strings.HasSuffix(last, tokenSuffix) {
		return "", false
	}
	token := last[len(tokenPrefix) : len(last)-len(tokenSuffix)]
	if token == "" {
		return "", false
	}
	return token, true
}

// EmbedToken appends the token line to free-form text.
func EmbedToken(text, token string) string {
	return text + "\n" + tokenPrefix + token + tokenSuffix
}

// FreeText strips the trailing token line from details, if any.
func FreeText(details string) string {
	if _, ok := ExtractToken(details); !ok {
		return details
	}
	i := strings.LastIndexByte(details, '\n')
	if i < 0 {
		return ""
	}
	return details[:i]
}
