package wikipedia

import (
	"encoding/base64"
	"strings"
)

// Pagination cursors are opaque to callers: a base64url encoding (no
// padding) of "rvcontinue=<token>&continue=<param>". Only this codec may
// build or take them apart.

const defaultContinueParam = "||"

// EncodeCursor serializes a MediaWiki continuation pair into an opaque
// cursor. An empty token means there is nothing to resume and yields "".
func EncodeCursor(token, param string) string {
	if token == "" {
		return ""
	}
	if param == "" {
		param = defaultContinueParam
	}
	raw := "rvcontinue=" + token + "&continue=" + param
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor is the inverse of EncodeCursor. It never fails: malformed
// input degrades to an empty pair, which restarts the fetch from the most
// recent revision. Cursors from older clients were the raw rvcontinue
// value; those always contain a pipe and are accepted as-is.
func DecodeCursor(cursor string) (token, param string) {
	if cursor == "" {
		return "", ""
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		decoded, err = base64.URLEncoding.DecodeString(cursor)
	}
	if err != nil {
		if strings.Contains(cursor, "|") {
			return cursor, defaultContinueParam
		}
		return "", ""
	}

	for _, part := range strings.Split(string(decoded), "&") {
		idx := strings.Index(part, "=")
		if idx <= 0 {
			continue
		}
		switch part[:idx] {
		case "rvcontinue":
			token = part[idx+1:]
		case "continue":
			param = part[idx+1:]
		}
	}
	return token, param
}
