package keyset

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var segmentDecoder = jwt.NewParser()

// keyIDFromToken decodes only the header segment; nothing is verified yet.
func keyIDFromToken(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", malformed("Malformed JWT", jwt.ErrTokenMalformed)
	}

	raw, err := segmentDecoder.DecodeSegment(parts[0])
	if err != nil {
		return "", malformed("Malformed JWT", err)
	}

	var header map[string]any
	if err := json.Unmarshal(raw, &header); err != nil {
		return "", malformed("Malformed JWT", err)
	}

	// An empty kid is treated as absent: the fetcher never caches a key
	// without an id, so resolving "" could only end in a wasted fetch.
	kid, ok := header["kid"].(string)
	if !ok || kid == "" {
		return "", &Error{Kind: KindNoKeyID}
	}
	return kid, nil
}
