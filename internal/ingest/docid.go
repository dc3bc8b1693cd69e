package ingest

import (
	"encoding/base64"
	"fmt"
)

// DocumentID derives the vector-store key for a page URL. The encoding is
// deterministic and reversible, so the same URL always overwrites its own
// document and an id can be mapped back to its source page.
func DocumentID(pageURL string) string {
	return base64.URLEncoding.EncodeToString([]byte(pageURL))
}

// DocumentURL recovers the page URL from a document id.
func DocumentURL(id string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(id)
	if err != nil {
		return "", fmt.Errorf("decode document id: %w", err)
	}
	return string(raw), nil
}
