package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDocumentIDRoundTrip(t *testing.T) {
	url := "https://site.test/recipe/iced-coconut-latte"
	id := DocumentID(url)

	// Deterministic and safe to use as an Elasticsearch document id.
	require.Equal(t, id, DocumentID(url))
	require.NotContains(t, id, "/")
	require.NotContains(t, id, "+")

	back, err := DocumentURL(id)
	require.NoError(t, err)
	require.Equal(t, url, back)
}

func TestDocumentIDDistinguishesURLs(t *testing.T) {
	require.NotEqual(t,
		DocumentID("https://site.test/recipe/a"),
		DocumentID("https://site.test/recipe/b"),
	)
}

func TestDocumentURLRejectsGarbage(t *testing.T) {
	_, err := DocumentURL("not base64 ***")
	require.Error(t, err)
}
