// Package vectorstore persists page documents in Elasticsearch and serves
// k-nearest-neighbor similarity search over their embeddings.
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/kitchenwise/recipechat/internal/config"
)

// Document is the vector-store-ready representation of one page. The id is
// the upsert key: re-uploading the same id overwrites in place.
type Document struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// Hit is one ranked search result.
type Hit struct {
	ID   string
	Text string
}

// UploadReport partitions a bulk upload by per-document status.
type UploadReport struct {
	Succeeded int
	Failed    int
	FailedIDs []string
}

// Store talks to one Elasticsearch index.
type Store struct {
	client *elasticsearch.Client
	index  string
	dims   int
	logger *zap.Logger
}

// New builds a Store from configuration.
func New(cfg config.ElasticConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		APIKey:    cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("new elasticsearch client: %w", err)
	}
	return &Store{client: client, index: cfg.Index, dims: cfg.Dims, logger: logger}, nil
}

// EnsureIndex creates the index with its dense_vector mapping unless it
// already exists.
func (s *Store) EnsureIndex(ctx context.Context) error {
	existsRes, err := esapi.IndicesExistsRequest{Index: []string{s.index}}.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	defer closeBody(existsRes)
	if existsRes.StatusCode == 200 {
		return nil
	}

	mapping := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"id":   map[string]any{"type": "keyword"},
				"type": map[string]any{"type": "keyword"},
				"text": map[string]any{"type": "text"},
				"embedding": map[string]any{
					"type":       "dense_vector",
					"dims":       s.dims,
					"index":      true,
					"similarity": "cosine",
				},
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(mapping); err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}

	createRes, err := esapi.IndicesCreateRequest{Index: s.index, Body: &buf}.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer closeBody(createRes)
	if createRes.IsError() {
		return fmt.Errorf("create index: %s", createRes.String())
	}
	s.logger.Info("created vector index", zap.String("index", s.index))
	return nil
}

// Upload bulk-indexes the documents keyed by id. Failures are partitioned
// per document and reported, never retried here.
func (s *Store) Upload(ctx context.Context, docs []Document) (UploadReport, error) {
	if len(docs) == 0 {
		return UploadReport{}, nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		action := map[string]any{"index": map[string]any{"_index": s.index, "_id": doc.ID}}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return UploadReport{}, fmt.Errorf("encode bulk action: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(doc); err != nil {
			return UploadReport{}, fmt.Errorf("encode bulk document: %w", err)
		}
	}

	res, err := s.client.Bulk(&buf, s.client.Bulk.WithContext(ctx))
	if err != nil {
		return UploadReport{}, fmt.Errorf("bulk upload: %w", err)
	}
	defer closeBody(res)
	if res.IsError() {
		return UploadReport{}, fmt.Errorf("bulk upload: %s", res.String())
	}

	var bulkRes esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkRes); err != nil {
		return UploadReport{}, fmt.Errorf("decode bulk response: %w", err)
	}

	var report UploadReport
	for _, item := range bulkRes.Items {
		status := item.Index.Status
		if status >= 200 && status < 300 {
			report.Succeeded++
			continue
		}
		report.Failed++
		report.FailedIDs = append(report.FailedIDs, item.Index.ID)
	}
	return report, nil
}

// Search runs a kNN query against the embedding field and returns the top-k
// documents. Zero matches is an empty slice, not an error.
func (s *Store) Search(ctx context.Context, embedding []float32, k int) ([]Hit, error) {
	query := map[string]any{
		"knn": map[string]any{
			"field":          "embedding",
			"query_vector":   embedding,
			"k":              k,
			"num_candidates": k * 10,
		},
		"_source": []string{"id", "type", "text"},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("encode knn query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}
	defer closeBody(res)
	if res.IsError() {
		return nil, fmt.Errorf("knn search: %s", res.String())
	}

	var searchRes esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&searchRes); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]Hit, 0, len(searchRes.Hits.Hits))
	for _, h := range searchRes.Hits.Hits {
		hits = append(hits, Hit{ID: h.ID, Text: h.Source.Text})
	}
	return hits, nil
}

// AllIDs scans every document id in the index.
func (s *Store) AllIDs(ctx context.Context) ([]string, error) {
	query := map[string]any{
		"query":   map[string]any{"match_all": map[string]any{}},
		"_source": false,
		"size":    1000,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("encode scan query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("scan ids: %w", err)
	}
	defer closeBody(res)
	if res.IsError() {
		return nil, fmt.Errorf("scan ids: %s", res.String())
	}

	var searchRes esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&searchRes); err != nil {
		return nil, fmt.Errorf("decode scan response: %w", err)
	}

	ids := make([]string, 0, len(searchRes.Hits.Hits))
	for _, h := range searchRes.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

// Purge deletes every document in the index by id.
func (s *Store) Purge(ctx context.Context) (int, error) {
	ids, err := s.AllIDs(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	for _, id := range ids {
		action := map[string]any{"delete": map[string]any{"_index": s.index, "_id": id}}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return 0, fmt.Errorf("encode delete action: %w", err)
		}
	}

	res, err := s.client.Bulk(&buf, s.client.Bulk.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("bulk delete: %w", err)
	}
	defer closeBody(res)
	if res.IsError() {
		return 0, fmt.Errorf("bulk delete: %s", res.String())
	}
	return len(ids), nil
}

type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
		} `json:"index"`
	} `json:"items"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string `json:"_id"`
			Source struct {
				Text string `json:"text"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func closeBody(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}
}
