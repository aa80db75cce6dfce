package casestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"renovation-scope/internal/models"
)

// DocumentSource resolves document ids to their metadata.
type DocumentSource interface {
	Documents(ctx context.Context, ids []string) ([]models.Document, error)
}

// DocumentIndex reads document metadata from an Elasticsearch index.
type DocumentIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewDocumentIndex(client *elasticsearch.Client, index string) *DocumentIndex {
	return &DocumentIndex{client: client, index: index}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string `json:"_id"`
			Source struct {
				Name    string `json:"name"`
				DocType string `json:"doc_type"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Documents returns the documents found for ids in request order. Unknown
// ids are skipped.
func (d *DocumentIndex) Documents(ctx context.Context, ids []string) ([]models.Document, error) {
	if len(ids) == 0 {
		return []models.Document{}, nil
	}

	body, err := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{
			"ids": map[string]interface{}{"values": ids},
		},
		"_source": []string{"name", "doc_type"},
	})
	if err != nil {
		return nil, fmt.Errorf("encode document query: %w", err)
	}

	size := len(ids)
	req := esapi.SearchRequest{
		Index: []string{d.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}
	res, err := req.Do(ctx, d.client)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search documents: %s", res.Status())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode document hits: %w", err)
	}

	byID := make(map[string]models.Document, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		byID[hit.ID] = models.Document{ID: hit.ID, Name: hit.Source.Name, DocType: hit.Source.DocType}
	}
	docs := make([]models.Document, 0, len(byID))
	for _, id := range ids {
		if doc, ok := byID[id]; ok {
			docs = append(docs, doc)
			delete(byID, id)
		}
	}
	return docs, nil
}
