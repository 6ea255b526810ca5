// internal/platform/search.go
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"talent-intake/internal/common/errors"
	"talent-intake/internal/common/logger"
	"talent-intake/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ApplicationMapping is the index mapping for application documents.
const ApplicationMapping = `{
	"mappings": {
		"properties": {
			"full_name": {"type": "text"},
			"email": {"type": "keyword"},
			"phone_number": {"type": "keyword"},
			"role": {"type": "keyword"},
			"other_role_specify": {"type": "text"},
			"experience_years": {"type": "keyword"},
			"education_level": {"type": "keyword"},
			"top_skills": {"type": "text", "fields": {"raw": {"type": "keyword"}}},
			"measurable_achievement": {"type": "text"},
			"priority_reason": {"type": "text"},
			"screening_status": {"type": "keyword"},
			"rating": {"type": "integer"},
			"created_at": {"type": "date"}
		}
	}
}`

// SearchIndex keeps a full-text index of applications in Elasticsearch.
type SearchIndex struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewSearchIndex(client *elasticsearch.Client, index string, log logger.Logger) *SearchIndex {
	return &SearchIndex{
		client: client,
		index:  index,
		logger: logger.ForComponent(log, "search"),
	}
}

// Index writes (or replaces) the document for app.
func (s *SearchIndex) Index(ctx context.Context, app models.Application) error {
	body, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("marshal application: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: app.ID,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewSearchQueryFailedError("index", fmt.Errorf("%s", res.String()))
	}

	s.logger.Debug("application indexed", map[string]interface{}{"applicationId": app.ID})
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID    string  `json:"_id"`
			Score float64 `json:"_score"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search returns the ids of applications matching text, best match first.
func (s *SearchIndex) Search(ctx context.Context, text string, limit int) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query": text,
				"fields": []string{
					"full_name^3", "email^2", "phone_number^2", "role",
					"other_role_specify", "top_skills", "measurable_achievement", "priority_reason",
				},
				"type":      "best_fields",
				"fuzziness": "AUTO",
			},
		},
		"_source": false,
	}
	body, _ := json.Marshal(query)

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &limit,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, errors.NewIndexNotFoundError(s.index)
	}
	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError("applications", fmt.Errorf("%s", res.String()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchQueryFailedError("applications", err)
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}
