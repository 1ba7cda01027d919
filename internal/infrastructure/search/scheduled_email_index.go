package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
)

// ScheduledEmailIndex mirrors scheduled emails into Elasticsearch so
// administrators can search subjects, bodies and recipients.
type ScheduledEmailIndex struct {
	ES        *elasticsearch.Client
	IndexName string
	Logger    *logrus.Logger
}

func NewScheduledEmailIndex(es *elasticsearch.Client, index string, logger *logrus.Logger) *ScheduledEmailIndex {
	return &ScheduledEmailIndex{ES: es, IndexName: index, Logger: logger}
}

type document struct {
	ID          string    `json:"id"`
	State       string    `json:"state"`
	Signal      string    `json:"signal"`
	ScheduledAt time.Time `json:"scheduled_at"`
	ToHeader    []string  `json:"to_header"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Relation    string    `json:"generic_relation"`
	UpdatedAt   time.Time `json:"last_updated_at"`
}

func toDocument(e *entity.ScheduledEmail) document {
	d := document{
		ID:          e.ID.String(),
		State:       string(e.State),
		ScheduledAt: e.ScheduledAt,
		ToHeader:    e.ToHeader,
		Subject:     e.Subject,
		Body:        e.Body,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.Template != nil {
		d.Signal = e.Template.Signal
	}
	if !e.Relation.IsZero() {
		d.Relation = e.Relation.String()
	}
	return d
}

var indexMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"id":               map[string]any{"type": "keyword"},
			"state":            map[string]any{"type": "keyword"},
			"signal":           map[string]any{"type": "keyword"},
			"scheduled_at":     map[string]any{"type": "date"},
			"to_header":        map[string]any{"type": "text", "fields": map[string]any{"raw": map[string]any{"type": "keyword"}}},
			"subject":          map[string]any{"type": "text"},
			"body":             map[string]any{"type": "text"},
			"generic_relation": map[string]any{"type": "keyword"},
			"last_updated_at":  map[string]any{"type": "date"},
		},
	},
}

// EnsureIndex creates the index with keyword mappings for the filterable
// fields when it does not exist yet.
func (s *ScheduledEmailIndex) EnsureIndex(ctx context.Context) error {
	if s.ES == nil || s.IndexName == "" {
		return nil
	}
	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := esapi.IndicesExistsRequest{Index: []string{s.IndexName}}.Do(c, s.ES)
	if err != nil {
		return err
	}
	_ = exists.Body.Close()
	if exists.StatusCode == 200 {
		return nil
	}
	if exists.StatusCode != 404 {
		return fmt.Errorf("es index exists response: %s", exists.Status())
	}

	b, err := json.Marshal(indexMapping)
	if err != nil {
		return err
	}
	res, err := esapi.IndicesCreateRequest{Index: s.IndexName, Body: bytes.NewReader(b)}.Do(c, s.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es create index response: %s", res.Status())
	}
	if s.Logger != nil {
		s.Logger.WithField("index", s.IndexName).Info("search index created")
	}
	return nil
}

func (s *ScheduledEmailIndex) Index(ctx context.Context, e *entity.ScheduledEmail) error {
	if s.ES == nil || s.IndexName == "" {
		return nil
	}
	b, err := json.Marshal(toDocument(e))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: s.IndexName, DocumentID: e.ID.String(), Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index response: %s", res.Status())
	}
	return nil
}

// Hit is one search result.
type Hit struct {
	ID          string    `json:"id"`
	State       string    `json:"state"`
	Signal      string    `json:"signal"`
	ScheduledAt time.Time `json:"scheduled_at"`
	ToHeader    []string  `json:"to_header"`
	Subject     string    `json:"subject"`
	Relation    string    `json:"generic_relation"`
}

// Search runs a multi_match over subject, recipients and body, optionally
// filtered by state.
func (s *ScheduledEmailIndex) Search(ctx context.Context, q, state string, size int) ([]Hit, error) {
	if s.ES == nil || s.IndexName == "" {
		return []Hit{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	boolQuery := map[string]any{
		"must": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"subject^2", "to_header", "body"},
			},
		},
	}
	if state != "" {
		boolQuery["filter"] = map[string]any{"term": map[string]any{"state": state}}
	}
	query := map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"size":  size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.IndexName), s.ES.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search response: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source Hit `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
