package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/tthanhhau/shopsearch/internal/domain"
	"github.com/tthanhhau/shopsearch/internal/query"
)

// esSuggestResponse decodes engine completion-suggest responses.
type esSuggestResponse struct {
	Suggest struct {
		ProductSuggest []struct {
			Options []struct {
				Text  string  `json:"text"`
				Score float64 `json:"_score"`
			} `json:"options"`
		} `json:"product_suggest"`
	} `json:"suggest"`
}

// Suggest returns up to limit autocomplete completions for the prefix,
// using the completion field over product names.
func (e *Engine) Suggest(ctx context.Context, prefix string, limit int) ([]domain.Suggestion, error) {
	body := query.SuggestBody(prefix, limit)

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch suggest: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch suggest: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch suggest: %s", e.errorReason(res.Body, res.Status()))
	}

	var esResp esSuggestResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch suggest: decode response: %w", err)
	}

	suggestions := make([]domain.Suggestion, 0, limit)
	for _, entry := range esResp.Suggest.ProductSuggest {
		for _, opt := range entry.Options {
			suggestions = append(suggestions, domain.Suggestion{
				Text:  opt.Text,
				Score: opt.Score,
			})
		}
	}
	return suggestions, nil
}
