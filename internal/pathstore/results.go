package pathstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgallion1/pdfaccess/internal/accessibility"
)

const resultPrefix = "pdfaccess/results/"

// ResultStore keeps extraction results under pdfaccess/results/<cache key>.
type ResultStore struct {
	client *Client
	now    func() time.Time
}

func NewResultStore(client *Client) *ResultStore {
	return &ResultStore{client: client, now: time.Now}
}

// Get returns the stored result for key. Results past their expiry are
// deleted and reported as missing.
func (s *ResultStore) Get(ctx context.Context, key string) (*accessibility.ExtractionResult, bool, error) {
	node, err := s.client.GetNode(ctx, resultPrefix+key)
	if err != nil || node == nil {
		return nil, false, err
	}
	var res accessibility.ExtractionResult
	if err := json.Unmarshal(node.Value, &res); err != nil {
		return nil, false, fmt.Errorf("decode result %s: %w", key, err)
	}
	if !res.ExpiresAt.IsZero() && !s.now().Before(res.ExpiresAt) {
		if err := s.client.DeleteNode(ctx, resultPrefix+key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return &res, true, nil
}

func (s *ResultStore) Put(ctx context.Context, key string, res *accessibility.ExtractionResult, ttl time.Duration) error {
	value, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return s.client.PutNode(ctx, resultPrefix+key, NodeRequest{
		Value:      value,
		MemoryType: "cache",
		Source:     "pdfaccess",
		ExpiresAt:  s.now().Add(ttl).UTC().Format(time.RFC3339),
	})
}
