package cache

import (
	"encoding/gob"
	"fmt"
	"io"
	"time"

	"github.com/jwekke/ai-cli/internal/proto"
)

const (
	modelsID = "models"

	// ModelsTTL is how long a fetched model catalog stays valid.
	ModelsTTL = time.Hour
)

// Models caches the model catalog of the API.
type Models struct {
	cache *ExpiringCache[[]proto.Model]
	now   func() time.Time
}

// NewModels creates a new model catalog cache.
func NewModels(dir string) (*Models, error) {
	cache, err := NewExpiring[[]proto.Model](dir)
	if err != nil {
		return nil, err
	}
	return &Models{cache: cache, now: time.Now}, nil
}

// Read returns the cached catalog. It fails with [os.ErrNotExist] when
// nothing valid is cached.
func (m *Models) Read() ([]proto.Model, error) {
	var models []proto.Model
	if err := m.cache.Read(modelsID, func(r io.Reader) error {
		return decodeModels(r, &models)
	}); err != nil {
		return nil, err
	}
	return models, nil
}

// Write stores the catalog for [ModelsTTL].
func (m *Models) Write(models []proto.Model) error {
	expiresAt := m.now().Add(ModelsTTL).Unix()
	return m.cache.Write(modelsID, expiresAt, func(w io.Writer) error {
		return encodeModels(w, models)
	})
}

// Fetch returns the cached catalog, calling fetch and caching its result
// when nothing valid is cached.
func (m *Models) Fetch(fetch func() ([]proto.Model, error)) ([]proto.Model, error) {
	if models, err := m.Read(); err == nil {
		return models, nil
	}
	models, err := fetch()
	if err != nil {
		return nil, err
	}
	if err := m.Write(models); err != nil {
		return models, err
	}
	return models, nil
}

func encodeModels(w io.Writer, models []proto.Model) error {
	if err := gob.NewEncoder(w).Encode(models); err != nil {
		return fmt.Errorf("encode models: %w", err)
	}
	return nil
}

func decodeModels(r io.Reader, models *[]proto.Model) error {
	if err := gob.NewDecoder(r).Decode(models); err != nil {
		return fmt.Errorf("decode models: %w", err)
	}
	return nil
}
