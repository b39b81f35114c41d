package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrCorruptEntry indica uma entrada que não pôde ser decodificada.
var ErrCorruptEntry = errors.New("cache: corrupt entry")

// Store é o contrato dos backends de cache.
//
// Get devolve ok=false quando a chave não existe, quando maxAge <= 0 ou
// quando a entrada é mais velha que maxAge (nesse caso ela é apagada).
type Store interface {
	Get(ctx context.Context, key string, maxAge time.Duration) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte) error
}

// entry é o formato persistido pelos backends file e redis:
// {"data": ..., "timestamp": <epoch ms>}.
type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

func newEntry(data []byte, now time.Time) ([]byte, error) {
	return json.Marshal(entry{Data: data, Timestamp: now.UnixMilli()})
}

func parseEntry(raw []byte) (entry, error) {
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return entry{}, ErrCorruptEntry
	}
	return e, nil
}

func expired(storedAt, now time.Time, maxAge time.Duration) bool {
	return now.Sub(storedAt) > maxAge
}
