package cache

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// envelope 字节型存储的值，附带过期时间
type envelope[V any] struct {
	Data     V     `msgpack:"d"`
	ExpireAt int64 `msgpack:"e"` // UnixNano，0 表示永不过期
}

func (e *envelope[V]) expired(now time.Time) bool {
	return e.ExpireAt != 0 && now.UnixNano() >= e.ExpireAt
}

func encodeEnvelope[V any](val V, at time.Time) ([]byte, error) {
	env := envelope[V]{Data: val}
	if !at.IsZero() {
		env.ExpireAt = at.UnixNano()
	}
	b, err := msgpack.Marshal(&env)
	if err != nil {
		return nil, fmt.Errorf("encode cache value: %w", err)
	}
	return b, nil
}

func decodeEnvelope[V any](b []byte) (*envelope[V], error) {
	env := new(envelope[V])
	if err := msgpack.Unmarshal(b, env); err != nil {
		return nil, fmt.Errorf("decode cache value: %w", err)
	}
	return env, nil
}

func encodeValue[V any](val V) (string, error) {
	b, err := msgpack.Marshal(val)
	if err != nil {
		return "", fmt.Errorf("encode cache value: %w", err)
	}
	return string(b), nil
}

func decodeValue[V any](s string) (V, error) {
	var v V
	if err := msgpack.Unmarshal([]byte(s), &v); err != nil {
		return v, fmt.Errorf("decode cache value: %w", err)
	}
	return v, nil
}
