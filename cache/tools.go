package cache

import (
	"context"
	"fmt"
	"reflect"

	"github.com/magic-lib/go-plat-utils/conv"
	"github.com/magic-lib/go-plat-utils/goroutines"
)

func strToVal[V any](valueStr string) (V, error) {
	var value V
	newValuePtr := conv.NewPtrByType(reflect.TypeOf(value))
	if err := conv.Unmarshal(valueStr, newValuePtr); err != nil {
		var zero V
		return zero, fmt.Errorf("decode cache value: %w", err)
	}
	if v, ok := newValuePtr.(V); ok {
		return v, nil
	}
	if ptr, ok := newValuePtr.(*V); ok {
		return *ptr, nil
	}
	return value, nil
}

// getContext 取得默认的ctx
func getContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	ctxPtr, _, _ := goroutines.GetContext()
	if ctxPtr == nil {
		ctxOne := context.Background()
		ctxPtr = &ctxOne
	}
	return *ctxPtr
}
