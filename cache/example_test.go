package cache_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/cachemeta/cache"
)

func ExampleNewMemoryStore() {
	store := cache.NewMemoryStore()
	ctx := context.Background()

	// Store a value
	_ = store.Set(ctx, "my-key", []byte("hello"), cache.Permanent, nil)

	// Retrieve the value
	entry, ok, _ := store.Get(ctx, "my-key")
	if ok {
		fmt.Println("Value:", string(entry.Payload))
	}
	// Output:
	// Value: hello
}

func ExampleMemoryStore_InvalidateTags() {
	store := cache.NewMemoryStore()
	ctx := context.Background()

	_ = store.Set(ctx, "node:1:teaser", []byte("..."), cache.Permanent, []string{"node:1"})
	_ = store.Set(ctx, "frontpage", []byte("..."), cache.Permanent, []string{"node:1", "node_list"})
	_ = store.Set(ctx, "user:7", []byte("..."), cache.Permanent, []string{"user:7"})

	_ = store.InvalidateTags(ctx, "node:1")

	for _, key := range []string{"node:1:teaser", "frontpage", "user:7"} {
		_, ok, _ := store.Get(ctx, key)
		fmt.Println(key, ok)
	}
	// Output:
	// node:1:teaser false
	// frontpage false
	// user:7 true
}

func ExampleExpiry_Expired() {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := cache.ExpireAt(at)

	fmt.Println(e.Expired(at))
	fmt.Println(e.Expired(at.Add(time.Second)))
	fmt.Println(cache.Permanent.Expired(at.AddDate(100, 0, 0)))
	// Output:
	// false
	// true
	// false
}

func ExampleRegistry() {
	registry := cache.NewRegistry(cache.WithFactory(func(bin string) (cache.Store, error) {
		return cache.NewMemoryStore(), nil
	}))
	_ = registry.Register(cache.DefaultBin, cache.NewMemoryStore())

	_, _ = registry.Get("render")
	fmt.Println(registry.Bins())
	// Output:
	// [default render]
}

func ExampleValidateKey() {
	fmt.Println(cache.ValidateKey("valid-key"))
	fmt.Println(errors.Is(cache.ValidateKey(""), cache.ErrInvalidKey))
	fmt.Println(errors.Is(cache.ValidateKey("line\nbreak"), cache.ErrInvalidKey))
	// Output:
	// <nil>
	// true
	// true
}
