// Package cacheable caches arbitrary data by cacheability metadata instead of
// hand-built keys.
//
// Callers describe a value with base key parts, context IDs, tags and a
// max-age. An Accessor derives the cache identifier from the key parts and
// the resolved contexts, joined with ":", and reads or writes one entry of a
// cache.Store:
//
//	acc, err := factory.Create("catalog", "featured")
//	if err != nil {
//		return err
//	}
//	acc.AddContexts("user.roles").AddTags("product_list")
//	if data, ok, _ := acc.GetData(ctx); ok {
//		return use(data)
//	}
//	data := build()
//	acc.SetMaxAge(cacheable.Seconds(300))
//	_, _ = acc.SetData(ctx, data)
//
// A zero max-age makes an accessor uncacheable: GetData misses and SetData
// writes nothing.
package cacheable
