// Package cache provides the storage layer behind cacheable accessors.
//
// It defines the Store interface with memory, Redis and memcached
// implementations, absolute Expiry values with a Permanent sentinel, an
// injectable Clock, and a Registry that maps named bins to stores.
package cache
