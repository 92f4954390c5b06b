// Package contexts resolves abstract cache context identifiers into
// concrete cache key fragments.
//
// A context ID names an axis of variation such as "user.roles" or
// "url.query_args:page". The part before the first colon selects a
// registered Provider; the optional part after it is passed to the provider
// as a parameter.
//
// Manager.Resolve is deterministic for a fixed set of IDs: duplicates are
// removed, IDs covered by a broader requested context are dropped, and the
// remaining IDs are resolved in sorted order into "[id]=value" fragments.
package contexts
