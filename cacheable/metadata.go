package cacheable

import "sort"

// Dependency is anything that carries cacheability metadata which should
// influence how a dependent value is cached.
type Dependency interface {
	CacheContexts() []string
	CacheTags() []string
	CacheMaxAge() MaxAge
}

// Metadata describes under which identity and for how long a value may be
// cached: fixed key parts, refinable contexts and tags, and a max-age.
//
// Keys never change after construction. Contexts only grow. Tags grow
// through AddTags and are replaced wholesale by SetTags. Metadata is not
// safe for concurrent use.
type Metadata struct {
	keys      []string
	contexts  map[string]struct{}
	tags      map[string]struct{}
	maxAge    MaxAge
	maxAgeSet bool
}

// NewMetadata creates metadata with the given base key parts.
func NewMetadata(keys ...string) *Metadata {
	return &Metadata{
		keys:     append([]string(nil), keys...),
		contexts: make(map[string]struct{}),
		tags:     make(map[string]struct{}),
	}
}

// Keys returns a copy of the base key parts.
func (m *Metadata) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Contexts returns the context IDs, sorted.
func (m *Metadata) Contexts() []string {
	return sortedSet(m.contexts)
}

// AddContexts merges ids into the context set and reports whether the set
// grew. Empty IDs are ignored.
func (m *Metadata) AddContexts(ids ...string) bool {
	return addAll(m.contexts, ids)
}

// Tags returns the tags, sorted.
func (m *Metadata) Tags() []string {
	return sortedSet(m.tags)
}

// AddTags merges tags into the tag set.
func (m *Metadata) AddTags(tags ...string) {
	addAll(m.tags, tags)
}

// SetTags replaces the tag set.
func (m *Metadata) SetTags(tags []string) {
	m.tags = make(map[string]struct{}, len(tags))
	addAll(m.tags, tags)
}

// MaxAge returns the max-age and whether it has been set.
func (m *Metadata) MaxAge() (MaxAge, bool) {
	return m.maxAge, m.maxAgeSet
}

// SetMaxAge sets the max-age. Negative values are Permanent.
func (m *Metadata) SetMaxAge(age MaxAge) {
	if age < 0 {
		age = Permanent
	}
	m.maxAge = age
	m.maxAgeSet = true
}

// MergeMaxAge lowers the max-age to age if age is more restrictive. Unset
// metadata adopts age.
func (m *Metadata) MergeMaxAge(age MaxAge) {
	if !m.maxAgeSet {
		m.SetMaxAge(age)
		return
	}
	m.SetMaxAge(MergeMaxAges(m.maxAge, age))
}

// AddDependency merges the contexts, tags and max-age of d and reports
// whether the context set grew.
func (m *Metadata) AddDependency(d Dependency) bool {
	grew := m.AddContexts(d.CacheContexts()...)
	m.AddTags(d.CacheTags()...)
	m.MergeMaxAge(d.CacheMaxAge())
	return grew
}

// Disabled reports whether caching was explicitly turned off with a zero
// max-age.
func (m *Metadata) Disabled() bool {
	return m.maxAgeSet && m.maxAge == 0
}

// CacheContexts implements Dependency.
func (m *Metadata) CacheContexts() []string { return m.Contexts() }

// CacheTags implements Dependency.
func (m *Metadata) CacheTags() []string { return m.Tags() }

// CacheMaxAge implements Dependency. Unset metadata is Permanent.
func (m *Metadata) CacheMaxAge() MaxAge {
	if !m.maxAgeSet {
		return Permanent
	}
	return m.maxAge
}

func addAll(set map[string]struct{}, items []string) bool {
	grew := false
	for _, item := range items {
		if item == "" {
			continue
		}
		if _, ok := set[item]; ok {
			continue
		}
		set[item] = struct{}{}
		grew = true
	}
	return grew
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for item := range set {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

// Ensure Metadata implements Dependency
var _ Dependency = (*Metadata)(nil)
