// file: internal/registry/resources.go
package registry

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/dkoosis/mcpkit/internal/logging"
	"github.com/dkoosis/mcpkit/internal/protoerr"
	"github.com/dkoosis/mcpkit/pkg/mcp"
)

type registeredResource struct {
	def        mcp.ResourceDefinition
	scheme     string
	path       string
	literalLen int // length of the pattern's path up to its first '*'.
	matcher    *regexp.Regexp
	order      int // registration sequence, for the earliest-wins tiebreak.
}

// ResourceRegistry holds resource definitions keyed by URI pattern, with
// scheme/glob matching on lookup per spec.md §4.6.
type ResourceRegistry struct {
	mu        sync.RWMutex
	byPattern map[string]*registeredResource
	nextOrder int
	cursors   *cursorStore
	logger    logging.Logger
}

// NewResourceRegistry constructs an empty registry.
func NewResourceRegistry(logger logging.Logger) *ResourceRegistry {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &ResourceRegistry{
		byPattern: make(map[string]*registeredResource),
		cursors:   newCursorStore(),
		logger:    logger.WithField("component", "resource_registry"),
	}
}

// Register adds def, keyed by its URIPattern. Duplicate patterns are
// rejected.
func (r *ResourceRegistry) Register(def mcp.ResourceDefinition) error {
	parsed, err := url.Parse(def.URIPattern)
	if err != nil || parsed.Scheme == "" {
		return protoerr.WithDetails(protoerr.KindInvalidParams,
			"resource uriPattern must include a scheme", map[string]interface{}{"uriPattern": def.URIPattern})
	}

	path := parsed.Opaque
	if path == "" {
		path = parsed.Host + parsed.Path
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byPattern[def.URIPattern]; exists {
		return protoerr.WithDetails(protoerr.KindInvalidParams,
			"resource pattern already registered", map[string]interface{}{"uriPattern": def.URIPattern})
	}

	rr := &registeredResource{
		def:        def,
		scheme:     parsed.Scheme,
		path:       path,
		literalLen: literalPrefixLen(path),
		matcher:    globToRegexp(path),
		order:      r.nextOrder,
	}
	r.nextOrder++
	r.byPattern[def.URIPattern] = rr
	r.logger.Debug("registered resource pattern", "pattern", def.URIPattern)
	return nil
}

// Unregister removes a resource by its exact pattern string.
func (r *ResourceRegistry) Unregister(pattern string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byPattern, pattern)
}

// Lookup resolves uri against registered patterns: scheme-exact, then
// preferring (a) exact path match, (b) longest literal prefix, (c)
// earliest registration. ValidateURI, if set on the winning definition, is
// consulted last and can still fail the lookup with InvalidParams.
func (r *ResourceRegistry) Lookup(uri string) (mcp.ResourceDefinition, error) {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme == "" {
		return mcp.ResourceDefinition{}, protoerr.WithDetails(protoerr.KindInvalidParams,
			"resource uri must include a scheme", map[string]interface{}{"uri": uri})
	}
	path := parsed.Opaque
	if path == "" {
		path = parsed.Host + parsed.Path
	}

	r.mu.RLock()
	var best *registeredResource
	for _, candidate := range r.byPattern {
		if candidate.scheme != parsed.Scheme {
			continue
		}
		if !candidate.matcher.MatchString(path) {
			continue
		}
		if better(candidate, best, path) {
			best = candidate
		}
	}
	r.mu.RUnlock()

	if best == nil {
		return mcp.ResourceDefinition{}, protoerr.WithDetails(protoerr.KindInvalidParams,
			"no resource registered for uri", map[string]interface{}{"uri": uri})
	}
	if best.def.ValidateURI != nil {
		if ok, errs := best.def.ValidateURI(uri); !ok {
			return mcp.ResourceDefinition{}, protoerr.WithDetails(protoerr.KindInvalidParams,
				"resource uri failed validation", map[string]interface{}{"uri": uri, "errors": errs})
		}
	}
	return best.def, nil
}

// better reports whether candidate should replace the current best match
// for path, applying spec.md §4.6's exact > longest-literal-prefix >
// earliest-registration precedence.
func better(candidate, best *registeredResource, path string) bool {
	if best == nil {
		return true
	}
	candidateExact := candidate.path == path
	bestExact := best.path == path
	if candidateExact != bestExact {
		return candidateExact
	}
	if candidate.literalLen != best.literalLen {
		return candidate.literalLen > best.literalLen
	}
	return candidate.order < best.order
}

// Size returns the number of registered resource patterns.
func (r *ResourceRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byPattern)
}

// Clear removes all registered resource patterns.
func (r *ResourceRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPattern = make(map[string]*registeredResource)
	r.nextOrder = 0
}

// List returns registered resources ordered lexicographically by pattern,
// starting at cursor (spec.md §4.6: "lexicographic URI for resources").
func (r *ResourceRegistry) List(cursor string) (ListPage[mcp.ResourceDefinition], error) {
	r.mu.RLock()
	patterns := make([]string, 0, len(r.byPattern))
	for p := range r.byPattern {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)

	offset, err := r.cursors.resolve(cursor)
	if err != nil {
		r.mu.RUnlock()
		return ListPage[mcp.ResourceDefinition]{}, err
	}
	if offset > len(patterns) {
		offset = len(patterns)
	}
	end := offset + defaultPageSize
	if end > len(patterns) {
		end = len(patterns)
	}

	items := make([]mcp.ResourceDefinition, 0, end-offset)
	for _, p := range patterns[offset:end] {
		items = append(items, r.byPattern[p].def)
	}
	r.mu.RUnlock()

	page := ListPage[mcp.ResourceDefinition]{Items: items}
	if end < len(patterns) {
		page.NextCursor = r.cursors.issue(end)
	}
	return page, nil
}

// Capabilities reports the resource-related server capability object.
func (r *ResourceRegistry) Capabilities() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.byPattern) == 0 {
		return nil
	}
	return map[string]interface{}{"subscribe": true, "listChanged": false}
}

// literalPrefixLen returns the length of path up to (but not including) its
// first '*' wildcard, or the full length if path has none.
func literalPrefixLen(path string) int {
	if i := strings.IndexByte(path, '*'); i >= 0 {
		return i
	}
	return len(path)
}

// globToRegexp compiles a path pattern where '*' matches any run of
// characters into a fully-anchored regular expression.
func globToRegexp(path string) *regexp.Regexp {
	parts := strings.Split(path, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")
}
