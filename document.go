package dotted

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/orb-zone/dotted/log"
)

// ErrorAction tells the engine how to proceed after a failing Get when
// an error hook is configured.
type ErrorAction int

const (
	// ActionThrow rethrows the error to the caller of Get.
	ActionThrow ErrorAction = iota

	// ActionFallback substitutes the configured fallback value.
	ActionFallback

	// ActionOverride uses the hook's returned value verbatim.
	ActionOverride
)

// ErrorHook is consulted exactly once per failing Get. Parent-reference
// errors bypass the hook: they indicate an authoring bug in the
// expression, not a runtime data condition.
type ErrorHook func(err error, path string) (ErrorAction, any)

// ValidateHook may replace or reject a value before it is cached.
type ValidateHook func(path string, value any) (any, error)

type options struct {
	initial   Tree
	variants  Variants
	dims      []Dimension
	resolvers Resolvers
	fallback  any
	onError   ErrorHook
	validate  ValidateHook
}

// Document owns a mutable data tree and expands expression properties
// lazily on read. Evaluated values are cached per requested path; any
// mutation clears the whole cache. A Document is safe for concurrent
// use: public entry points serialize on an internal mutex, and
// evaluation re-enters through unlocked internal methods so the
// fresh() builtin cannot deadlock.
type Document struct {
	mu     sync.Mutex
	tree   Tree
	cache  map[string]cacheEntry
	index  map[string][]string
	schema *dimSchema
	flat   map[string]any
	opts   options
	logger log.Logger
}

// Option configures a Document at construction.
type Option func(*Document)

// WithInitial deep-merges an override map onto the base tree:
// tree-valued overrides merge key-wise, everything else replaces
// wholesale.
func WithInitial(override Tree) Option {
	return func(d *Document) { d.opts.initial = override }
}

// WithVariants supplies an explicit variant context. Explicitly
// supplied dimensions take precedence over values discovered in the
// tree.
func WithVariants(v Variants) Option {
	return func(d *Document) {
		if d.opts.variants == nil {
			d.opts.variants = make(Variants, len(v))
		}

		maps.Copy(d.opts.variants, v)
	}
}

// WithDimension declares a custom variant dimension and the values it
// can take. lang, gender, and form are always recognized.
func WithDimension(name string, values ...string) Option {
	return func(d *Document) {
		d.opts.dims = append(d.opts.dims, Dimension{
			Name:   name,
			Values: values,
		})
	}
}

// WithResolvers registers named resolver functions callable from
// computed expressions. Multiple calls merge registries.
func WithResolvers(r Resolvers) Option {
	return func(d *Document) {
		if d.opts.resolvers == nil {
			d.opts.resolvers = make(Resolvers, len(r))
		}

		maps.Copy(d.opts.resolvers, r)
	}
}

// WithFallback supplies the value substituted when a Get resolves to
// undefined, or when the error hook elects ActionFallback. A constant
// is used verbatim; func() any, func() (any, error), and
// func(context.Context) (any, error) shapes are invoked per use.
func WithFallback(v any) Option {
	return func(d *Document) { d.opts.fallback = v }
}

// WithOnError installs the error hook consulted by failing Gets.
func WithOnError(hook ErrorHook) Option {
	return func(d *Document) { d.opts.onError = hook }
}

// WithValidate installs a validation hook applied to every resolved
// value before caching.
func WithValidate(hook ValidateHook) Option {
	return func(d *Document) { d.opts.validate = hook }
}

// WithLogger sets the structured logger. The default discards.
func WithLogger(logger log.Logger) Option {
	return func(d *Document) { d.logger = logger }
}

// New constructs a Document from a base tree and options. The base and
// initial-override trees are deep-copied; the Document owns its tree
// exclusively thereafter.
func New(base Tree, opts ...Option) *Document {
	d := &Document{logger: log.Discard()}

	for _, opt := range opts {
		opt(d)
	}

	d.tree = deepMerge(base, d.opts.initial)
	d.cache = make(map[string]cacheEntry)
	d.index = indexContainers(d.tree)
	d.schema = newDimSchema(d.opts.dims)
	d.flat = flattenResolvers(d.opts.resolvers)

	d.logger.Debug(
		"document ready",
		slog.Int("containers", len(d.index)),
		logResolverNames(d.flat),
	)

	return d
}

// Get resolves the variant-qualified path, expands the value if it is
// expression-shaped, caches the result, and returns it. Undefined
// results are subject to the configured fallback; errors are routed
// through the error hook when one is installed.
func (d *Document) Get(ctx context.Context, path string) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.get(ctx, path, false)
}

// Fresh is Get bypassing the value cache. The freshly computed value
// still replaces the cached entry.
func (d *Document) Fresh(ctx context.Context, path string) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.get(ctx, path, true)
}

// Has reports whether Get(path) neither fails nor yields undefined.
func (d *Document) Has(ctx context.Context, path string) bool {
	v, err := d.Get(ctx, path)

	return err == nil && v != nil
}

// Set writes value at path, creating intermediate containers as
// needed, then clears the entire cache and reindexes variant
// candidates.
func (d *Document) Set(path string, value any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := setValue(d.tree, path, value); err != nil {
		return err
	}

	d.invalidate("set", path)

	return nil
}

// Delete removes the terminal key at path if present, with the same
// cache and index invalidation as Set. It reports whether a value was
// removed.
func (d *Document) Delete(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := deleteValue(d.tree, path)
	if removed {
		d.invalidate("delete", path)
	}

	return removed
}

// Variants returns the live variant context at the document root:
// explicitly supplied dimensions merged over values discovered in the
// tree.
func (d *Document) Variants() Variants {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.liveVariants(nil)
}

// Resolver returns the resolver registered under a flattened dotted
// name.
func (d *Document) Resolver(name string) (any, bool) {
	f, ok := d.flat[name]

	return f, ok
}

// get implements Get/Fresh under the document lock. The fresh()
// expression builtin re-enters here without re-locking.
func (d *Document) get(ctx context.Context, path string, fresh bool) (any, error) {
	if !fresh {
		if entry, ok := d.cache[path]; ok {
			d.logger.DebugContext(
				ctx,
				"cache hit",
				slog.String("path", path),
				slog.Time("cached_at", entry.when),
			)

			return entry.value, nil
		}
	}

	value, err := d.read(ctx, path)
	if err != nil {
		value, err = d.fail(ctx, err, path)
		if err != nil {
			return nil, err
		}
	}

	d.cache[path] = cacheEntry{value: value, when: time.Now()}

	return value, nil
}

// read performs one uncached resolution of path.
func (d *Document) read(ctx context.Context, path string) (any, error) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return nil, ErrBadPath.Wrap(errEmptyPath)
	}

	resolved := d.resolvePath(segs)

	raw, ok := lookup(d.tree, resolved)

	var value any

	if ok {
		if src, isStr := raw.(string); isStr {
			ev := &evaluator{doc: d, scope: resolved[:len(resolved)-1]}

			expanded, err := ev.evaluate(ctx, src)
			if err != nil {
				return nil, err
			}

			value = expanded
		} else {
			value = raw
		}
	}

	if value == nil {
		fb, err := d.fallbackValue(ctx)
		if err != nil {
			return nil, err
		}

		value = fb
	}

	if d.opts.validate != nil {
		validated, err := d.opts.validate(path, value)
		if err != nil {
			return nil, ErrValidate.Wrap(err).
				With(slog.String("path", path))
		}

		value = validated
	}

	return value, nil
}

// resolvePath rewrites each path segment through the Variant Matcher
// against the sibling names present at that level. Expression-marked
// siblings (".key") compete under their unmarked name and are mapped
// back to the stored key afterward.
func (d *Document) resolvePath(segs []string) []string {
	resolved := make([]string, 0, len(segs))

	for _, seg := range segs {
		keys, indexed := d.index[joinPath(resolved)]
		if !indexed {
			resolved = append(resolved, seg)

			continue
		}

		base := strings.TrimPrefix(seg, ".")
		live := d.liveVariants(resolved)
		name := d.schema.resolveVariant(base, live, unmarked(keys))

		resolved = append(resolved, storedKey(keys, name))
	}

	return resolved
}

// unmarked strips the expression marker from container keys so marked
// and plain siblings compete under the same base name.
func unmarked(keys []string) []string {
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = strings.TrimPrefix(key, ".")
	}

	return out
}

// storedKey maps a matched (unmarked) name back to the container's
// stored key, preferring a plain key over its expression-marked
// sibling.
func storedKey(keys []string, name string) string {
	for _, key := range keys {
		if key == name {
			return key
		}
	}

	marked := "." + name

	for _, key := range keys {
		if key == marked {
			return key
		}
	}

	return name
}

// liveVariants discovers the variant context in effect at a scope:
// every recognized dimension is tree-walked from the scope up to the
// root, then explicitly supplied dimensions are merged on top.
func (d *Document) liveVariants(scope []string) Variants {
	v := make(Variants, len(d.opts.variants)+3)

	for _, name := range d.schema.names() {
		raw, ok := treeWalk(d.tree, scope, []string{name})
		if !ok {
			continue
		}

		if s, isStr := raw.(string); isStr {
			v[name] = s
		}
	}

	maps.Copy(v, d.opts.variants)

	return v
}

// runEnv builds the expr execution environment: resolver namespaces
// with the caller's context bound, the coercion helpers, and the
// fresh() cache-bypassing re-read. fresh takes document-absolute
// paths, so the environment is scope-independent.
func (d *Document) runEnv(ctx context.Context) map[string]any {
	env := make(map[string]any, len(d.opts.resolvers)+3)

	for name, val := range d.opts.resolvers {
		env[name] = bindNamespace(ctx, val)
	}

	env["bool"] = coerceBool
	env["json"] = coerceJSON
	env["fresh"] = func(path string) (any, error) {
		return d.get(ctx, path, true)
	}

	return env
}

// bindNamespace binds the context into every function of a (possibly
// nested) resolver namespace.
func bindNamespace(ctx context.Context, val any) any {
	switch node := val.(type) {
	case Resolvers:
		return bindNamespace(ctx, map[string]any(node))

	case map[string]any:
		bound := make(map[string]any, len(node))
		for name, sub := range node {
			bound[name] = bindNamespace(ctx, sub)
		}

		return bound

	default:
		return bindContext(ctx, val)
	}
}

// fail applies the error policy: parent-reference and malformed-path
// errors always rethrow; otherwise the hook, when installed, chooses
// between rethrow, fallback, and override.
func (d *Document) fail(ctx context.Context, err error, path string) (any, error) {
	if errors.Is(err, ErrParentRef) || errors.Is(err, ErrBadPath) {
		return nil, err
	}

	if d.opts.onError == nil {
		return nil, err
	}

	d.logger.DebugContext(
		ctx,
		"error hook",
		slog.String("path", path),
		slog.Any("error", err),
	)

	action, override := d.opts.onError(err, path)

	switch action {
	case ActionFallback:
		return d.fallbackValue(ctx)

	case ActionOverride:
		return override, nil

	default:
		return nil, err
	}
}

// invalidate clears every cached value and rebuilds the sibling-name
// index after a mutation. Wholesale invalidation keeps cache entries
// trivially consistent with the tree.
func (d *Document) invalidate(op, path string) {
	d.cache = make(map[string]cacheEntry)
	d.index = indexContainers(d.tree)

	d.logger.Debug(
		"cache invalidated",
		slog.String("op", op),
		slog.String("path", path),
	)
}

// fallbackValue produces the configured fallback: constants verbatim,
// function shapes invoked per use.
func (d *Document) fallbackValue(ctx context.Context) (any, error) {
	switch fb := d.opts.fallback.(type) {
	case nil:
		return nil, nil

	case func() any:
		return fb(), nil

	case func() (any, error):
		v, err := fb()
		if err != nil {
			return nil, ErrFallback.Wrap(err)
		}

		return v, nil

	case func(context.Context) (any, error):
		v, err := fb(ctx)
		if err != nil {
			return nil, ErrFallback.Wrap(err)
		}

		return v, nil

	default:
		return fb, nil
	}
}
