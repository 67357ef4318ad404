package dotted

import (
	"log/slog"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/zeebo/xxh3"
)

// cacheEntry holds one evaluated value, keyed in Document.cache by the
// externally requested path string.
type cacheEntry struct {
	value any
	when  time.Time
}

// programCache stores compiled expression programs keyed by the xxh3
// hash of their interpolated source. A compiled program is a pure
// function of its source text (the environment is supplied at run
// time), so the cache is process-wide and shared across Documents.
//
//nolint:gochecknoglobals
var programCache sync.Map

// compileCached compiles an expression source, reusing a prior
// compilation of identical source when available.
func compileCached(source string) (*vm.Program, error) {
	key := xxh3.HashString(source)

	if cached, ok := programCache.Load(key); ok {
		if program, ok := cached.(*vm.Program); ok {
			return program, nil
		}
	}

	program, err := expr.Compile(source)
	if err != nil {
		return nil, ErrCompile.Wrap(err).
			With(slog.String("source", source))
	}

	programCache.Store(key, program)

	return program, nil
}

// ClearProgramCache removes all cached compiled programs. This is
// primarily useful for testing or when memory needs to be reclaimed.
func ClearProgramCache() {
	programCache.Range(func(key, _ any) bool {
		programCache.Delete(key)

		return true
	})
}
