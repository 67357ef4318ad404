// Package store loads and saves variant-named document trees from a
// directory. It is a thin I/O collaborator over the core variant
// matcher: a file named greeting:es:formal.json is the {lang: es,
// form: formal} variant of the "greeting" tree, and Load picks the
// best-matching file for a requested variant context the same way the
// engine picks sibling properties.
package store

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"

	"github.com/orb-zone/dotted"
	"github.com/orb-zone/dotted/log"
)

// Sentinel errors.
var (
	ErrNotFound = dotted.NewError("no matching document file")
	ErrDecode   = dotted.NewError("failed to decode document file")
	ErrEncode   = dotted.NewError("failed to encode document tree")
)

// nameToken restricts base names and variant values to path-safe
// characters. Anything else (separators, "..", empty strings) is
// rejected before touching the filesystem.
var nameToken = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Store maps {base, variants} pairs onto files in a directory using
// the canonical variant name serialization.
type Store struct {
	dir    string
	ext    string
	dims   []dotted.Dimension
	logger log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithExtension selects the storage codec by file extension: ".json"
// (the default) or ".yaml".
func WithExtension(ext string) Option {
	return func(s *Store) { s.ext = ext }
}

// WithDimensions declares the custom variant dimensions recognized
// when parsing file names.
func WithDimensions(dims ...dotted.Dimension) Option {
	return func(s *Store) { s.dims = append(s.dims, dims...) }
}

// WithLogger sets the structured logger. The default discards.
func WithLogger(logger log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a Store rooted at dir.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:    dir,
		ext:    ".json",
		logger: log.Discard(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load reads the tree stored for base under the best-matching variant
// file present in the directory. The exact canonical file wins when it
// exists; otherwise the variant matcher scores every candidate file
// sharing the base name, and the plain base file is the last resort.
func (s *Store) Load(
	ctx context.Context,
	base string,
	variants dotted.Variants,
) (map[string]any, error) {
	if err := validateName(base, variants); err != nil {
		return nil, err
	}

	names, err := s.listNames()
	if err != nil {
		return nil, err
	}

	chosen := dotted.ResolveVariant(base, variants, names, s.dims...)

	if !contains(names, chosen) {
		return nil, ErrNotFound.With(
			slog.String("base", base),
			slog.String("resolved", chosen),
			slog.String("dir", s.dir),
		)
	}

	s.logger.DebugContext(
		ctx,
		"load document",
		slog.String("base", base),
		slog.String("file", chosen+s.ext),
	)

	return s.readFile(chosen)
}

// Save writes the tree for base under the canonical file name derived
// from the variant context.
func (s *Store) Save(
	ctx context.Context,
	base string,
	tree map[string]any,
	variants dotted.Variants,
) error {
	if err := validateName(base, variants); err != nil {
		return err
	}

	data, err := s.encode(tree)
	if err != nil {
		return ErrEncode.Wrap(err).With(slog.String("base", base))
	}

	name := dotted.CanonicalName(base, variants) + s.ext

	s.logger.DebugContext(
		ctx,
		"save document",
		slog.String("file", name),
		slog.Int("bytes", len(data)),
	)

	return os.WriteFile(filepath.Join(s.dir, name), data, 0o644)
}

// listNames returns the extension-stripped file names in the store
// directory, in the sorted order os.ReadDir guarantees.
func (s *Store) listNames() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), s.ext) {
			continue
		}

		names = append(names, strings.TrimSuffix(entry.Name(), s.ext))
	}

	return names, nil
}

// readFile opens, read-ahead buffers, and decodes one document file.
func (s *Store) readFile(name string) (map[string]any, error) {
	f, err := os.Open(filepath.Join(s.dir, name+s.ext))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ra := readahead.NewReader(f)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, err
	}

	tree := make(map[string]any)

	if err := s.decode(data, &tree); err != nil {
		return nil, ErrDecode.Wrap(err).With(slog.String("file", name+s.ext))
	}

	return tree, nil
}

func (s *Store) decode(data []byte, out *map[string]any) error {
	if s.ext == ".yaml" || s.ext == ".yml" {
		return yaml.Unmarshal(data, out)
	}

	return json.Unmarshal(data, out)
}

func (s *Store) encode(tree map[string]any) ([]byte, error) {
	if s.ext == ".yaml" || s.ext == ".yml" {
		return yaml.Marshal(tree)
	}

	return json.MarshalIndent(tree, "", "  ")
}

// validateName rejects base names and variant values that could
// escape the store directory.
func validateName(base string, variants dotted.Variants) error {
	if !nameToken.MatchString(base) {
		return dotted.ErrVariantValue.With(slog.String("base", base))
	}

	for name, val := range variants {
		if !nameToken.MatchString(val) {
			return dotted.ErrVariantValue.With(
				slog.String("dimension", name),
				slog.String("value", val),
			)
		}
	}

	return nil
}

func contains(names []string, want string) bool {
	for _, name := range names {
		if name == want {
			return true
		}
	}

	return false
}
