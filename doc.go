// Package dotted provides a lazy, cacheable expression-expansion engine
// for tree-shaped (JSON-like) documents. Selected string-valued
// properties are treated as small expressions that reference other
// properties, call named resolver functions, and are expanded only when
// read. A companion variant matcher selects among alternate values
// tagged for language, gender, formality, or custom dimensions.
//
// # Expressions
//
// Any string value containing a ${...} interpolation block or a
// function-call pattern is an expression. Keys beginning with "." mark
// a property as expression-valued without changing its public name:
//
//	{
//	  "name": "world",
//	  ".greeting": "Hello, ${name}!"
//	}
//
// Reading "greeting" yields "Hello, world!". Interpolation blocks
// resolve against the document itself, with lexical-style scoping:
//
//   - "foo.bar"  current scope first, then the document root
//   - ".foo"     nearest enclosing scope that defines foo
//   - "..foo"    one level up from the current scope, and so on;
//     a reference climbing past the root is a fatal error
//
// Expressions containing function calls are compiled and evaluated with
// expr-lang against the registered resolver functions:
//
//	{".total": "sum(${prices}) * ${taxRate}"}
//
// # Variants
//
// Sibling properties may carry colon-separated variant suffixes:
//
//	{
//	  "greeting": "hi",
//	  "greeting:es": "hola",
//	  "greeting:es:formal": "buenos días"
//	}
//
// Reading "greeting" with variants {lang: es, form: formal} selects
// "buenos días". Matching is a pure scoring function over the two
// variant contexts; see [ResolveVariant].
//
// # Caching
//
// Evaluated values are cached per requested path. Any Set or Delete
// clears the whole cache: coarse invalidation is a deliberate
// simplicity/correctness tradeoff.
package dotted
