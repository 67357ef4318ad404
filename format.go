package dotted

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Tree returns a deep-copy snapshot of the raw (unevaluated) data
// tree.
func (d *Document) Tree() Tree {
	d.mu.Lock()
	defer d.mu.Unlock()

	copied, ok := deepCopy(d.tree).(Tree)
	if !ok {
		return Tree{}
	}

	return copied
}

// MarshalJSON implements json.Marshaler over the raw tree. Expression
// properties are emitted as their source text, not their expansion.
func (d *Document) MarshalJSON() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return json.Marshal(d.tree)
}

// FormatJSON writes the raw tree as JSON to the writer, indented by
// the given number of spaces when positive.
func (d *Document) FormatJSON(w io.Writer, indent int) error {
	var (
		data []byte
		err  error
	)

	tree := d.Tree()

	if indent > 0 {
		data, err = json.MarshalIndent(tree, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(tree)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes the raw tree as YAML to the writer.
func (d *Document) FormatYAML(w io.Writer) error {
	data, err := yaml.Marshal(d.Tree())
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}
