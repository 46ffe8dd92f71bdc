// Package frontmatter implements the front-matter codec: splitting a
// Markdown file into a metadata block and body, parsing the block into a
// typed mapping, and re-emitting a canonical file.
package frontmatter

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/ansuz/internal/apperr"
)

const delim = "---"

// RequiredFields is the fixed set of front-matter keys a compliant
// document carries.
var RequiredFields = []string{
	"ai_keywords", "biological_system", "consciousness_score",
	"document_type", "evolutionary_phase", "title",
	"validation_status", "version",
}

// OptionalFields is the fixed set of recognized optional keys.
var OptionalFields = []string{
	"ai_summary", "cross_references", "deprecated_by",
	"prior_versions", "semantic_tags", "last_updated",
}

// FrontMatter maps keys to coerced values.
type FrontMatter map[string]Value

// Parse splits raw file content into front-matter and body.
//
// On any failure the error wraps apperr.ErrMalformedFrontMatter and the
// returned body still carries the recoverable text: the full content when
// the delimiters are missing, the post-delimiter content when only the
// YAML is rejected.
func Parse(data []byte) (FrontMatter, string, error) {
	block, body, ok := Split(data)
	if !ok {
		return nil, string(data), fmt.Errorf("%w: missing %q delimiters", apperr.ErrMalformedFrontMatter, delim)
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
		return nil, body, fmt.Errorf("%w: %v", apperr.ErrMalformedFrontMatter, err)
	}
	if raw == nil {
		return nil, body, fmt.Errorf("%w: empty block", apperr.ErrMalformedFrontMatter)
	}

	fm := make(FrontMatter, len(raw))
	for k, v := range raw {
		fm[k] = coerce(v)
	}
	return fm, body, nil
}

// Split separates the delimited front-matter block from the body without
// parsing it. ok is false when either delimiter is missing; the healer
// uses the raw block to repair unquoted scalars.
func Split(data []byte) (block, body string, ok bool) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return "", string(data), false
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return "", string(data), false
	}
	block = string(rest[:idx])
	after := rest[idx+1+len(delim):]
	body = strings.TrimLeft(string(after), "\n")
	return block, body, true
}

// Emit renders a canonical file: sorted keys, quoted scalars where YAML
// requires it, body appended unchanged. Parse(Emit(fm, body)) returns an
// equal mapping and the identical body.
func Emit(fm FrontMatter, body string) []byte {
	keys := make([]string, 0, len(fm))
	for k := range fm {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	for _, k := range keys {
		v := fm[k]
		if v.IsList {
			out, _ := yaml.Marshal(map[string][]string{k: v.List})
			buf.Write(out)
			continue
		}
		out, _ := yaml.Marshal(map[string]string{k: v.Scalar})
		buf.Write(out)
	}
	buf.WriteString(delim + "\n")
	if body != "" {
		buf.WriteString(body)
	}
	return buf.Bytes()
}

// FieldsPresent partitions the fixed required/optional key sets by
// whether fm carries a non-empty value for each.
func FieldsPresent(fm FrontMatter) (required, optional []string) {
	for _, f := range RequiredFields {
		if v, ok := fm[f]; ok && !v.Empty() {
			required = append(required, f)
		}
	}
	for _, f := range OptionalFields {
		if v, ok := fm[f]; ok && !v.Empty() {
			optional = append(optional, f)
		}
	}
	return required, optional
}
