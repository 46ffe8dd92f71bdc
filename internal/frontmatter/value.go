package frontmatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Value is the tagged union a front-matter entry coerces to: either a
// scalar string or a sequence of strings. Integers, booleans, floats, and
// dates are canonicalized to their string form at the parse boundary.
type Value struct {
	Scalar string
	List   []string
	IsList bool
}

// String constructs a scalar Value.
func String(s string) Value { return Value{Scalar: s} }

// Strings constructs a sequence Value.
func Strings(ss ...string) Value { return Value{List: ss, IsList: true} }

// Empty reports whether the value carries no content.
func (v Value) Empty() bool {
	if v.IsList {
		return len(v.List) == 0
	}
	return v.Scalar == ""
}

// AsString returns the scalar form; sequences join with ", ".
func (v Value) AsString() string {
	if v.IsList {
		return strings.Join(v.List, ", ")
	}
	return v.Scalar
}

// AsList returns the sequence form. Scalars are comma-split, which is how
// ai_keywords and single-string cross_references are written.
func (v Value) AsList() []string {
	if v.IsList {
		return v.List
	}
	if v.Scalar == "" {
		return nil
	}
	parts := strings.Split(v.Scalar, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Float parses the scalar as a number; ok is false for sequences and
// non-numeric scalars.
func (v Value) Float() (float64, bool) {
	if v.IsList {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Scalar), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func coerce(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return Value{}
	case string:
		return String(t)
	case bool:
		return String(strconv.FormatBool(t))
	case int:
		return String(strconv.Itoa(t))
	case int64:
		return String(strconv.FormatInt(t, 10))
	case float64:
		return String(strconv.FormatFloat(t, 'f', -1, 64))
	case time.Time:
		return String(t.Format("2006-01-02 15:04:05"))
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, coerce(item).AsString())
		}
		return Strings(out...)
	default:
		return String(fmt.Sprintf("%v", t))
	}
}
