package resolver

import (
	"strings"

	"github.com/CoMatu/test-gql-server/internal/ir"
)

// Selection names the fields to produce for a record, with a nested
// Selection per relation or object field. A nil Selection means "every
// field": stored fields, rule fields, relations resolved one hop and
// derived fields.
type Selection map[string]Selection

// SelectionFromPaths builds a Selection from dotted paths such as
// "employee.position.code". No paths gives a nil Selection.
func SelectionFromPaths(paths ...string) Selection {
	root := Selection{}
	for _, p := range paths {
		cur := root
		parts := strings.Split(p, ".")
		for i, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				break
			}
			next, ok := cur[part]
			if i == len(parts)-1 {
				if !ok {
					cur[part] = nil
				}
				break
			}
			if next == nil {
				next = Selection{}
				cur[part] = next
			}
			cur = next
		}
	}
	if len(root) == 0 {
		return nil
	}
	return root
}

// project keeps only the selected keys of an object value. Other values
// are returned unchanged.
func project(v ir.IRValue, sel Selection) ir.IRValue {
	if sel == nil {
		return v
	}
	switch val := v.(type) {
	case ir.IRObject:
		out := make(ir.IRObject, len(sel))
		for k, sub := range sel {
			if inner, ok := val[k]; ok && inner != nil {
				out[k] = project(inner, sub)
			} else {
				out[k] = ir.IRNull{}
			}
		}
		return out
	case ir.IRArray:
		out := make(ir.IRArray, len(val))
		for i, elem := range val {
			out[i] = project(elem, sel)
		}
		return out
	default:
		return v
	}
}
