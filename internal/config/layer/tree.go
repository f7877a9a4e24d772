package layer

import "strings"

// Overlay copies src into dst, descending into tables present in both.
// Anything else in src, arrays included, replaces the value in dst.
func Overlay(dst, src map[string]any) {
	for key, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if into, ok := dst[key].(map[string]any); ok {
				Overlay(into, sub)
				continue
			}
		}
		dst[key] = cloneValue(v)
	}
}

// Get returns the value at a dotted path such as "layout.width".
func Get(tree map[string]any, path string) (any, bool) {
	var cur any = tree
	for part := range strings.SplitSeq(path, ".") {
		table, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = table[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set stores v at a dotted path, creating tables on the way and replacing
// any scalar in their place.
func Set(tree map[string]any, path string, v any) {
	keys := strings.Split(path, ".")
	last := len(keys) - 1
	for _, k := range keys[:last] {
		next, ok := tree[k].(map[string]any)
		if !ok {
			next = make(map[string]any)
			tree[k] = next
		}
		tree = next
	}
	tree[keys[last]] = v
}

// Paths lists the dotted paths of every leaf in tree.
func Paths(tree map[string]any) []string {
	var out []string
	var walk func(prefix string, t map[string]any)
	walk = func(prefix string, t map[string]any) {
		for k, v := range t {
			if prefix != "" {
				k = prefix + "." + k
			}
			if sub, ok := v.(map[string]any); ok {
				walk(k, sub)
				continue
			}
			out = append(out, k)
		}
	}
	walk("", tree)
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}
