package codesearch

import (
	"encoding/json"
)

// Symbolize rewrites enumeration codes in a decoded JSON tree into their
// symbolic names. The tree is expected to come from DecodeOrdered or a
// json.Decoder with UseNumber. Unknown codes are left as numbers. The input
// is modified in place and returned.
//
// Rewritten fields:
//   - edge_filter entries and the type of xref matches become edge kind names
//   - node_kind becomes a node kind name
//   - the id of an annotation type becomes an annotation type name
func Symbolize(tree any) any {
	return symbolize(tree, "")
}

func symbolize(v any, parentKey string) any {
	switch node := v.(type) {
	case Object:
		for i, m := range node {
			node[i].Value = symbolizeField(m.Key, m.Value, parentKey)
		}
		return node
	case map[string]any:
		for key, child := range node {
			node[key] = symbolizeField(key, child, parentKey)
		}
		return node
	case []any:
		for i, child := range node {
			node[i] = symbolize(child, parentKey)
		}
		return node
	default:
		return v
	}
}

func symbolizeField(key string, value any, parentKey string) any {
	switch key {
	case "edge_filter":
		if list, ok := value.([]any); ok {
			for i, item := range list {
				list[i] = symbolName(item, edgeKindName)
			}
			return list
		}
	case "node_kind":
		return symbolName(value, nodeKindName)
	case "type":
		if parentKey == "match" {
			return symbolName(value, edgeKindName)
		}
	case "id":
		if parentKey == "type" {
			return symbolName(value, annotationTypeName)
		}
	}
	return symbolize(value, key)
}

func symbolName(v any, lookup func(int) (string, bool)) any {
	var code int64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return v
		}
		code = parsed
	case float64:
		code = int64(n)
		if float64(code) != n {
			return v
		}
	default:
		return v
	}
	if name, ok := lookup(int(code)); ok {
		return name
	}
	return v
}

func edgeKindName(code int) (string, bool) {
	name, ok := edgeKindNames[EdgeKind(code)]
	return name, ok
}

func nodeKindName(code int) (string, bool) {
	name, ok := nodeKindNames[NodeKind(code)]
	return name, ok
}

func annotationTypeName(code int) (string, bool) {
	name, ok := annotationTypeNames[AnnotationType(code)]
	return name, ok
}
