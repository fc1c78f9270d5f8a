package codesearch

import (
	"fmt"
	"strconv"
	"strings"
)

// EdgeKind identifies a category of cross-reference relationship.
type EdgeKind int

// Edge kinds known to the client.
const (
	EdgeOverriddenBy       EdgeKind = 100
	EdgeOverrides          EdgeKind = 200
	EdgeBaseType           EdgeKind = 300
	EdgeExtendedBy         EdgeKind = 400
	EdgeIncludes           EdgeKind = 500
	EdgeIncludedBy         EdgeKind = 600
	EdgeDeclares           EdgeKind = 700
	EdgeDeclaredBy         EdgeKind = 800
	EdgeCallGraphFrom      EdgeKind = 1000
	EdgeCallGraphTo        EdgeKind = 1100
	EdgeHasDefinition      EdgeKind = 1200
	EdgeDefinitionOf       EdgeKind = 1300
	EdgeHasDeclaration     EdgeKind = 1400
	EdgeDeclarationOf      EdgeKind = 1500
	EdgeReferences         EdgeKind = 2100
	EdgeReferencedBy       EdgeKind = 2200
	EdgeInstantiates       EdgeKind = 2300
	EdgeInstantiatedAt     EdgeKind = 2400
	EdgeBelongsToNamespace EdgeKind = 2600
	EdgeAnnotatedWith      EdgeKind = 3100
	EdgeAnnotationOf       EdgeKind = 3200
	EdgeCalledAt           EdgeKind = 4100
	EdgeCalls              EdgeKind = 4200
	EdgeGenerates          EdgeKind = 6100
	EdgeGeneratedBy        EdgeKind = 6200
)

// allEdgeKinds is the complete static domain of edge kinds, ascending.
var allEdgeKinds = [...]EdgeKind{
	EdgeOverriddenBy,
	EdgeOverrides,
	EdgeBaseType,
	EdgeExtendedBy,
	EdgeIncludes,
	EdgeIncludedBy,
	EdgeDeclares,
	EdgeDeclaredBy,
	EdgeCallGraphFrom,
	EdgeCallGraphTo,
	EdgeHasDefinition,
	EdgeDefinitionOf,
	EdgeHasDeclaration,
	EdgeDeclarationOf,
	EdgeReferences,
	EdgeReferencedBy,
	EdgeInstantiates,
	EdgeInstantiatedAt,
	EdgeBelongsToNamespace,
	EdgeAnnotatedWith,
	EdgeAnnotationOf,
	EdgeCalledAt,
	EdgeCalls,
	EdgeGenerates,
	EdgeGeneratedBy,
}

var edgeKindNames = map[EdgeKind]string{
	EdgeOverriddenBy:       "OVERRIDDEN_BY",
	EdgeOverrides:          "OVERRIDES",
	EdgeBaseType:           "BASE_TYPE",
	EdgeExtendedBy:         "EXTENDED_BY",
	EdgeIncludes:           "INCLUDES",
	EdgeIncludedBy:         "INCLUDED_BY",
	EdgeDeclares:           "DECLARES",
	EdgeDeclaredBy:         "DECLARED_BY",
	EdgeCallGraphFrom:      "CALLGRAPH_FROM",
	EdgeCallGraphTo:        "CALLGRAPH_TO",
	EdgeHasDefinition:      "HAS_DEFINITION",
	EdgeDefinitionOf:       "DEFINITION_OF",
	EdgeHasDeclaration:     "HAS_DECLARATION",
	EdgeDeclarationOf:      "DECLARATION_OF",
	EdgeReferences:         "REFERENCES",
	EdgeReferencedBy:       "REFERENCED_BY",
	EdgeInstantiates:       "INSTANTIATES",
	EdgeInstantiatedAt:     "INSTANTIATED_AT",
	EdgeBelongsToNamespace: "BELONGS_TO_NAMESPACE",
	EdgeAnnotatedWith:      "ANNOTATED_WITH",
	EdgeAnnotationOf:       "ANNOTATION_OF",
	EdgeCalledAt:           "CALLED_AT",
	EdgeCalls:              "CALLS",
	EdgeGenerates:          "GENERATES",
	EdgeGeneratedBy:        "GENERATED_BY",
}

// AllEdgeKinds returns every known edge kind in ascending order. The
// returned slice is a fresh copy.
func AllEdgeKinds() []EdgeKind {
	kinds := make([]EdgeKind, len(allEdgeKinds))
	copy(kinds, allEdgeKinds[:])
	return kinds
}

// String returns the symbolic name of k, or its number when unknown.
func (k EdgeKind) String() string {
	if name, ok := edgeKindNames[k]; ok {
		return name
	}
	return strconv.Itoa(int(k))
}

// ParseEdgeKind accepts a symbolic name (any case) or a numeric code.
func ParseEdgeKind(s string) (EdgeKind, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if _, ok := edgeKindNames[EdgeKind(n)]; ok {
			return EdgeKind(n), nil
		}
		return 0, fmt.Errorf("unknown edge kind code %d", n)
	}
	upper := strings.ToUpper(s)
	for _, k := range allEdgeKinds {
		if edgeKindNames[k] == upper {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown edge kind %q", s)
}

// AnnotationType selects a class of file annotation.
type AnnotationType int

// Annotation types known to the client.
const (
	AnnotationLinkToDefinition AnnotationType = 1
	AnnotationLinkToURL        AnnotationType = 2
	AnnotationXrefSignature    AnnotationType = 3
)

var annotationTypeNames = map[AnnotationType]string{
	AnnotationLinkToDefinition: "LINK_TO_DEFINITION",
	AnnotationLinkToURL:        "LINK_TO_URL",
	AnnotationXrefSignature:    "XREF_SIGNATURE",
}

// annotationTypeAliases maps the lowercase CLI spellings onto backend names.
var annotationTypeAliases = map[string]AnnotationType{
	"definition-link": AnnotationLinkToDefinition,
	"url-link":        AnnotationLinkToURL,
	"xref-signature":  AnnotationXrefSignature,
}

// DefaultAnnotationTypes are requested by annot when none are chosen.
func DefaultAnnotationTypes() []AnnotationType {
	return []AnnotationType{AnnotationLinkToDefinition, AnnotationXrefSignature}
}

// AnnotationTypeChoices lists the accepted spellings, backend names first.
func AnnotationTypeChoices() []string {
	return []string{
		"LINK_TO_DEFINITION", "LINK_TO_URL", "XREF_SIGNATURE",
		"definition-link", "url-link", "xref-signature",
	}
}

// String returns the symbolic name of t, or its number when unknown.
func (t AnnotationType) String() string {
	if name, ok := annotationTypeNames[t]; ok {
		return name
	}
	return strconv.Itoa(int(t))
}

// ParseAnnotationType accepts a backend name or one of its CLI aliases.
func ParseAnnotationType(s string) (AnnotationType, error) {
	if t, ok := annotationTypeAliases[s]; ok {
		return t, nil
	}
	for t, name := range annotationTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("invalid choice %q (choose from %s)", s, strings.Join(AnnotationTypeChoices(), ", "))
}

// NodeKind classifies a node of a call graph.
type NodeKind int

// Node kinds known to the client.
const (
	NodeFile         NodeKind = 1
	NodePackage      NodeKind = 2
	NodeClass        NodeKind = 3
	NodeStruct       NodeKind = 4
	NodeUnion        NodeKind = 5
	NodeEnum         NodeKind = 6
	NodeEnumConstant NodeKind = 7
	NodeFunction     NodeKind = 8
	NodeMethod       NodeKind = 9
	NodeConstructor  NodeKind = 10
	NodeDestructor   NodeKind = 11
	NodeField        NodeKind = 12
	NodeVariable     NodeKind = 13
	NodeTypedef      NodeKind = 14
	NodeMacro        NodeKind = 15
	NodeNamespace    NodeKind = 16
	NodeInterface    NodeKind = 17
)

var nodeKindNames = map[NodeKind]string{
	NodeFile:         "FILE",
	NodePackage:      "PACKAGE",
	NodeClass:        "CLASS",
	NodeStruct:       "STRUCT",
	NodeUnion:        "UNION",
	NodeEnum:         "ENUM",
	NodeEnumConstant: "ENUM_CONSTANT",
	NodeFunction:     "FUNCTION",
	NodeMethod:       "METHOD",
	NodeConstructor:  "CONSTRUCTOR",
	NodeDestructor:   "DESTRUCTOR",
	NodeField:        "FIELD",
	NodeVariable:     "VARIABLE",
	NodeTypedef:      "TYPEDEF",
	NodeMacro:        "MACRO",
	NodeNamespace:    "NAMESPACE",
	NodeInterface:    "INTERFACE",
}

// String returns the symbolic name of k, or its number when unknown.
func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return strconv.Itoa(int(k))
}
