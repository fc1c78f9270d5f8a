package commands

import (
	"codesearch/internal/codesearch"
	"context"
)

// ArgGroup is a reusable set of arguments shared between commands.
type ArgGroup int

const (
	// GroupPath is a single required PATH positional argument.
	GroupPath ArgGroup = iota
	// GroupSignature is -p/--path, -w/--word and -s/--signature.
	GroupSignature
	// GroupQuery is a single required QUERY positional argument.
	GroupQuery
	// GroupCommon is --nopretty, --loglevel, --cache and --root.
	GroupCommon
)

// Limits applied by the xrefs and callers builders.
const (
	maxXrefResults   = 100
	maxCallerResults = 100
)

// Defaults of the q command.
const (
	defaultMaxResults   = 50
	defaultContextLines = 3
)

// FlagSpec declares one command-specific flag. Target returns a pointer to
// the Invocation field the flag fills; its type selects the flag kind.
type FlagSpec struct {
	Name      string
	Shorthand string
	Usage     string
	Default   interface{}
	Target    func(inv *Invocation) interface{}
}

// Builder turns a parsed invocation into the request to dispatch. Only
// signature resolution may touch the backend.
type Builder func(ctx context.Context, inv *Invocation, backend Backend) (Request, error)

// CommandSpec describes one subcommand.
type CommandSpec struct {
	Name   string
	Short  string
	Groups []ArgGroup
	Flags  []FlagSpec
	Build  Builder
}

// HasGroup reports whether the command accepts the given argument group.
func (s CommandSpec) HasGroup(group ArgGroup) bool {
	for _, g := range s.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// Registry returns the command table in help order.
func Registry() []CommandSpec {
	return []CommandSpec{
		{
			Name:   "sig",
			Short:  "Query signature",
			Groups: []ArgGroup{GroupSignature, GroupCommon},
			Build:  buildSignature,
		},
		{
			Name:   "xrefs",
			Short:  "Query cross-references",
			Groups: []ArgGroup{GroupSignature, GroupCommon},
			Flags: []FlagSpec{
				{
					Name: "all", Shorthand: "A", Usage: "Include all outgoing references", Default: false,
					Target: func(inv *Invocation) interface{} { return &inv.All },
				},
				{
					Name: "type", Shorthand: "T",
					Usage:  "Include references of this type, by name or numeric code (repeatable)",
					Target: func(inv *Invocation) interface{} { return &inv.EdgeKinds },
				},
			},
			Build: buildXrefs,
		},
		{
			Name:   "callers",
			Short:  "Query callers for a signature",
			Groups: []ArgGroup{GroupSignature, GroupCommon},
			Build:  buildCallers,
		},
		{
			Name:   "annot",
			Short:  "Get annotations for file",
			Groups: []ArgGroup{GroupPath, GroupCommon},
			Flags: []FlagSpec{
				{
					Name: "type", Shorthand: "t", Default: codesearch.DefaultAnnotationTypes(),
					Usage:  "Annotation type (repeatable): definition-link, url-link, xref-signature",
					Target: func(inv *Invocation) interface{} { return &inv.AnnotationTypes },
				},
			},
			Build: buildAnnotations,
		},
		{
			Name:   "fileinfo",
			Short:  "Get file info",
			Groups: []ArgGroup{GroupPath, GroupCommon},
			Flags: []FlagSpec{
				{
					Name: "outline", Shorthand: "o", Usage: "Get outlining metadata.", Default: false,
					Target: func(inv *Invocation) interface{} { return &inv.Outline },
				},
				{
					Name: "html", Shorthand: "H", Usage: "Get HTML.", Default: false,
					Target: func(inv *Invocation) interface{} { return &inv.HTML },
				},
				{
					Name: "folding", Shorthand: "f", Usage: "Get folding metadata.", Default: false,
					Target: func(inv *Invocation) interface{} { return &inv.Folding },
				},
			},
			Build: buildFileInfo,
		},
		{
			Name:   "dirinfo",
			Short:  "Get directory info",
			Groups: []ArgGroup{GroupPath, GroupCommon},
			Build:  buildDirInfo,
		},
		{
			Name:   "q",
			Short:  "Search",
			Groups: []ArgGroup{GroupQuery, GroupCommon},
			Flags: []FlagSpec{
				{
					Name: "max_results", Shorthand: "N", Usage: "Maximum number of results to return.",
					Default: defaultMaxResults,
					Target:  func(inv *Invocation) interface{} { return &inv.MaxResults },
				},
				{
					Name: "snippets", Shorthand: "S", Usage: "Include snippets.", Default: false,
					Target: func(inv *Invocation) interface{} { return &inv.Snippets },
				},
				{
					Name: "decorate", Shorthand: "D", Usage: "Decorate snippets with syntactic hints", Default: false,
					Target: func(inv *Invocation) interface{} { return &inv.Decorate },
				},
				{
					Name: "context", Shorthand: "U", Usage: "Lines of context to include in snippets.",
					Default: defaultContextLines,
					Target:  func(inv *Invocation) interface{} { return &inv.Context },
				},
			},
			Build: buildSearch,
		},
		{
			Name:   "status",
			Short:  "CodeSearch server status",
			Groups: []ArgGroup{GroupCommon},
			Build:  buildStatus,
		},
	}
}

// Lookup returns the spec registered under name.
func Lookup(name string) (CommandSpec, bool) {
	for _, spec := range Registry() {
		if spec.Name == name {
			return spec, true
		}
	}
	return CommandSpec{}, false
}
