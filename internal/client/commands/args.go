package commands

import (
	"codesearch/internal/codesearch"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Invocation is the parsed form of one command line. Each command only
// fills the fields its argument groups and flags declare.
type Invocation struct {
	Command string

	// Signature-specifier and path-specifier.
	Path      string
	Word      string
	Signature string

	// q
	Query      string
	MaxResults int
	Snippets   bool
	Decorate   bool
	Context    int

	// xrefs
	All       bool
	EdgeKinds []codesearch.EdgeKind

	// annot
	AnnotationTypes []codesearch.AnnotationType

	// fileinfo
	Outline bool
	HTML    bool
	Folding bool

	Common CommonOptions
}

// CommonOptions are accepted by every command.
type CommonOptions struct {
	NoPretty bool
	LogLevel string
	CacheDir string
	Root     bool
}

// Pretty reports whether output should be pretty printed.
func (c CommonOptions) Pretty() bool {
	return !c.NoPretty
}

// logLevelChoices are the values accepted by --loglevel.
var logLevelChoices = []string{"info", "debug"}

// bindGroup registers the flags of an argument group. Positional arguments
// are handled by positionalArgs.
func bindGroup(fs *pflag.FlagSet, group ArgGroup, inv *Invocation) {
	switch group {
	case GroupSignature:
		fs.StringVarP(&inv.Path, "path", "p", "", "Path to file.")
		fs.StringVarP(&inv.Word, "word", "w", "",
			"The word to search for in the file denoted by the path argument. You must also specify -p")
		fs.StringVarP(&inv.Signature, "signature", "s", "",
			"A signature provided from a previous search. No -p or -w arguments required.")
	case GroupCommon:
		fs.BoolVar(&inv.Common.NoPretty, "nopretty", false, "Disable pretty printing of the resulting JSON")
		fs.VarP(newChoiceValue(&inv.Common.LogLevel, logLevelChoices), "loglevel", "l",
			"Log level ("+strings.Join(logLevelChoices, ", ")+")")
		fs.StringVarP(&inv.Common.CacheDir, "cache", "C", "", "Cache directory")
		fs.BoolVarP(&inv.Common.Root, "root", "r", false, "Assume repository paths are relative to root")
	case GroupPath, GroupQuery:
	}
}

// bindFlag registers a command-specific flag against the field its spec
// targets.
func bindFlag(fs *pflag.FlagSet, spec FlagSpec, inv *Invocation) {
	switch target := spec.Target(inv).(type) {
	case *bool:
		def, _ := spec.Default.(bool)
		fs.BoolVarP(target, spec.Name, spec.Shorthand, def, spec.Usage)
	case *int:
		def, _ := spec.Default.(int)
		fs.IntVarP(target, spec.Name, spec.Shorthand, def, spec.Usage)
	case *[]codesearch.EdgeKind:
		fs.VarP(newEdgeKindList(target), spec.Name, spec.Shorthand, spec.Usage)
	case *[]codesearch.AnnotationType:
		def, _ := spec.Default.([]codesearch.AnnotationType)
		fs.VarP(newAnnotationTypeList(target, def), spec.Name, spec.Shorthand, spec.Usage)
	default:
		panic(fmt.Sprintf("flag %s: unsupported target %T", spec.Name, target))
	}
}

// edgeKindList is a repeatable flag of edge kinds, kept in the order given.
type edgeKindList struct {
	kinds *[]codesearch.EdgeKind
}

func newEdgeKindList(kinds *[]codesearch.EdgeKind) *edgeKindList {
	return &edgeKindList{kinds: kinds}
}

func (l *edgeKindList) Set(s string) error {
	kind, err := codesearch.ParseEdgeKind(s)
	if err != nil {
		return err
	}
	*l.kinds = append(*l.kinds, kind)
	return nil
}

func (l *edgeKindList) String() string {
	if l.kinds == nil {
		return ""
	}
	names := make([]string, len(*l.kinds))
	for i, k := range *l.kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ",")
}

func (l *edgeKindList) Type() string { return "kind" }

// annotationTypeList is a repeatable choice flag. The default applies until
// the first value is given, which replaces it.
type annotationTypeList struct {
	types   *[]codesearch.AnnotationType
	changed bool
}

func newAnnotationTypeList(types *[]codesearch.AnnotationType, def []codesearch.AnnotationType) *annotationTypeList {
	*types = append([]codesearch.AnnotationType(nil), def...)
	return &annotationTypeList{types: types}
}

func (l *annotationTypeList) Set(s string) error {
	t, err := codesearch.ParseAnnotationType(s)
	if err != nil {
		return err
	}
	if !l.changed {
		*l.types = nil
		l.changed = true
	}
	*l.types = append(*l.types, t)
	return nil
}

func (l *annotationTypeList) String() string {
	if l.types == nil {
		return ""
	}
	names := make([]string, len(*l.types))
	for i, t := range *l.types {
		names[i] = t.String()
	}
	return strings.Join(names, ",")
}

func (l *annotationTypeList) Type() string { return "type" }

// choiceValue is a string flag restricted to a fixed set of values.
type choiceValue struct {
	value   *string
	choices []string
}

func newChoiceValue(value *string, choices []string) *choiceValue {
	return &choiceValue{value: value, choices: choices}
}

func (c *choiceValue) Set(s string) error {
	for _, choice := range c.choices {
		if s == choice {
			*c.value = s
			return nil
		}
	}
	return fmt.Errorf("invalid choice %q (choose from %s)", s, strings.Join(c.choices, ", "))
}

func (c *choiceValue) String() string {
	if c.value == nil {
		return ""
	}
	return *c.value
}

func (c *choiceValue) Type() string { return "level" }
