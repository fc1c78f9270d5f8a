package commands

import (
	"codesearch/internal/codesearch"
	"context"
	"errors"
	"fmt"
)

// Backend is the code search capability the commands run against.
// *codesearch.Client implements it.
type Backend interface {
	SymbolLookup
	SendRequest(ctx context.Context, req *codesearch.CompoundRequest) (*codesearch.CompoundResponse, error)
	GetAnnotationsForFile(
		ctx context.Context,
		path string,
		types []codesearch.AnnotationType,
	) (*codesearch.AnnotationResponse, error)
	GetFileSpec(path string) (codesearch.FileSpec, error)
	SetLogLevel(level string) error
	TeardownCache() error
}

var _ Backend = (*codesearch.Client)(nil)

// AnnotationQuery is an annotation fetch, sent outside the compound envelope.
type AnnotationQuery struct {
	Path  string
	Types []codesearch.AnnotationType
}

// Request is what a builder produces. Exactly one field is set.
type Request struct {
	Compound   *codesearch.CompoundRequest
	Annotation *AnnotationQuery
	// Local is a result computed without a further backend call.
	Local interface{}
}

// SignatureResult is the output of the sig command.
type SignatureResult struct {
	Signature string `json:"signature"`
}

// Dispatch submits req and returns the result to print. Backend failures are
// returned unchanged.
func Dispatch(ctx context.Context, req Request, backend Backend) (interface{}, error) {
	switch {
	case req.Compound != nil:
		if err := req.Compound.Validate(); err != nil {
			return nil, err
		}
		return backend.SendRequest(ctx, req.Compound)
	case req.Annotation != nil:
		return backend.GetAnnotationsForFile(ctx, req.Annotation.Path, req.Annotation.Types)
	case req.Local != nil:
		return req.Local, nil
	default:
		return nil, errors.New("empty request")
	}
}

func buildSignature(ctx context.Context, inv *Invocation, backend Backend) (Request, error) {
	sig, err := ResolveSignature(ctx, inv, backend)
	if err != nil {
		return Request{}, err
	}
	return Request{Local: SignatureResult{Signature: sig}}, nil
}

func buildXrefs(ctx context.Context, inv *Invocation, backend Backend) (Request, error) {
	sig, err := ResolveSignature(ctx, inv, backend)
	if err != nil {
		return Request{}, err
	}
	fileSpec, err := currentFileSpec(backend)
	if err != nil {
		return Request{}, err
	}
	return Request{Compound: &codesearch.CompoundRequest{
		XrefSearchRequest: []codesearch.XrefSearchRequest{{
			Query:         sig,
			FileSpec:      fileSpec,
			EdgeFilter:    ResolveEdgeFilter(inv.All, inv.EdgeKinds),
			MaxNumResults: maxXrefResults,
		}},
	}}, nil
}

func buildCallers(ctx context.Context, inv *Invocation, backend Backend) (Request, error) {
	sig, err := ResolveSignature(ctx, inv, backend)
	if err != nil {
		return Request{}, err
	}
	fileSpec, err := currentFileSpec(backend)
	if err != nil {
		return Request{}, err
	}
	return Request{Compound: &codesearch.CompoundRequest{
		CallGraphRequest: []codesearch.CallGraphRequest{{
			Signature:     sig,
			FileSpec:      fileSpec,
			MaxNumResults: maxCallerResults,
		}},
	}}, nil
}

func buildAnnotations(_ context.Context, inv *Invocation, _ Backend) (Request, error) {
	types := inv.AnnotationTypes
	if len(types) == 0 {
		types = codesearch.DefaultAnnotationTypes()
	}
	return Request{Annotation: &AnnotationQuery{Path: inv.Path, Types: types}}, nil
}

func buildFileInfo(_ context.Context, inv *Invocation, backend Backend) (Request, error) {
	fileSpec, err := backend.GetFileSpec(inv.Path)
	if err != nil {
		return Request{}, err
	}
	return Request{Compound: &codesearch.CompoundRequest{
		FileInfoRequest: []codesearch.FileInfoRequest{{
			FileSpec:           fileSpec,
			FetchHTMLContent:   inv.HTML,
			FetchOutline:       inv.Outline,
			FetchFolding:       inv.Folding,
			FetchGeneratedFrom: false,
		}},
	}}, nil
}

func buildDirInfo(_ context.Context, inv *Invocation, backend Backend) (Request, error) {
	fileSpec, err := backend.GetFileSpec(inv.Path)
	if err != nil {
		return Request{}, err
	}
	return Request{Compound: &codesearch.CompoundRequest{
		DirInfoRequest: []codesearch.DirInfoRequest{{FileSpec: fileSpec}},
	}}, nil
}

func buildSearch(_ context.Context, inv *Invocation, _ Backend) (Request, error) {
	return Request{Compound: &codesearch.CompoundRequest{
		SearchRequest: []codesearch.SearchRequest{{
			Query:                   inv.Query,
			MaxNumResults:           inv.MaxResults,
			ReturnSnippets:          inv.Snippets || inv.Decorate,
			ReturnDecoratedSnippets: inv.Decorate,
			LinesContext:            inv.Context,
		}},
	}}, nil
}

func buildStatus(_ context.Context, _ *Invocation, _ Backend) (Request, error) {
	return Request{Compound: &codesearch.CompoundRequest{
		StatusRequest: []codesearch.StatusRequest{{}},
	}}, nil
}

// currentFileSpec is the file context of xrefs and callers: the working
// directory, or the root with --root.
func currentFileSpec(backend Backend) (codesearch.FileSpec, error) {
	fileSpec, err := backend.GetFileSpec(".")
	if err != nil {
		return codesearch.FileSpec{}, fmt.Errorf("failed to resolve file context: %w", err)
	}
	return fileSpec, nil
}
