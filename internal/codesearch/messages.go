// Package codesearch implements the client side of the code search backend:
// request and response messages, the enumerations they carry, and an HTTP
// client that submits them.
package codesearch

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FileSpec locates a file or directory within the indexed source tree.
type FileSpec struct {
	Name        string `json:"name"`
	PackageName string `json:"package_name,omitempty"`
	Changelist  string `json:"changelist,omitempty"`
}

// XrefSearchRequest asks for the cross references of a signature.
type XrefSearchRequest struct {
	Query         string     `json:"query"`
	FileSpec      FileSpec   `json:"file_spec"`
	EdgeFilter    []EdgeKind `json:"edge_filter,omitempty"`
	MaxNumResults int        `json:"max_num_results"`
}

// CallGraphRequest asks for the callers of a signature.
type CallGraphRequest struct {
	Signature     string   `json:"signature"`
	FileSpec      FileSpec `json:"file_spec"`
	MaxNumResults int      `json:"max_num_results"`
}

// FileInfoRequest asks for metadata about a single file.
type FileInfoRequest struct {
	FileSpec           FileSpec `json:"file_spec"`
	FetchHTMLContent   bool     `json:"fetch_html_content"`
	FetchOutline       bool     `json:"fetch_outline"`
	FetchFolding       bool     `json:"fetch_folding"`
	FetchGeneratedFrom bool     `json:"fetch_generated_from"`
}

// DirInfoRequest asks for the listing of a directory.
type DirInfoRequest struct {
	FileSpec FileSpec `json:"file_spec"`
}

// SearchRequest is a full-text search.
type SearchRequest struct {
	Query                   string `json:"query"`
	MaxNumResults           int    `json:"max_num_results"`
	ReturnSnippets          bool   `json:"return_snippets"`
	ReturnDecoratedSnippets bool   `json:"return_decorated_snippets"`
	LinesContext            int    `json:"lines_context"`
}

// StatusRequest is an empty liveness probe.
type StatusRequest struct{}

// CompoundRequest is the envelope submitted to the backend. Exactly one of
// its lists is populated per request.
type CompoundRequest struct {
	XrefSearchRequest []XrefSearchRequest `json:"xref_search_request,omitempty"`
	CallGraphRequest  []CallGraphRequest  `json:"call_graph_request,omitempty"`
	FileInfoRequest   []FileInfoRequest   `json:"file_info_request,omitempty"`
	DirInfoRequest    []DirInfoRequest    `json:"dir_info_request,omitempty"`
	SearchRequest     []SearchRequest     `json:"search_request,omitempty"`
	StatusRequest     []StatusRequest     `json:"status_request,omitempty"`
}

// Populated returns the JSON names of the non-empty sub-request lists.
func (r *CompoundRequest) Populated() []string {
	var names []string
	if len(r.XrefSearchRequest) > 0 {
		names = append(names, "xref_search_request")
	}
	if len(r.CallGraphRequest) > 0 {
		names = append(names, "call_graph_request")
	}
	if len(r.FileInfoRequest) > 0 {
		names = append(names, "file_info_request")
	}
	if len(r.DirInfoRequest) > 0 {
		names = append(names, "dir_info_request")
	}
	if len(r.SearchRequest) > 0 {
		names = append(names, "search_request")
	}
	if len(r.StatusRequest) > 0 {
		names = append(names, "status_request")
	}
	return names
}

// Validate checks that exactly one sub-request list is populated.
func (r *CompoundRequest) Validate() error {
	populated := r.Populated()
	if len(populated) != 1 {
		return fmt.Errorf("compound request must carry exactly one sub-request, got %d (%s)",
			len(populated), strings.Join(populated, ", "))
	}
	return nil
}

// IsStatus reports whether r is a liveness probe.
func (r *CompoundRequest) IsStatus() bool {
	return len(r.StatusRequest) > 0
}

// AnnotationTypeValue wraps an annotation type the way the backend expects it.
type AnnotationTypeValue struct {
	ID AnnotationType `json:"id"`
}

// AnnotationRequest asks for the annotations of a file. It is sent outside
// the compound envelope.
type AnnotationRequest struct {
	FileSpec FileSpec              `json:"file_spec"`
	Type     []AnnotationTypeValue `json:"type"`
}

// TextRange is a span of file text. Lines and columns are 1-based and the
// end column is inclusive.
type TextRange struct {
	StartLine   int `json:"start_line"`
	StartColumn int `json:"start_column"`
	EndLine     int `json:"end_line"`
	EndColumn   int `json:"end_column"`
}

// CompoundResponse mirrors CompoundRequest: the list matching the request is
// populated.
type CompoundResponse struct {
	XrefSearchResponse []XrefSearchResponse `json:"xref_search_response,omitempty"`
	CallGraphResponse  []CallGraphResponse  `json:"call_graph_response,omitempty"`
	FileInfoResponse   []FileInfoResponse   `json:"file_info_response,omitempty"`
	DirInfoResponse    []DirInfoResponse    `json:"dir_info_response,omitempty"`
	SearchResponse     []SearchResponse     `json:"search_response,omitempty"`
	StatusResponse     []StatusResponse     `json:"status_response,omitempty"`
	ElapsedMs          int64                `json:"elapsed_ms,omitempty"`
}

// XrefSearchResponse groups cross-reference matches by file.
type XrefSearchResponse struct {
	Status                        int                `json:"status"`
	StatusMessage                 string             `json:"status_message,omitempty"`
	EstimatedTotalNumberOfResults int                `json:"estimated_total_number_of_results,omitempty"`
	SearchResult                  []XrefSearchResult `json:"search_result,omitempty"`
}

// XrefSearchResult holds the matches found in one file.
type XrefSearchResult struct {
	File  FileSpec          `json:"file"`
	Match []XrefSingleMatch `json:"match,omitempty"`
}

// XrefSingleMatch is one cross-reference site.
type XrefSingleMatch struct {
	LineNumber int      `json:"line_number"`
	LineText   string   `json:"line_text,omitempty"`
	Type       EdgeKind `json:"type"`
	Signature  string   `json:"signature,omitempty"`
}

// CallGraphResponse carries the root of a caller tree.
type CallGraphResponse struct {
	Status                        int    `json:"status"`
	StatusMessage                 string `json:"status_message,omitempty"`
	EstimatedTotalNumberOfResults int    `json:"estimated_total_number_of_results,omitempty"`
	Node                          *Node  `json:"node,omitempty"`
}

// Node is a call graph vertex. Children are its callers.
type Node struct {
	Signature     string     `json:"signature,omitempty"`
	Identifier    string     `json:"identifier,omitempty"`
	FilePath      string     `json:"file_path,omitempty"`
	NodeKind      NodeKind   `json:"node_kind,omitempty"`
	CallSiteRange *TextRange `json:"call_site_range,omitempty"`
	SnippetText   string     `json:"snippet_text,omitempty"`
	Children      []Node     `json:"children,omitempty"`
}

// FileInfoResponse carries file metadata.
type FileInfoResponse struct {
	Status        int       `json:"status"`
	StatusMessage string    `json:"status_message,omitempty"`
	FileInfo      *FileInfo `json:"file_info,omitempty"`
}

// FileInfo describes one file. Outline and folding metadata are passed
// through untouched.
type FileInfo struct {
	Name            string          `json:"name"`
	PackageName     string          `json:"package_name,omitempty"`
	Language        string          `json:"language,omitempty"`
	Lines           int             `json:"lines,omitempty"`
	Size            int64           `json:"size,omitempty"`
	Revision        string          `json:"revision,omitempty"`
	Content         *FileContent    `json:"content,omitempty"`
	HTMLContent     string          `json:"html_content,omitempty"`
	Outline         json.RawMessage `json:"outline,omitempty"`
	FoldingMetadata json.RawMessage `json:"folding_metadata,omitempty"`
}

// FileContent is the plain text of a file.
type FileContent struct {
	Text string `json:"text"`
}

// DirInfoResponse lists a directory.
type DirInfoResponse struct {
	Status        int        `json:"status"`
	StatusMessage string     `json:"status_message,omitempty"`
	Name          string     `json:"name,omitempty"`
	PackageName   string     `json:"package_name,omitempty"`
	Directory     []DirEntry `json:"directory,omitempty"`
	File          []DirEntry `json:"file,omitempty"`
}

// DirEntry is one listing row.
type DirEntry struct {
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// SearchResponse carries full-text search hits.
type SearchResponse struct {
	Status                        int            `json:"status"`
	StatusMessage                 string         `json:"status_message,omitempty"`
	EstimatedTotalNumberOfResults int            `json:"estimated_total_number_of_results,omitempty"`
	SearchResult                  []SearchResult `json:"search_result,omitempty"`
}

// SearchResult is one matching file.
type SearchResult struct {
	TopFile    FileResult `json:"top_file"`
	Language   string     `json:"language,omitempty"`
	NumMatches int        `json:"num_matches,omitempty"`
	Snippet    []Snippet  `json:"snippet,omitempty"`
}

// FileResult names a matching file.
type FileResult struct {
	File FileSpec `json:"file"`
	Size int64    `json:"size,omitempty"`
}

// Snippet is an excerpt around a match.
type Snippet struct {
	Text            SnippetText `json:"text"`
	FirstLineNumber int         `json:"first_line_number,omitempty"`
	MatchLineNumber int         `json:"match_line_number,omitempty"`
}

// SnippetText is snippet text, possibly decorated with syntactic hints.
type SnippetText struct {
	Text string `json:"text"`
}

// StatusResponse reports backend health.
type StatusResponse struct {
	Status        int    `json:"status"`
	StatusMessage string `json:"status_message,omitempty"`
	Version       string `json:"version,omitempty"`
}

// AnnotationResponse carries the annotations of one file.
type AnnotationResponse struct {
	Status        int          `json:"status"`
	StatusMessage string       `json:"status_message,omitempty"`
	Annotation    []Annotation `json:"annotation,omitempty"`
}

// Annotation attaches metadata to a span of file text.
type Annotation struct {
	Type          AnnotationTypeValue `json:"type"`
	Range         TextRange           `json:"range"`
	XrefSignature *XrefSignature      `json:"xref_signature,omitempty"`
	InternalLink  *InternalLink       `json:"internal_link,omitempty"`
	URL           string              `json:"url,omitempty"`
}

// XrefSignature is the symbol reference carried by XREF_SIGNATURE annotations.
type XrefSignature struct {
	Signature          string `json:"signature"`
	HighlightSignature string `json:"highlight_signature,omitempty"`
	ClickSignature     string `json:"click_signature,omitempty"`
}

// InternalLink points at a definition elsewhere in the tree.
type InternalLink struct {
	Path        string    `json:"path"`
	PackageName string    `json:"package_name,omitempty"`
	Range       TextRange `json:"range"`
	Signature   string    `json:"signature,omitempty"`
}
