package codesearch

import (
	"codesearch/internal/application/common/logging"
	"codesearch/internal/domain/errors/domain"
	"context"
	"fmt"
	"sort"
	"strings"
)

// GetSignatureForSymbol finds the signature of the first occurrence of word
// in the file at path. It fetches the file content and its XREF_SIGNATURE
// annotations, then picks the first annotation, in file order, whose text is
// exactly word.
func (c *Client) GetSignatureForSymbol(ctx context.Context, path, word string) (string, error) {
	fileSpec, err := c.GetFileSpec(path)
	if err != nil {
		return "", err
	}

	info, err := c.SendRequest(ctx, &CompoundRequest{
		FileInfoRequest: []FileInfoRequest{{FileSpec: fileSpec}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", fileSpec.Name, err)
	}
	if len(info.FileInfoResponse) == 0 || info.FileInfoResponse[0].FileInfo == nil ||
		info.FileInfoResponse[0].FileInfo.Content == nil {
		return "", fmt.Errorf("%w: file info for %s carries no content", domain.ErrMalformedResponse, fileSpec.Name)
	}
	lines := strings.Split(info.FileInfoResponse[0].FileInfo.Content.Text, "\n")

	annotations, err := c.GetAnnotationsForFile(ctx, path, []AnnotationType{AnnotationXrefSignature})
	if err != nil {
		return "", fmt.Errorf("failed to fetch annotations for %s: %w", fileSpec.Name, err)
	}

	signature, ok := FindSignature(lines, annotations.Annotation, word)
	if !ok {
		return "", fmt.Errorf("%w: %q in %s", domain.ErrSignatureNotFound, word, fileSpec.Name)
	}

	c.logger.Debug(ctx, "Resolved signature", logging.Fields{
		"file":      fileSpec.Name,
		"word":      word,
		"signature": signature,
	})
	return signature, nil
}

// FindSignature returns the signature of the first XREF_SIGNATURE annotation,
// ordered by position, whose range covers exactly word.
func FindSignature(lines []string, annotations []Annotation, word string) (string, bool) {
	candidates := make([]Annotation, 0, len(annotations))
	for _, a := range annotations {
		if a.Type.ID == AnnotationXrefSignature && a.XrefSignature != nil && a.XrefSignature.Signature != "" {
			candidates = append(candidates, a)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := candidates[i].Range, candidates[j].Range
		if ri.StartLine != rj.StartLine {
			return ri.StartLine < rj.StartLine
		}
		return ri.StartColumn < rj.StartColumn
	})

	for _, a := range candidates {
		if text, ok := rangeText(lines, a.Range); ok && text == word {
			return a.XrefSignature.Signature, true
		}
	}
	return "", false
}

// rangeText extracts the text covered by a single-line range.
func rangeText(lines []string, r TextRange) (string, bool) {
	if r.StartLine != r.EndLine || r.StartLine < 1 || r.StartLine > len(lines) {
		return "", false
	}
	line := lines[r.StartLine-1]
	if r.StartColumn < 1 || r.EndColumn < r.StartColumn || r.EndColumn > len(line) {
		return "", false
	}
	return line[r.StartColumn-1 : r.EndColumn], true
}
