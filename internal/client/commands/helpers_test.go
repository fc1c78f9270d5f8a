package commands_test

import (
	"bytes"
	"codesearch/internal/client"
	"codesearch/internal/client/commands"
	"codesearch/internal/codesearch"
	"context"
	"errors"
	"path"
	"testing"
)

// fakeBackend records every call and answers from canned values.
type fakeBackend struct {
	signature    string
	signatureErr error
	sendErr      error
	fileSpecErr  error

	lookups     [][2]string
	sent        []*codesearch.CompoundRequest
	annotations []commands.AnnotationQuery
	fileSpecs   []string
	logLevels   []string
	teardowns   int
}

func (f *fakeBackend) GetSignatureForSymbol(_ context.Context, p, word string) (string, error) {
	f.lookups = append(f.lookups, [2]string{p, word})
	if f.signatureErr != nil {
		return "", f.signatureErr
	}
	return f.signature, nil
}

func (f *fakeBackend) SendRequest(_ context.Context, req *codesearch.CompoundRequest) (*codesearch.CompoundResponse, error) {
	f.sent = append(f.sent, req)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	resp := &codesearch.CompoundResponse{}
	if req.IsStatus() {
		resp.StatusResponse = []codesearch.StatusResponse{{Status: 0, Version: "fake"}}
	}
	return resp, nil
}

func (f *fakeBackend) GetAnnotationsForFile(
	_ context.Context,
	p string,
	types []codesearch.AnnotationType,
) (*codesearch.AnnotationResponse, error) {
	f.annotations = append(f.annotations, commands.AnnotationQuery{Path: p, Types: types})
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &codesearch.AnnotationResponse{}, nil
}

func (f *fakeBackend) GetFileSpec(p string) (codesearch.FileSpec, error) {
	f.fileSpecs = append(f.fileSpecs, p)
	if f.fileSpecErr != nil {
		return codesearch.FileSpec{}, f.fileSpecErr
	}
	name := path.Clean(p)
	if name == "." {
		name = ""
	}
	return codesearch.FileSpec{Name: name, PackageName: "chromium"}, nil
}

func (f *fakeBackend) SetLogLevel(level string) error {
	f.logLevels = append(f.logLevels, level)
	return nil
}

func (f *fakeBackend) TeardownCache() error {
	f.teardowns++
	return nil
}

// harness runs command lines against a fakeBackend.
type harness struct {
	backend    *fakeBackend
	connectErr error
	configErr  error
	configure  func(*client.Config)
	opts       []codesearch.Options
	stdout     bytes.Buffer
	stderr     bytes.Buffer
}

func newHarness() *harness {
	return &harness{backend: &fakeBackend{signature: "cpp:base::Resolved"}}
}

func (h *harness) run(t *testing.T, args ...string) int {
	t.Helper()

	return commands.RunWithEnvironment(args, commands.Environment{
		Stdout: &h.stdout,
		Stderr: &h.stderr,
		Getwd:  func() (string, error) { return "/src/chromium/base", nil },
		LoadConfig: func(string) (*client.Config, error) {
			if h.configErr != nil {
				return nil, h.configErr
			}
			cfg := client.DefaultConfig()
			if h.configure != nil {
				h.configure(&cfg)
			}
			return &cfg, nil
		},
		Connect: func(opts codesearch.Options) (commands.Backend, error) {
			h.opts = append(h.opts, opts)
			if h.connectErr != nil {
				return nil, h.connectErr
			}
			return h.backend, nil
		},
	})
}

var errBoom = errors.New("boom")
