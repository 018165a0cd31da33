package service

import (
	"context"
	"io"

	"github.com/mitra-ai/docchat/internal/parser"
	"github.com/mitra-ai/docchat/internal/vectorindex"
)

type fakeEmbedder struct {
	identity string
	vectors  map[string][]float32
	fallback []float32
	err      error
	calls    int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		identity: "fake/embed",
		vectors:  map[string][]float32{},
		fallback: []float32{1, 0, 0},
	}
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return f.fallback, nil
}

func (f *fakeEmbedder) Identity() string {
	return f.identity
}

type fakeGenerator struct {
	answer string
	err    error
	calls  int
	prompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fakeExtractor struct {
	pages []parser.Page
	err   error
}

func (f *fakeExtractor) ExtractPages(r io.Reader) ([]parser.Page, error) {
	io.Copy(io.Discard, r)
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

func memoryIndexFactory(provider string, name string) (vectorindex.Index, error) {
	return vectorindex.New("memory", nil, provider, name)
}
