// Package mock provides test doubles for csvstory interfaces.
package mock

import (
	"context"
	"io"

	"github.com/fwojciec/csvstory"
)

// Compile-time interface verification.
var (
	_ csvstory.Backend      = (*Backend)(nil)
	_ csvstory.ImageFetcher = (*ImageFetcher)(nil)
)

// Backend is a mock implementation of csvstory.Backend.
type Backend struct {
	AnalyzeFn           func(ctx context.Context, p csvstory.Payload) (*csvstory.AnalysisResult, error)
	GenerateSequenceFn  func(ctx context.Context, p csvstory.Payload) (*csvstory.Artifact, error)
	GenerateStoryFn     func(ctx context.Context, p csvstory.Payload) (*csvstory.Story, error)
	GenerateChartsFn    func(ctx context.Context, p csvstory.Payload) (*csvstory.Artifact, error)
	GenerateTemplatesFn func(ctx context.Context, p csvstory.Payload) (*csvstory.Artifact, error)
	DownloadFn          func(ctx context.Context, w io.Writer) (int64, error)
}

func (b *Backend) Analyze(ctx context.Context, p csvstory.Payload) (*csvstory.AnalysisResult, error) {
	return b.AnalyzeFn(ctx, p)
}

func (b *Backend) GenerateSequence(ctx context.Context, p csvstory.Payload) (*csvstory.Artifact, error) {
	return b.GenerateSequenceFn(ctx, p)
}

func (b *Backend) GenerateStory(ctx context.Context, p csvstory.Payload) (*csvstory.Story, error) {
	return b.GenerateStoryFn(ctx, p)
}

func (b *Backend) GenerateCharts(ctx context.Context, p csvstory.Payload) (*csvstory.Artifact, error) {
	return b.GenerateChartsFn(ctx, p)
}

func (b *Backend) GenerateTemplates(ctx context.Context, p csvstory.Payload) (*csvstory.Artifact, error) {
	return b.GenerateTemplatesFn(ctx, p)
}

func (b *Backend) Download(ctx context.Context, w io.Writer) (int64, error) {
	return b.DownloadFn(ctx, w)
}

// ImageFetcher is a mock implementation of csvstory.ImageFetcher.
type ImageFetcher struct {
	FetchImageFn func(ctx context.Context, src string, w io.Writer) error
}

func (f *ImageFetcher) FetchImage(ctx context.Context, src string, w io.Writer) error {
	return f.FetchImageFn(ctx, src, w)
}
