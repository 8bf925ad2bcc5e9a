package ml

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Predictor serves yield predictions from an immutable pipeline and
// catalog. It is safe for concurrent use.
type Predictor struct {
	catalog  *Catalog
	pipeline *Pipeline
}

// NewPredictor checks that every catalog value is a category the encoder
// was fitted on.
func NewPredictor(catalog *Catalog, pipeline *Pipeline) (*Predictor, error) {
	for _, column := range CategoricalNames() {
		for _, value := range catalog.Values(column) {
			if !pipeline.Encoder().Knows(column, value) {
				return nil, artifactError("catalog", nil, "%s %q is not known to the pipeline encoder", column, value)
			}
		}
	}
	return &Predictor{catalog: catalog, pipeline: pipeline}, nil
}

// LoadPredictor reads both artifacts. Any failure is an ARTIFACT_LOAD_ERROR
// and the caller must not serve.
func LoadPredictor(ctx context.Context, pipelinePath, catalogPath string) (*Predictor, error) {
	var (
		pipeline *Pipeline
		catalog  *Catalog
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pipeline, err = LoadPipeline(pipelinePath)
		return err
	})
	g.Go(func() error {
		var err error
		catalog, err = LoadCatalog(catalogPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewPredictor(catalog, pipeline)
}

func (p *Predictor) Catalog() *Catalog {
	return p.catalog
}

func (p *Predictor) Pipeline() *Pipeline {
	return p.pipeline
}

// Predict validates the request, builds the log1p feature row, runs the
// pipeline and inverts the target transform.
func (p *Predictor) Predict(req Request) (Result, error) {
	req = req.Normalize()
	if err := p.catalog.Validate(req); err != nil {
		return Result{}, err
	}
	if err := validateMagnitudes(req); err != nil {
		return Result{}, err
	}

	raw, err := p.pipeline.Raw(BuildFeatureRow(req))
	if err != nil {
		return Result{}, err
	}
	yield, err := p.pipeline.Invert(raw)
	if err != nil {
		return Result{}, err
	}
	return Result{Yield: yield, Raw: raw}, nil
}
