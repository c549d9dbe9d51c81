package ai

import (
	"context"
	"errors"
)

// GeneratorOracle renders candidate batches into a prompt and sends it through a Generator.
type GeneratorOracle struct {
	generator Generator
}

func NewGeneratorOracle(generator Generator) (*GeneratorOracle, error) {
	if generator == nil {
		return nil, errors.Join(ErrConfiguration, errors.New("generator is required"))
	}
	return &GeneratorOracle{generator: generator}, nil
}

func (o *GeneratorOracle) ScoreBatch(ctx context.Context, systemPrompt, jobExcerpt string, candidates []Excerpt) (string, error) {
	return o.generator.GenerateContent(ctx, systemPrompt, buildBatchPrompt(jobExcerpt, candidates))
}
