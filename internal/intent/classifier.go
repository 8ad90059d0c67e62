// Package intent maps utterances onto the fixed intent taxonomy by embedding similarity.
package intent

import (
	"context"
	"errors"
	"fmt"

	"food-ordering-agent/internal/common/logger"
	"food-ordering-agent/internal/common/metrics"
	"food-ordering-agent/internal/models"
	"food-ordering-agent/internal/vectorindex"
)

var ErrReferenceMismatch = errors.New("REFERENCE_MISMATCH")

// Describer produces a short statement of what the user wants.
type Describer interface {
	DescribeIntent(ctx context.Context, utterance, sessionContext string) (string, error)
}

// Embedder is the subset of the embedding service the classifier needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// References holds one embedding per intent, in models.Intents order. Built once at startup.
type References struct {
	intents []models.Intent
	vectors [][]float32
}

// NewReferences embeds every intent description.
func NewReferences(ctx context.Context, embedder Embedder) (*References, error) {
	texts := make([]string, len(models.Intents))
	for i, in := range models.Intents {
		texts[i] = in.Description()
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed intent descriptions: %w", err)
	}
	return NewReferencesFromVectors(vectors)
}

// NewReferencesFromVectors wraps precomputed vectors, one per models.Intents entry.
func NewReferencesFromVectors(vectors [][]float32) (*References, error) {
	if len(vectors) != len(models.Intents) {
		return nil, fmt.Errorf("%w: got %d vectors for %d intents", ErrReferenceMismatch, len(vectors), len(models.Intents))
	}
	intents := append([]models.Intent{}, models.Intents...)
	copied := make([][]float32, len(vectors))
	for i, v := range vectors {
		copied[i] = append([]float32{}, v...)
	}
	return &References{intents: intents, vectors: copied}, nil
}

type Classifier struct {
	refs      *References
	describer Describer
	embedder  Embedder
	logger    logger.Logger
}

func NewClassifier(refs *References, describer Describer, embedder Embedder, log logger.Logger) *Classifier {
	return &Classifier{
		refs:      refs,
		describer: describer,
		embedder:  embedder,
		logger:    logger.Component(log, "intent-classifier"),
	}
}

// Result carries the chosen intent with the evidence behind it.
type Result struct {
	Intent      models.Intent
	Description string
	Scores      []float64
}

// Classify always returns one of the taxonomy's intents unless a collaborator fails.
// Ties go to the intent declared first.
func (c *Classifier) Classify(ctx context.Context, utterance, sessionContext string) (*Result, error) {
	description, err := c.describer.DescribeIntent(ctx, utterance, sessionContext)
	metrics.ObserveCall("llm", "describeIntent", err)
	if err != nil {
		return nil, fmt.Errorf("describe intent: %w", err)
	}

	vec, err := c.embedder.Embed(ctx, description)
	metrics.ObserveCall("embedding", "embed", err)
	if err != nil {
		return nil, fmt.Errorf("embed intent description: %w", err)
	}

	scores := make([]float64, len(c.refs.vectors))
	for i, ref := range c.refs.vectors {
		score, err := vectorindex.CosineSimilarity(vec, ref)
		if err != nil {
			return nil, fmt.Errorf("score intent %s: %w", c.refs.intents[i], err)
		}
		scores[i] = score
	}

	chosen := c.refs.intents[vectorindex.ArgMax(scores)]
	metrics.IntentsClassified.WithLabelValues(string(chosen)).Inc()

	c.logger.Debug("intent classified", map[string]interface{}{
		"intent":      string(chosen),
		"description": description,
	})

	return &Result{Intent: chosen, Description: description, Scores: scores}, nil
}
