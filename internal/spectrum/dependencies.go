package spectrum

import (
	"context"

	"github.com/temirov/xsec/internal/config"
	"github.com/temirov/xsec/internal/histio"
	"github.com/temirov/xsec/internal/unfolding"
)

// Unfolder runs one unfolding problem to a terminal state.
type Unfolder interface {
	Run(executionContext context.Context, problem unfolding.Problem) unfolding.Outcome
}

// InputLoader reads the histograms named by a configuration.
type InputLoader interface {
	Load(configuration config.Configuration) (histio.InputSet, error)
}

// ResultWriter persists the result objects of a run.
type ResultWriter interface {
	Write(outputPath string, entries []histio.Entry) error
}

var (
	_ Unfolder     = (*unfolding.Adapter)(nil)
	_ InputLoader  = (*histio.Loader)(nil)
	_ ResultWriter = (*histio.Writer)(nil)
)
