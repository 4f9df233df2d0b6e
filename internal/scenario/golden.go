package scenario

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden runs sc and compares its trace against
// testdata/golden/<sc.Name>.golden. Regenerate with:
//
//	go test ./internal/scenario -update
func RunWithGolden(t *testing.T, sc *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), sc)
	if err != nil {
		return result, err
	}
	AssertGolden(t, sc.Name, result)
	return result, nil
}

// AssertGolden compares the trace of an existing result against the golden
// file for name.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(result.Trace))
}
