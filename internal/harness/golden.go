package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunGolden executes the scenario at path and compares its transcript
// against testdata/golden/{name}.golden.
//
// To regenerate golden files:
//
//	go test ./internal/harness -update
func RunGolden(t *testing.T, path string) *Result {
	t.Helper()

	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}

	result, err := Run(s)
	if err != nil {
		t.Fatalf("run scenario %s: %v", s.Name, err)
	}

	for _, problem := range Verify(s, result) {
		t.Errorf("scenario %s: %s", s.Name, problem)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, []byte(result.Transcript))

	return result
}
