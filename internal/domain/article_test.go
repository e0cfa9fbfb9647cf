package domain

import "testing"

func TestAnalysisStatusTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to AnalysisStatus
		want     bool
	}{
		{AnalysisNotAnalyzed, AnalysisPending, true},
		{AnalysisNotAnalyzed, AnalysisCompleted, false},
		{AnalysisNotAnalyzed, AnalysisFailed, false},
		{AnalysisPending, AnalysisCompleted, true},
		{AnalysisPending, AnalysisFailed, true},
		{AnalysisPending, AnalysisNotAnalyzed, false},
		{AnalysisCompleted, AnalysisPending, false},
		{AnalysisCompleted, AnalysisFailed, false},
		{AnalysisFailed, AnalysisPending, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanAdvanceTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
