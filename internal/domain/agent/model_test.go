package agent_test

import (
	"testing"

	"github.com/ganot/progen/internal/domain/agent"
	"github.com/stretchr/testify/require"
)

func TestParseOutput_Analysis(t *testing.T) {
	text := `{"summary":"needs a data platform","proposed_workstreams":[{"name":"Data Platform","estimate":{"optimistic_months":2,"likely_months":3,"pessimistic_months":6}}]}`

	out := agent.ParseOutput(agent.OutputAnalysis, text)
	require.Equal(t, agent.OutputAnalysis, out.Kind)
	require.NotNil(t, out.Analysis)
	require.Equal(t, "needs a data platform", out.Analysis.Summary)
	require.Len(t, out.Analysis.ProposedWorkstreams, 1)
	require.Equal(t, 3, out.Analysis.ProposedWorkstreams[0].Estimate.LikelyMonths)
	require.Equal(t, text, out.Raw)
}

func TestParseOutput_StripsMarkdownFences(t *testing.T) {
	text := "```json\n{\"summary\":\"ok\",\"decisions\":[{\"topic\":\"stack\",\"decision\":\"managed\"}]}\n```"

	out := agent.ParseOutput(agent.OutputSynthesis, text)
	require.Equal(t, agent.OutputSynthesis, out.Kind)
	require.NotNil(t, out.Synthesis)
	require.Len(t, out.Synthesis.Decisions, 1)
}

func TestParseOutput_FallsBackToRaw(t *testing.T) {
	for _, text := range []string{
		"not json at all",
		"{}",           // valid JSON, empty shell
		`{"other": 1}`, // valid JSON, no recognized fields
	} {
		out := agent.ParseOutput(agent.OutputAnalysis, text)
		require.Equal(t, agent.OutputRaw, out.Kind, "input %q", text)
		require.Nil(t, out.Analysis)
		require.Equal(t, text, out.Raw)
	}
}

func TestParseOutput_SynthesisConflicts(t *testing.T) {
	text := `{"summary":"split opinions","conflicts":[{"topic":"build vs buy","description":"architecture disagrees with finance"}]}`

	out := agent.ParseOutput(agent.OutputSynthesis, text)
	require.Equal(t, agent.OutputSynthesis, out.Kind)
	require.Len(t, out.Synthesis.Conflicts, 1)
	require.Equal(t, "build vs buy", out.Synthesis.Conflicts[0].Topic)
}
