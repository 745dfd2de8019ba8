package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `progen turns a program description into a scheduled, resourced delivery plan by running a fixed seven-round collaboration between specialist planning agents.

Core concepts:
- Session: one planning run. Durable; every agent turn is persisted, so an interrupted run resumes without repeating finished work.
- Round: a stage of the protocol. Each round fans out to its expert participants in parallel, then a coordinator synthesizes their outputs into workstream updates.
- Turn: one persisted agent interaction. Only complete turns count; failed turns are retried on resume.
- Program: the assembled result. Workstreams with dependencies and estimates, a critical-path timeline, leveled resource assignments, risks, decisions and financials.

Rules of engagement:
1) Start: call generate_program with program_name, requirements, and optionally budget and a resource pool. This is a long call; it runs all seven rounds.
2) Monitor: from another client, get_session_status and get_recent_activity show round progress and per-agent events.
3) Interrupted? Call generate_program with just session_id. Completed rounds are skipped; a round whose experts all finished needs only its synthesis. Lost the ID? list_sessions with status "failed" or "in_progress" finds it.
4) Completed sessions are idempotent: generate_program with their session_id returns the cached program with zero model calls. get_program does the same without the generation surface.

Docs (progressive disclosure):
- progen://docs/protocol (the seven rounds and their participants)
- progen://docs/resume (resume and idempotence semantics)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "progen://docs/protocol",
		Name:        "docs_protocol",
		Title:       "The planning protocol",
		Description: "The seven rounds, who participates in each, and what each produces.",
		Content: `# The planning protocol

Generation always runs the same seven rounds in order. Each round fans out
to its participants in parallel, then the coordinator synthesizes.

1. Discovery & Context Alignment - all six experts read the raw
   requirements and surface scope, constraints and open questions.
2. Workstream Definition - all six experts propose workstreams; the
   synthesis names them, assigns owners and attaches three-point
   (optimistic/likely/pessimistic) estimates.
3. Dependencies & Sequencing - tech_architecture, platform_delivery and
   go_to_market establish cross-workstream dependencies.
4. Resource & Capacity Planning - finance_resources, platform_delivery and
   tech_architecture map skill requirements onto the provided pool.
5. Risk & Compliance Review - risk_compliance, customer_success and
   go_to_market build the risk register.
6. Financial Planning - finance_resources prices the plan against the
   budget.
7. Final Review & Commitment - all six experts review the consolidated
   plan; the last synthesis locks the workstream set.

After round seven the server assembles the program locally: critical-path
scheduling, resource leveling within slack, skill-based assignment and
costing happen without any model calls.

## Participants

program_coordinator, tech_architecture, platform_delivery, go_to_market,
customer_success, risk_compliance, finance_resources. The coordinator only
synthesizes and resolves conflicts; it never produces an expert analysis.
`,
	},
	{
		URI:         "progen://docs/resume",
		Name:        "docs_resume",
		Title:       "Resume semantics",
		Description: "How interrupted sessions resume and why replays are safe.",
		Content: `# Resume semantics

A round is complete when its synthesis turn is complete. Resume finds the
first round without one and restarts there.

- Expert turns that completed before the interruption are never re-run;
  their persisted outputs feed the synthesis as if freshly produced.
- If every expert of the resume round already finished, only the synthesis
  runs.
- A failed expert turn is retried on resume. Expert failures never abort a
  round; a synthesis failure does, and marks the session failed until
  resumed.
- Completed sessions return the cached program. No model is invoked.

One complete turn per (round, participant, kind) slot is enforced by the
store, so concurrent or replayed generate_program calls cannot duplicate
work.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
