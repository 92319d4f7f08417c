package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `phishbox exposes read-only research data from phishing-awareness studies.

A study is a simulated mailbox. Each participation is one participant's run:
they redeem a code, optionally consent, start a timed sorting task, move
emails into folders and finish. Every interaction with an email is logged as
a behavioural event.

Workflow:
1) list_studies to find a study ID.
2) study_report for per-participation status, sorting correctness and events.
3) participation_events for the raw event stream of one participation.

Docs:
- phishbox://docs/events (event types and their fields)
- phishbox://docs/statuses (participation status labels)
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
		URI:         "phishbox://docs/events",
		Name:        "docs_events",
		Title:       "Behavioural event types",
		Description: "The event variants recorded per mailbox email and their payload fields.",
		Content: `# Behavioural events

Events are append-only and ordered by ` + "`created_at`" + `, ties broken by ` + "`id`" + `.
Each event belongs to one mailbox email of one participation.

| type | fields | meaning |
|---|---|---|
| ` + "`email-view`" + ` | - | email opened in the reader |
| ` + "`email-details-view`" + ` | - | raw headers panel opened |
| ` + "`email-external-images-view`" + ` | - | blocked remote images loaded |
| ` + "`email-moved`" + ` | ` + "`fromFolderId`" + ` (null = inbox), ` + "`toFolderId`" + ` | email filed into a folder, written by the server |
| ` + "`email-scrolled`" + ` | ` + "`scrollPosition`" + ` in [0,1] | debounced scroll depth sample |
| ` + "`email-link-click`" + ` | ` + "`url`" + `, ` + "`linkText`" + ` | hyperlink clicked |
| ` + "`email-link-hover`" + ` | ` + "`url`" + `, ` + "`linkText`" + ` | sustained hover over a hyperlink |
`,
	},
	{
		URI:         "phishbox://docs/statuses",
		Name:        "docs_statuses",
		Title:       "Participation statuses",
		Description: "How a participation's status label is derived from its timestamps.",
		Content: `# Participation statuses

Status is derived, never stored. The first matching rule wins:

1. ` + "`finished`" + `: finished_at is set.
2. ` + "`timed_out`" + `: the study timer is enabled and started_at + duration has passed.
3. ` + "`started`" + `: started_at is set.
4. ` + "`consented`" + `: consent_given_at is set.
5. ` + "`code_used`" + `: the participant code was redeemed.
6. ` + "`created`" + `: none of the above.

A participation is **completed** when it is finished or timed out.
An email counts as **correct** when the phishing flag of its folder matches
the phishing flag of the email in the study. Unsorted emails are neither
correct nor incorrect.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
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
