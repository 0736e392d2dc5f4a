package specialists

// NewDocs builds the documentation specialist. It surfaces what the written
// documentation actually says, with the document as the source, and leaves
// interpretation to the other specialists.
func NewDocs() *KnowledgeBase {
	return NewKnowledgeBase(
		"docs",
		[]string{"documentation", "configuration", "reference", "api", "guides"},
		0.3,
		[]Entry{
			{
				Keywords:   []string{"timeout", "configure", "configuration"},
				Content:    "Per the operations guide, request timeouts are configured per service in the deployment manifest; the documented default is 30 seconds and values above 60 require a capacity review.",
				Source:     "docs/operations-guide.md",
				Confidence: 0.85,
				Tags:       []string{"configuration", "timeout"},
			},
			{
				Keywords:   []string{"api", "version", "deprecated"},
				Content:    "The API reference marks v1 endpoints as deprecated since the spring release; the migration guide maps each v1 route to its v2 replacement.",
				Source:     "docs/api-reference.md",
				Confidence: 0.9,
				Tags:       []string{"documentation", "api"},
			},
			{
				Keywords:   []string{"database", "backup", "restore"},
				Content:    "The runbook documents nightly database backups with point-in-time restore; restores are rehearsed quarterly and the documented recovery objective is one hour.",
				Source:     "docs/runbook.md",
				Confidence: 0.8,
				Tags:       []string{"documentation", "database"},
			},
			{
				Keywords:   []string{"auth", "token", "authentication"},
				Content:    "The security guide specifies token lifetimes of 15 minutes for access tokens and 30 days for refresh tokens; services must not cache tokens past expiry.",
				Source:     "docs/security-guide.md",
				Confidence: 0.85,
				Tags:       []string{"documentation", "auth"},
			},
			{
				Keywords:   []string{"deploy", "release", "pipeline"},
				Content:    "The release guide requires canary deployment to one zone with a 30 minute soak before full rollout; skipping the soak needs an approved exception.",
				Source:     "docs/release-guide.md",
				Confidence: 0.8,
				Tags:       []string{"documentation", "deploys"},
			},
			{
				Keywords:   []string{"logging", "logs", "retention"},
				Content:    "Per the observability guide, service logs are retained for 30 days hot and 13 months in archive; anything older requires a data request.",
				Source:     "docs/observability-guide.md",
				Confidence: 0.75,
				Tags:       []string{"documentation", "logging"},
			},
		},
	)
}
