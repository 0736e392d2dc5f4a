package specialists

// NewTickets builds the support-ticket specialist. Its knowledge base is
// drawn from recurring incident and ticket patterns: common failure modes,
// their observed causes, and the remediations that closed the tickets.
func NewTickets() *KnowledgeBase {
	return NewKnowledgeBase(
		"tickets",
		[]string{"incidents", "support", "errors", "outage", "troubleshooting"},
		0.3,
		[]Entry{
			{
				Keywords:   []string{"timeout", "gateway"},
				Content:    "Gateway timeouts in past incidents almost always traced back to connection pool exhaustion on the upstream service; raising the pool ceiling and adding retry backoff closed those tickets.",
				Source:     "ticket-archive:INC-1042",
				Confidence: 0.85,
				Tags:       []string{"incidents", "timeout"},
			},
			{
				Keywords:   []string{"database", "connection", "refused"},
				Content:    "Connection-refused errors against the database cluster correlate with failover windows; clients without retry logic surface them as user-visible outages.",
				Source:     "ticket-archive:INC-0877",
				Confidence: 0.8,
				Tags:       []string{"incidents", "database"},
			},
			{
				Keywords:   []string{"memory", "leak", "oom"},
				Content:    "Out-of-memory restarts were repeatedly caused by unbounded in-process caches; tickets resolved once cache eviction was enforced.",
				Source:     "ticket-archive:INC-0933",
				Confidence: 0.75,
				Tags:       []string{"incidents", "memory"},
			},
			{
				Keywords:   []string{"deploy", "rollback", "release"},
				Content:    "Roughly a third of severity-2 tickets open within an hour of a deploy; rollback first, diagnose second is the standing incident guidance.",
				Source:     "ticket-archive:runbook",
				Confidence: 0.7,
				Tags:       []string{"incidents", "deploys"},
			},
			{
				Keywords:   []string{"login", "auth", "authentication"},
				Content:    "Authentication failure spikes have historically been certificate expiry, not credential issues; check cert validity before resetting user sessions.",
				Source:     "ticket-archive:INC-1101",
				Confidence: 0.8,
				Tags:       []string{"incidents", "auth"},
			},
			{
				Keywords:   []string{"slow", "latency", "performance"},
				Content:    "Latency regressions reported through tickets usually localize to one downstream dependency; per-dependency timing breakdowns resolved them fastest.",
				Source:     "ticket-archive:INC-0810",
				Confidence: 0.65,
				Tags:       []string{"performance"},
			},
		},
	)
}
