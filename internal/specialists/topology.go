package specialists

// NewTopology builds the network-topology specialist. It answers in terms of
// the service graph: which components talk to which, where the load balancers
// and failure domains sit, and how traffic actually flows.
func NewTopology() *KnowledgeBase {
	return NewKnowledgeBase(
		"topology",
		[]string{"network", "topology", "routing", "infrastructure", "services"},
		0.3,
		[]Entry{
			{
				Keywords:   []string{"gateway", "routing", "ingress"},
				Content:    "All external traffic enters through the edge gateway pair; internal services are never directly reachable, so a gateway fault takes every public endpoint down at once.",
				Source:     "topology-map:edge",
				Confidence: 0.9,
				Tags:       []string{"topology", "gateway"},
			},
			{
				Keywords:   []string{"database", "replica", "cluster"},
				Content:    "The database tier runs a primary with two replicas across availability zones; writes go only to the primary, so replica health does not affect write availability.",
				Source:     "topology-map:data-tier",
				Confidence: 0.85,
				Tags:       []string{"topology", "database"},
			},
			{
				Keywords:   []string{"load", "balancer", "balancing"},
				Content:    "Load balancers health-check backends every five seconds and eject on three consecutive failures; a flapping backend oscillates in and out of rotation rather than staying down.",
				Source:     "topology-map:lb",
				Confidence: 0.8,
				Tags:       []string{"topology", "load-balancing"},
			},
			{
				Keywords:   []string{"dns", "resolution", "resolve"},
				Content:    "Internal service discovery is DNS-based with a 30 second TTL; topology changes propagate within that window, and stale resolution beyond it indicates a resolver cache problem.",
				Source:     "topology-map:dns",
				Confidence: 0.75,
				Tags:       []string{"topology", "dns"},
			},
			{
				Keywords:   []string{"timeout", "upstream", "downstream"},
				Content:    "Upstream timeouts compound along the call chain; the gateway budget is the sum of downstream budgets, so a slow leaf service surfaces as a gateway timeout.",
				Source:     "topology-map:call-graph",
				Confidence: 0.7,
				Tags:       []string{"topology", "timeout"},
			},
			{
				Keywords:   []string{"zone", "region", "failover"},
				Content:    "Failover between zones is automatic for stateless tiers and operator-driven for the data tier; cross-region failover is always a manual decision.",
				Source:     "topology-map:failure-domains",
				Confidence: 0.8,
				Tags:       []string{"topology", "failover"},
			},
		},
	)
}
