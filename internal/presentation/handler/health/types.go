package health

// healthResponse reports liveness plus uptime for probes and dashboards.
type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
}
