package dtos

type HealthResponse struct {
	Uptime    float64 `json:"uptime"`
	Message   string  `json:"message"`
	Timestamp int64   `json:"timestamp"`
}
