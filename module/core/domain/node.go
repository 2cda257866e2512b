package domain

const (
	DefaultAlertRadiusKm = 5.0
	DefaultStopRadiusKm  = 8.0
)

type ReferenceNode struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Lat           float64 `json:"latitude"`
	Lon           float64 `json:"longitude"`
	AlertRadiusKm float64 `json:"alertRadiusKm"`
	StopRadiusKm  float64 `json:"stopRadiusKm"`
}

// Evaluation is the engine's verdict for a single position.
type Evaluation struct {
	Status          Status
	Distance        float64
	NearestNodeID   string
	NearestNodeName string
}

type NodesInfo struct {
	TotalNodes int             `json:"totalNodes"`
	Nodes      []ReferenceNode `json:"nodes"`
}
