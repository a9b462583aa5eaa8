package entity

// AdminStats are the counters shown on the administration dashboard.
type AdminStats struct {
	Users    int64 `json:"users"`
	Listings int64 `json:"listings"`
	Reviews  int64 `json:"reviews"`
}
