package nodes

// Count is a snapshot of the registry populations.
type Count struct {
	All          int `json:"all_count"`
	Quarantined  int `json:"quarantined_count"`
	NotReachable int `json:"not_reachable_count"`
	Available    int `json:"available_count"`
}

// Stats are cumulative removal counters since the registry was created.
type Stats struct {
	Evicted   uint64 `json:"evicted"`
	Forgotten uint64 `json:"forgotten"`
}
