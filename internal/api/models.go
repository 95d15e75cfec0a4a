package api

// Zone is a parking zone as returned by /master/zones.
type Zone struct {
	ID                      string   `json:"id"`
	Name                    string   `json:"name"`
	CategoryID              string   `json:"categoryId,omitempty"`
	GateIDs                 []string `json:"gateIds,omitempty"`
	TotalSlots              int      `json:"totalSlots"`
	Occupied                int      `json:"occupied"`
	Free                    int      `json:"free"`
	Reserved                int      `json:"reserved"`
	AvailableForVisitors    int      `json:"availableForVisitors"`
	AvailableForSubscribers int      `json:"availableForSubscribers"`
	SubscriberCount         int      `json:"subscriberCount"`
	RateNormal              float64  `json:"rateNormal,omitempty"`
	RateSpecial             float64  `json:"rateSpecial,omitempty"`
	Open                    bool     `json:"open"`
}

// HasGate reports whether the zone is reachable from gateID.
func (z Zone) HasGate(gateID string) bool {
	for _, g := range z.GateIDs {
		if g == gateID {
			return true
		}
	}
	return false
}

// Category groups zones under shared rates.
type Category struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	RateNormal  float64 `json:"rateNormal"`
	RateSpecial float64 `json:"rateSpecial"`
}

// RushHour is a weekly window billed at the special rate.
type RushHour struct {
	ID      string `json:"id"`
	WeekDay int    `json:"weekDay"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// Vacation is a date range billed at the special rate.
type Vacation struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	From string `json:"from"`
	To   string `json:"to"`
}
