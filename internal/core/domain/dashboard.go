package domain

import "time"

// Dashboard is the read model behind the overview screen.
type Dashboard struct {
	Stats            FootprintStats    `json:"stats"`
	Chart            []ChartPoint      `json:"chart"`
	RecentActivities []*CarbonActivity `json:"recent_activities"`
	Insight          *Insight          `json:"insight,omitempty"`
	AsOf             time.Time         `json:"as_of"`
}

type DigestReport struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}
