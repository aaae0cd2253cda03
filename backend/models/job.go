package models

// JobSummary holds the dashboard job counters
type JobSummary struct {
	ActiveJobs   int `json:"activeJobs"`
	JobMatchings int `json:"jobMatchings"`
	ExpiringJobs int `json:"expiringJobs"`
}
