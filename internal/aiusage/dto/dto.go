package dto

import "time"

type UsageFilters struct {
	TenantID  string
	Provider  string
	Operation string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}
