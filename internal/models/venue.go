// internal/models/venue.go
package models

type Venue struct {
	StoreID             string               `json:"store_id" yaml:"store_id"`
	Name                string               `json:"name" yaml:"name"`
	Address             string               `json:"address" yaml:"address"`
	CategoryIDs         []string             `json:"category_ids,omitempty" yaml:"category_ids"`
	Proximity           float64              `json:"proximity" yaml:"proximity"`
	ServiceAvailability []ServiceAvailability `json:"service_availability,omitempty" yaml:"service_availability"`
}

type ServiceAvailability struct {
	DayOfWeek   string       `json:"day_of_week" yaml:"day_of_week"`
	TimePeriods []TimePeriod `json:"time_periods" yaml:"time_periods"`
}

type TimePeriod struct {
	StartTime string `json:"start_time" yaml:"start_time"`
	EndTime   string `json:"end_time" yaml:"end_time"`
}
