package models

import "time"

// EventFilter narrows access history queries. Zero values mean "no
// constraint". Limit defaults are applied by the store.
type EventFilter struct {
	Plate      string
	UserType   UserType
	AccessType AccessType
	Status     EventStatus
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// StatsSummary aggregates the access history over a period.
type StatsSummary struct {
	From            time.Time            `json:"from"`
	To              time.Time            `json:"to"`
	TotalEntries    int                  `json:"totalEntries"`
	TotalExits      int                  `json:"totalExits"`
	TotalDenials    int                  `json:"totalDenials"`
	ByUserType      map[UserType]int     `json:"byUserType"`
	DenialsByReason map[DenialReason]int `json:"denialsByReason"`
	CurrentlyInside int                  `json:"currentlyInside"`
}
