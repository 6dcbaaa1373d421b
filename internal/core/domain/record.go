package domain

import "time"

// Record is one tracked inventory item. Quantity never goes below zero;
// all mutation happens through the service layer.
type Record struct {
	ID        string
	Quantity  int
	Metadata  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
