package domain

import "time"

// ScrapRequest is a quote request for scrapping a vehicle.
type ScrapRequest struct {
	ID          string
	Name        string
	PhoneNumber string
	Email       string
	CarBrand    string
	Model       string
	Year        int
	FuelType    string
	City        string
	CreatedAt   time.Time
}
