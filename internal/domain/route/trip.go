package route

import (
	"context"
	"sort"
	"time"
)

// TripStatusCancelled marks a trip that no longer runs.
const TripStatusCancelled = "CANCELLED"

// Trip is a scheduled departure offered by the bus service.
type Trip struct {
	ID              string
	BusID           string
	BusNumber       string
	OperatorID      string
	OperatorName    string
	BusType         string
	OriginCity      string
	DestinationCity string
	DepartureTime   time.Time
	ArrivalTime     time.Time
	BaseFare        float64
	AvailableSeats  int
	TotalSeats      int
	Status          string
	Amenities       string
}

// IsBookable reports whether the trip runs and has room for passengers.
func (t Trip) IsBookable(passengers int) bool {
	return t.Status != TripStatusCancelled && t.AvailableSeats >= passengers
}

// TripLookup fetches trip inventory from the bus service.
type TripLookup interface {
	// AvailableTrips returns trips between two cities departing on date.
	AvailableTrips(ctx context.Context, origin, destination string, date time.Time) ([]Trip, error)

	// TripsByRoute returns all trips between two cities regardless of date.
	TripsByRoute(ctx context.Context, origin, destination string) ([]Trip, error)
}

// TripSummary aggregates the bookable trips for one search.
type TripSummary struct {
	Count             int
	MinFare           *float64
	MaxFare           *float64
	EarliestDeparture *time.Time
	LatestDeparture   *time.Time
	Trips             []Trip
}

// SummarizeTrips keeps the trips that are bookable for passengers and
// computes fare and departure ranges over them. Kept trips are ordered by
// departure time.
func SummarizeTrips(trips []Trip, passengers int) TripSummary {
	if passengers < 1 {
		passengers = 1
	}

	kept := make([]Trip, 0, len(trips))
	for _, t := range trips {
		if t.IsBookable(passengers) {
			kept = append(kept, t)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].DepartureTime.Before(kept[j].DepartureTime)
	})

	summary := TripSummary{Count: len(kept), Trips: kept}
	if len(kept) == 0 {
		return summary
	}

	minFare, maxFare := kept[0].BaseFare, kept[0].BaseFare
	for _, t := range kept[1:] {
		if t.BaseFare < minFare {
			minFare = t.BaseFare
		}
		if t.BaseFare > maxFare {
			maxFare = t.BaseFare
		}
	}
	earliest := kept[0].DepartureTime
	latest := kept[len(kept)-1].DepartureTime

	summary.MinFare = &minFare
	summary.MaxFare = &maxFare
	summary.EarliestDeparture = &earliest
	summary.LatestDeparture = &latest
	return summary
}
