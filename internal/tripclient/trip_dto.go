package tripclient

import (
	"encoding/json"
	"fmt"
	"time"

	routeDomain "github.com/busline/service-route/internal/domain/route"
)

// tripDTO mirrors the bus service's trip representation.
type tripDTO struct {
	TripID            string        `json:"tripId"`
	BusID             string        `json:"busId"`
	BusNumber         string        `json:"busNumber"`
	OperatorID        string        `json:"operatorId"`
	OperatorName      string        `json:"operatorName"`
	BusType           string        `json:"busType"`
	OriginCity        string        `json:"originCity"`
	DestinationCity   string        `json:"destinationCity"`
	DepartureDateTime localDateTime `json:"departureDateTime"`
	ArrivalDateTime   localDateTime `json:"arrivalDateTime"`
	BaseFareAmount    float64       `json:"baseFareAmount"`
	AvailableSeats    int           `json:"availableSeats"`
	TotalSeats        int           `json:"totalSeats"`
	TripStatus        string        `json:"tripStatus"`
	Amenities         string        `json:"amenities"`
}

func (d tripDTO) toDomain() routeDomain.Trip {
	return routeDomain.Trip{
		ID:              d.TripID,
		BusID:           d.BusID,
		BusNumber:       d.BusNumber,
		OperatorID:      d.OperatorID,
		OperatorName:    d.OperatorName,
		BusType:         d.BusType,
		OriginCity:      d.OriginCity,
		DestinationCity: d.DestinationCity,
		DepartureTime:   d.DepartureDateTime.Time,
		ArrivalTime:     d.ArrivalDateTime.Time,
		BaseFare:        d.BaseFareAmount,
		AvailableSeats:  d.AvailableSeats,
		TotalSeats:      d.TotalSeats,
		Status:          d.TripStatus,
		Amenities:       d.Amenities,
	}
}

// localDateTimeLayouts are tried in order. The bus service sends date-times
// without a zone; those are read as UTC.
var localDateTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	time.RFC3339Nano,
}

type localDateTime struct {
	time.Time
}

func (t *localDateTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date-time must be a string: %w", err)
	}
	if s == "" {
		return nil
	}
	for _, layout := range localDateTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised date-time %q", s)
}
