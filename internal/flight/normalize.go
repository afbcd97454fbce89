package flight

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"flightbroker/pkg/gds"
)

const supplierTimeLayout = "2006-01-02T15:04:05"

type rawSearchResponse struct {
	Response *struct {
		TraceId string            `json:"TraceId"`
		Results []json.RawMessage `json:"Results"`
	} `json:"Response"`
}

type rawFare struct {
	Currency      string  `json:"Currency"`
	PublishedFare float64 `json:"PublishedFare"`
	BaseFare      float64 `json:"BaseFare"`
	Tax           float64 `json:"Tax"`
}

type rawResult struct {
	ResultIndex  string            `json:"ResultIndex"`
	Source       json.RawMessage   `json:"Source"`
	IsRefundable bool              `json:"IsRefundable"`
	IsLCC        bool              `json:"IsLCC"`
	Fare         rawFare           `json:"Fare"`
	Segments     []json.RawMessage `json:"Segments"`
}

type rawAirport struct {
	AirportCode string `json:"AirportCode"`
	CityName    string `json:"CityName"`
}

type rawSegment struct {
	TripIndicator int `json:"TripIndicator"`
	Airline       struct {
		AirlineCode  string `json:"AirlineCode"`
		AirlineName  string `json:"AirlineName"`
		FlightNumber string `json:"FlightNumber"`
	} `json:"Airline"`
	Origin struct {
		Airport rawAirport `json:"Airport"`
		DepTime string     `json:"DepTime"`
	} `json:"Origin"`
	Destination struct {
		Airport rawAirport `json:"Airport"`
		ArrTime string     `json:"ArrTime"`
	} `json:"Destination"`
	Duration int    `json:"Duration"`
	Baggage  string `json:"Baggage"`
}

// NormalizeSearch flattens a raw search body into client-facing results.
// Only the first result bucket is read. A body without results yields an empty slice.
func NormalizeSearch(body []byte) ([]SearchResult, error) {
	var raw rawSearchResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: search: %v", gds.ErrInvalidSupplierResponse, err)
	}
	if raw.Response == nil || len(raw.Response.Results) == 0 {
		return []SearchResult{}, nil
	}

	var bucket []rawResult
	if err := json.Unmarshal(raw.Response.Results[0], &bucket); err != nil {
		return nil, fmt.Errorf("%w: search results: %v", gds.ErrInvalidSupplierResponse, err)
	}

	results := make([]SearchResult, 0, len(bucket))
	for _, r := range bucket {
		segments, err := flattenSegments(r.Segments)
		if err != nil {
			return nil, err
		}

		var outbound, inbound []rawSegment
		for _, s := range segments {
			switch s.TripIndicator {
			case 0, 1:
				outbound = append(outbound, s)
			case 2:
				inbound = append(inbound, s)
			}
		}

		results = append(results, SearchResult{
			TraceID:      raw.Response.TraceId,
			ResultIndex:  r.ResultIndex,
			Source:       r.Source,
			IsRefundable: r.IsRefundable,
			IsLCC:        r.IsLCC,
			Price: Price{
				Currency: r.Fare.Currency,
				Total:    r.Fare.PublishedFare,
				Base:     r.Fare.BaseFare,
				Tax:      r.Fare.Tax,
			},
			Flights: Legs{
				Outbound: buildLeg(outbound),
				Inbound:  buildLeg(inbound),
			},
		})
	}
	return results, nil
}

// flattenSegments accepts both an array of segment arrays and a flat array.
func flattenSegments(groups []json.RawMessage) ([]rawSegment, error) {
	var flat []rawSegment
	for _, group := range groups {
		trimmed := bytes.TrimSpace(group)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			continue
		}

		if trimmed[0] == '[' {
			var segs []rawSegment
			if err := json.Unmarshal(trimmed, &segs); err != nil {
				return nil, fmt.Errorf("%w: segments: %v", gds.ErrInvalidSupplierResponse, err)
			}
			flat = append(flat, segs...)
			continue
		}

		var seg rawSegment
		if err := json.Unmarshal(trimmed, &seg); err != nil {
			return nil, fmt.Errorf("%w: segment: %v", gds.ErrInvalidSupplierResponse, err)
		}
		flat = append(flat, seg)
	}
	return flat, nil
}

func buildLeg(raw []rawSegment) *Leg {
	if len(raw) == 0 {
		return nil
	}

	segments := make([]Segment, len(raw))
	for i, s := range raw {
		segments[i] = Segment{
			AirlineCode:     s.Airline.AirlineCode,
			FlightNumber:    s.Airline.FlightNumber,
			Origin:          s.Origin.Airport.AirportCode,
			OriginCity:      s.Origin.Airport.CityName,
			Destination:     s.Destination.Airport.AirportCode,
			DestinationCity: s.Destination.Airport.CityName,
			DepTime:         s.Origin.DepTime,
			ArrTime:         s.Destination.ArrTime,
			Duration:        s.Duration,
			Baggage:         s.Baggage,
		}
	}

	for i := 0; i < len(segments)-1; i++ {
		segments[i].LayoverTime = max(0, minutesBetween(segments[i].ArrTime, segments[i+1].DepTime))
	}

	return &Leg{
		AirlineName: raw[0].Airline.AirlineName,
		Duration:    minutesBetween(segments[0].DepTime, segments[len(segments)-1].ArrTime),
		Stops:       max(0, len(segments)-1),
		Segments:    segments,
	}
}

// minutesBetween floors to whole minutes; unparsable timestamps give 0.
func minutesBetween(from, to string) int {
	start, ok := parseSupplierTime(from)
	if !ok {
		return 0
	}
	end, ok := parseSupplierTime(to)
	if !ok {
		return 0
	}
	return int(math.Floor(end.Sub(start).Minutes()))
}

func parseSupplierTime(value string) (time.Time, bool) {
	if t, err := time.Parse(supplierTimeLayout, value); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	return time.Time{}, false
}
