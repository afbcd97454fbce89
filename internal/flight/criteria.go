package flight

import (
	"net/url"
	"strconv"
	"strings"

	"flightbroker/pkg/gds"
)

// FormatDate converts DDMMYYYY into the supplier's YYYY-MM-DDT00:00:00.
func FormatDate(date string) (string, bool) {
	if len(date) != 8 {
		return "", false
	}
	for _, r := range date {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return date[4:8] + "-" + date[2:4] + "-" + date[0:2] + "T00:00:00", true
}

var cabinClasses = map[string]int{
	"e":  2, // Economy
	"pe": 3, // PremiumEconomy
	"b":  4, // Business
	"pb": 5, // PremiumBusiness
	"f":  6, // First
}

// ClassCode maps a cabin shorthand to FlightCabinClass. Anything unknown is 1 (All).
func ClassCode(class string) int {
	if code, ok := cabinClasses[strings.ToLower(strings.TrimSpace(class))]; ok {
		return code
	}
	return 1
}

// BuildSearchRequest turns criteria into the supplier search payload.
func BuildSearchRequest(criteria SearchCriteria) (gds.SearchRequest, error) {
	if len(criteria.Segments) == 0 {
		return gds.SearchRequest{}, NewValidationError("Missing required parameters: from, to, date")
	}

	cabin := ClassCode(criteria.CabinClass)
	journey := criteria.JourneyType
	var segments []gds.SearchSegment

	switch journey {
	case JourneyMultiCity:
		for _, s := range criteria.Segments {
			date, ok := FormatDate(s.DepartDate)
			if !ok {
				continue
			}
			segments = append(segments, searchSegment(s.Origin, s.Destination, cabin, date))
		}
		if len(segments) == 0 {
			return gds.SearchRequest{}, NewValidationError("Invalid segments data for Multicity search")
		}

	case JourneyReturn:
		first := criteria.Segments[0]
		outbound, okOut := FormatDate(first.DepartDate)
		inbound, okIn := FormatDate(criteria.ReturnDate)
		if !okOut || !okIn {
			return gds.SearchRequest{}, NewValidationError("Invalid date format. Use DDMMYYYY. Return search requires returnDate.")
		}
		segments = []gds.SearchSegment{
			searchSegment(first.Origin, first.Destination, cabin, outbound),
			searchSegment(first.Destination, first.Origin, cabin, inbound),
		}

	default:
		journey = JourneyOneWay
		first := criteria.Segments[0]
		date, ok := FormatDate(first.DepartDate)
		if !ok {
			return gds.SearchRequest{}, NewValidationError("Invalid date format. Use DDMMYYYY")
		}
		segments = []gds.SearchSegment{searchSegment(first.Origin, first.Destination, cabin, date)}
	}

	adults := criteria.Passengers.Adult
	if adults <= 0 {
		adults = 1
	}

	return gds.SearchRequest{
		AdultCount:    adults,
		ChildCount:    max(criteria.Passengers.Child, 0),
		InfantCount:   max(criteria.Passengers.Infant, 0),
		DirectFlight:  false,
		OneStopFlight: false,
		JourneyType:   int(journey),
		Segments:      segments,
	}, nil
}

func searchSegment(origin, destination string, cabin int, date string) gds.SearchSegment {
	return gds.SearchSegment{
		Origin:                 origin,
		Destination:            destination,
		FlightCabinClass:       cabin,
		PreferredDepartureTime: date,
		PreferredArrivalTime:   date,
	}
}

// ParseSearchQuery reads criteria from query parameters. MultiCity repeats
// from, to and date; other journeys use the first value of each.
func ParseSearchQuery(q url.Values) (SearchCriteria, error) {
	journey := JourneyType(atoiOr(q.Get("journeyType"), 1))

	criteria := SearchCriteria{
		JourneyType: journey,
		ReturnDate:  q.Get("returnDate"),
		CabinClass:  q.Get("class"),
		Passengers: PassengerCounts{
			Adult:  atoiOr(q.Get("adults"), 1),
			Child:  atoiOr(q.Get("children"), 0),
			Infant: atoiOr(q.Get("infants"), 0),
		},
	}

	if q.Get("from") == "" || q.Get("to") == "" || q.Get("date") == "" {
		return criteria, NewValidationError("Missing required parameters: from, to, date")
	}

	if journey != JourneyMultiCity {
		criteria.Segments = []CriteriaSegment{{
			Origin:      q.Get("from"),
			Destination: q.Get("to"),
			DepartDate:  q.Get("date"),
		}}
		return criteria, nil
	}

	from, to, dates := q["from"], q["to"], q["date"]
	n := min(len(from), len(to), len(dates))
	for i := 0; i < n; i++ {
		criteria.Segments = append(criteria.Segments, CriteriaSegment{
			Origin:      from[i],
			Destination: to[i],
			DepartDate:  dates[i],
		})
	}
	return criteria, nil
}

// atoiOr treats unparsable and zero values as absent.
func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n == 0 {
		return fallback
	}
	return n
}
