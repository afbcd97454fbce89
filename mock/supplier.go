package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	codeSessionInvalid = 6
	codeHoldNotAllowed = 2
)

type supplier struct {
	mu        sync.Mutex
	token     string
	issuedAt  time.Time
	ttl       time.Duration
	nextPNR   int
	bookingID int
}

func newSupplier(ttl time.Duration) *supplier {
	return &supplier{ttl: ttl, nextPNR: 1000, bookingID: 1893000}
}

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func okError() envelope {
	return envelope{"ErrorCode": 0, "ErrorMessage": ""}
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// decode reads the request body and checks its TokenId. On failure the
// reply has already been written.
func (s *supplier) decode(w http.ResponseWriter, r *http.Request, nested bool) (map[string]any, bool) {
	var req map[string]any
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{"Message": "malformed request"})
		return nil, false
	}

	token, _ := req["TokenId"].(string)
	s.mu.Lock()
	valid := token != "" && token == s.token && time.Since(s.issuedAt) < s.ttl
	s.mu.Unlock()
	if valid {
		return req, true
	}

	invalid := envelope{"ErrorCode": codeSessionInvalid, "ErrorMessage": "Invalid Session. Your session is not valid."}
	if nested {
		writeJSON(w, http.StatusOK, envelope{"Response": envelope{"ResponseStatus": 4, "Error": invalid}})
	} else {
		writeJSON(w, http.StatusOK, envelope{"Error": invalid, "Response": nil})
	}
	return nil, false
}

func (s *supplier) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientId  string
		UserName  string
		Password  string
		EndUserIp string
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserName == "" || req.Password == "" {
		writeJSON(w, http.StatusOK, envelope{
			"Status":  2,
			"TokenId": nil,
			"Error":   envelope{"ErrorCode": 1, "ErrorMessage": "Invalid credentials"},
		})
		return
	}

	s.mu.Lock()
	s.token = randomHex(16)
	s.issuedAt = time.Now()
	token := s.token
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, envelope{
		"Status":  1,
		"TokenId": token,
		"Error":   okError(),
		"Member":  envelope{"FirstName": "Mock", "LastName": "Agency", "MemberId": 1},
	})
}

func (s *supplier) Search(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r, true)
	if !ok {
		return
	}

	segments, _ := req["Segments"].([]any)
	if len(segments) == 0 {
		writeJSON(w, http.StatusOK, envelope{"Response": envelope{
			"ResponseStatus": 3,
			"Error":          envelope{"ErrorCode": 3, "ErrorMessage": "Segments are required"},
		}})
		return
	}

	first, _ := segments[0].(map[string]any)
	origin, _ := first["Origin"].(string)
	destination, _ := first["Destination"].(string)
	departure, _ := first["PreferredDepartureTime"].(string)
	day, err := time.Parse("2006-01-02T15:04:05", departure)
	if err != nil {
		day = time.Now().Truncate(24 * time.Hour)
	}

	journeyType, _ := req["JourneyType"].(float64)
	results := []envelope{
		searchResult("OB1", false, directItinerary(origin, destination, day.Add(6*time.Hour))),
		searchResult("OB2-LCC", true, connectingItinerary(origin, destination, day.Add(9*time.Hour))),
	}
	if journeyType == 2 && len(segments) > 1 {
		back, _ := segments[1].(map[string]any)
		returnTime, _ := back["PreferredDepartureTime"].(string)
		returnDay, err := time.Parse("2006-01-02T15:04:05", returnTime)
		if err != nil {
			returnDay = day.Add(72 * time.Hour)
		}
		for _, res := range results {
			legs := res["Segments"].([][]envelope)
			inbound := directItinerary(destination, origin, returnDay.Add(18*time.Hour))
			inbound[0]["TripIndicator"] = 2
			legs[0] = append(legs[0], inbound...)
		}
	}

	writeJSON(w, http.StatusOK, envelope{"Response": envelope{
		"ResponseStatus": 1,
		"Error":          okError(),
		"TraceId":        randomHex(16),
		"Origin":         origin,
		"Destination":    destination,
		"Results":        [][]envelope{results},
	}})
}

func searchResult(index string, lcc bool, segments []envelope) envelope {
	return envelope{
		"ResultIndex":  index,
		"Source":       6,
		"IsLCC":        lcc,
		"IsRefundable": !lcc,
		"Fare": envelope{
			"Currency":      "INR",
			"BaseFare":      4200,
			"Tax":           812,
			"PublishedFare": 5012,
			"OfferedFare":   4890,
		},
		"Segments": [][]envelope{segments},
	}
}

func segment(code, name, number, from, to string, dep time.Time, minutes int) envelope {
	const layout = "2006-01-02T15:04:05"
	return envelope{
		"TripIndicator": 1,
		"Airline":       envelope{"AirlineCode": code, "AirlineName": name, "FlightNumber": number},
		"Origin":        envelope{"Airport": envelope{"AirportCode": from, "CityName": from}, "DepTime": dep.Format(layout)},
		"Destination":   envelope{"Airport": envelope{"AirportCode": to, "CityName": to}, "ArrTime": dep.Add(time.Duration(minutes) * time.Minute).Format(layout)},
		"Duration":      minutes,
		"Baggage":       "15 KG",
	}
}

func directItinerary(from, to string, dep time.Time) []envelope {
	return []envelope{segment("AI", "Air India", "665", from, to, dep, 135)}
}

func connectingItinerary(from, to string, dep time.Time) []envelope {
	return []envelope{
		segment("6E", "IndiGo", "2134", from, "DEL", dep, 95),
		segment("6E", "IndiGo", "5321", "DEL", to, dep.Add(160*time.Minute), 120),
	}
}

func (s *supplier) FareRule(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r, false)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"Error": okError(),
		"Response": envelope{
			"ResponseStatus": 1,
			"TraceId":        req["TraceId"],
			"FareRules": []envelope{{
				"Origin":         "FJR",
				"Destination":    "BOM",
				"Airline":        "AI",
				"FareBasisCode":  "TRT",
				"FareRuleDetail": "Cancellation permitted up to 4 hours before departure for a fee of INR 3000.",
			}},
		},
	})
}

func (s *supplier) FareQuote(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r, true)
	if !ok {
		return
	}
	index, _ := req["ResultIndex"].(string)
	writeJSON(w, http.StatusOK, envelope{"Response": envelope{
		"ResponseStatus": 1,
		"Error":          okError(),
		"TraceId":        req["TraceId"],
		"IsPriceChanged": false,
		"Results":        searchResult(index, strings.Contains(index, "LCC"), nil),
	}})
}

func (s *supplier) SSR(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r, true)
	if !ok {
		return
	}

	seat := func(no string, available int) envelope {
		return envelope{"Code": "12" + no, "SeatNo": no, "RowNo": "12", "SeatType": 1, "AvailablityType": available, "Deck": 1, "Compartment": 1, "Price": 350}
	}
	writeJSON(w, http.StatusOK, envelope{"Response": envelope{
		"ResponseStatus": 1,
		"Error":          okError(),
		"TraceId":        req["TraceId"],
		"Baggage":        [][]envelope{{{"Code": "XBPA", "Weight": 5, "Price": 1900, "Currency": "INR"}}},
		"MealDynamic":    [][]envelope{{{"Code": "VGML", "AirlineDescription": "Veg meal", "Price": 400, "Currency": "INR"}}},
		"SeatDynamic": []envelope{{"SegmentSeat": []envelope{{"RowSeats": []envelope{
			{"Seats": []envelope{seat("A", 1), seat("B", 1), seat("C", 3)}},
			{"Seats": []envelope{seat("A", 1), seat("C", 1)}},
			{"Seats": []envelope{}},
		}}}}},
	}})
}

func (s *supplier) Book(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r, true)
	if !ok {
		return
	}

	index, _ := req["ResultIndex"].(string)
	if strings.Contains(index, "LCC") {
		writeJSON(w, http.StatusOK, envelope{"Response": envelope{
			"ResponseStatus": 2,
			"Error":          envelope{"ErrorCode": codeHoldNotAllowed, "ErrorMessage": "Booking is not allowed for LCC fares. Please ticket directly."},
		}})
		return
	}

	passengers, _ := req["Passengers"].([]any)
	held := make([]envelope, 0, len(passengers))
	for i, p := range passengers {
		pax, _ := p.(map[string]any)
		held = append(held, envelope{
			"PaxId":     5000 + i,
			"FirstName": pax["FirstName"],
			"LastName":  pax["LastName"],
		})
	}

	pnr, bookingID := s.issue()
	writeJSON(w, http.StatusOK, envelope{"Response": envelope{
		"ResponseStatus": 1,
		"Error":          okError(),
		"TraceId":        req["TraceId"],
		"Response": envelope{
			"PNR":             pnr,
			"BookingId":       bookingID,
			"Status":          1,
			"FlightItinerary": envelope{"Passenger": held},
		},
	}})
}

func (s *supplier) Ticket(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r, true)
	if !ok {
		return
	}

	pnr, _ := req["PNR"].(string)
	bookingID := req["BookingId"]
	if pnr == "" {
		var id int
		pnr, id = s.issue()
		bookingID = id
	}

	writeJSON(w, http.StatusOK, envelope{"Response": envelope{
		"ResponseStatus": 1,
		"Error":          okError(),
		"TraceId":        req["TraceId"],
		"Response": envelope{
			"PNR":             pnr,
			"BookingId":       bookingID,
			"TicketStatus":    1,
			"IsPriceChanged":  false,
			"FlightItinerary": envelope{"IsLCC": req["AgentReferenceNo"] != nil},
		},
	}})
}

func (s *supplier) issue() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPNR++
	s.bookingID++
	return fmt.Sprintf("MK%04d", s.nextPNR), s.bookingID
}
