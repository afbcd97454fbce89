package flight

import "encoding/json"

type JourneyType int

const (
	JourneyOneWay    JourneyType = 1
	JourneyReturn    JourneyType = 2
	JourneyMultiCity JourneyType = 3
)

// CriteriaSegment is one requested leg with its date in DDMMYYYY form.
type CriteriaSegment struct {
	Origin      string
	Destination string
	DepartDate  string
}

type PassengerCounts struct {
	Adult  int
	Child  int
	Infant int
}

type SearchCriteria struct {
	JourneyType JourneyType
	Segments    []CriteriaSegment
	// ReturnDate is only read for JourneyReturn.
	ReturnDate string
	CabinClass string
	Passengers PassengerCounts
}

type Price struct {
	Currency string  `json:"currency"`
	Total    float64 `json:"total"`
	Base     float64 `json:"base"`
	Tax      float64 `json:"tax"`
}

type Segment struct {
	AirlineCode     string `json:"airlineCode"`
	FlightNumber    string `json:"flightNumber"`
	Origin          string `json:"origin"`
	OriginCity      string `json:"originCity"`
	Destination     string `json:"destination"`
	DestinationCity string `json:"destinationCity"`
	DepTime         string `json:"depTime"`
	ArrTime         string `json:"arrTime"`
	Duration        int    `json:"duration"`
	Baggage         string `json:"baggage"`
	LayoverTime     int    `json:"layoverTime"`
}

type Leg struct {
	AirlineName string    `json:"airlineName"`
	Duration    int       `json:"duration"`
	Stops       int       `json:"stops"`
	Segments    []Segment `json:"segments"`
}

// Legs omits a direction entirely when it has no segments.
type Legs struct {
	Outbound *Leg `json:"outbound,omitempty"`
	Inbound  *Leg `json:"inbound,omitempty"`
}

type SearchResult struct {
	TraceID      string          `json:"traceId"`
	ResultIndex  string          `json:"resultIndex"`
	Source       json.RawMessage `json:"source,omitempty"`
	IsRefundable bool            `json:"isRefundable"`
	IsLCC        bool            `json:"isLCC"`
	Price        Price           `json:"price"`
	Flights      Legs            `json:"flights"`
}

type ResultRequest struct {
	TraceID     string `json:"traceId"`
	ResultIndex string `json:"resultIndex"`
}
