package booking

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"flightbroker/internal/flight"
)

var ErrNotFound = errors.New("booking not found")

type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusFailed    Status = "Failed"
)

// Fare is the per-passenger price breakdown as sent by the supplier.
type Fare struct {
	BaseFare             float64 `json:"BaseFare"`
	Tax                  float64 `json:"Tax"`
	YQTax                float64 `json:"YQTax"`
	AdditionalTxnFeePub  float64 `json:"AdditionalTxnFeePub"`
	AdditionalTxnFeeOfrd float64 `json:"AdditionalTxnFeeOfrd"`
	OtherCharges         float64 `json:"OtherCharges"`
}

func (f Fare) Total() float64 {
	return f.BaseFare + f.Tax + f.YQTax + f.AdditionalTxnFeePub + f.AdditionalTxnFeeOfrd + f.OtherCharges
}

// Passenger holds the fields the broker reads. The caller's JSON is kept and
// re-emitted verbatim so supplier fields the broker does not model pass through.
type Passenger struct {
	Title          string `json:"Title"`
	FirstName      string `json:"FirstName"`
	LastName       string `json:"LastName"`
	PaxType        int    `json:"PaxType"`
	DateOfBirth    string `json:"DateOfBirth"`
	PassportNo     string `json:"PassportNo,omitempty"`
	PassportExpiry string `json:"PassportExpiry,omitempty"`
	IsLeadPax      bool   `json:"IsLeadPax"`
	Fare           *Fare  `json:"Fare,omitempty"`

	raw json.RawMessage
}

func (p *Passenger) UnmarshalJSON(data []byte) error {
	type plain Passenger
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = Passenger(decoded)
	p.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (p Passenger) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	type plain Passenger
	return json.Marshal(plain(p))
}

// Attempt is one caller booking request. (TraceID, ResultIndex) identifies the fare.
type Attempt struct {
	IsLCC                 bool        `json:"isLCC"`
	TraceID               string      `json:"TraceId"`
	ResultIndex           string      `json:"ResultIndex"`
	Passengers            []Passenger `json:"Passengers"`
	IsPriceChangeAccepted bool        `json:"IsPriceChangeAccepted"`
}

// Validate performs structural checks only.
func (a Attempt) Validate() error {
	switch {
	case a.TraceID == "":
		return flight.NewValidationError("TraceId is required")
	case a.ResultIndex == "":
		return flight.NewValidationError("ResultIndex is required")
	case len(a.Passengers) == 0:
		return flight.NewValidationError("At least one passenger is required")
	}
	for i, p := range a.Passengers {
		if p.DateOfBirth == "" {
			return flight.NewValidationError(fmt.Sprintf("DateOfBirth is required for passenger %d", i+1))
		}
	}
	return nil
}

// Amount sums every passenger's fare components.
func Amount(passengers []Passenger) float64 {
	total := 0.0
	for _, p := range passengers {
		if p.Fare != nil {
			total += p.Fare.Total()
		}
	}
	return total
}

type FlightSnapshot struct {
	IsLCC       bool   `json:"isLCC"`
	TraceID     string `json:"TraceId"`
	ResultIndex string `json:"ResultIndex"`
}

// Record is a persisted booking. IDs are serialized as strings since
// snowflake values exceed the JSON safe integer range.
type Record struct {
	ID               int64           `json:"id,string"`
	UserID           int64           `json:"userId,string"`
	BookingID        string          `json:"bookingId"`
	PNR              string          `json:"pnr"`
	Status           Status          `json:"status"`
	Amount           float64         `json:"amount"`
	FlightDetails    json.RawMessage `json:"flightDetails,omitempty"`
	PassengerDetails json.RawMessage `json:"passengerDetails,omitempty"`
	ResponseJSON     json.RawMessage `json:"responseJson,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}
