package booking

import "encoding/json"

// HeldPassenger is a passenger as returned by a successful hold.
type HeldPassenger struct {
	PaxId     json.RawMessage `json:"PaxId"`
	FirstName string          `json:"FirstName"`
	LastName  string          `json:"LastName"`
}

// PassportInfo is the per-passenger entry the ticket call needs after a hold.
type PassportInfo struct {
	PaxId          json.RawMessage `json:"PaxId"`
	PassportNo     string          `json:"PassportNo"`
	PassportExpiry string          `json:"PassportExpiry"`
	DateOfBirth    string          `json:"DateOfBirth"`
}

// PairPassengers matches submitted and held passengers by position. The
// supplier is assumed to keep submission order; names are not compared.
// A submitted passenger with no held counterpart gets a null PaxId.
func PairPassengers(submitted []Passenger, held []HeldPassenger) []PassportInfo {
	paired := make([]PassportInfo, len(submitted))
	for i, p := range submitted {
		info := PassportInfo{
			PassportNo:     p.PassportNo,
			PassportExpiry: p.PassportExpiry,
			DateOfBirth:    p.DateOfBirth,
		}
		if i < len(held) {
			info.PaxId = held[i].PaxId
		}
		paired[i] = info
	}
	return paired
}
