package flight

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"flightbroker/pkg/gds"
)

const placeholderSeatCode = "NoSeat"

// Seat keeps every supplier field so unknown keys survive normalization.
type Seat map[string]json.RawMessage

func (s Seat) Code(key string) int {
	raw, ok := s[key]
	if !ok {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n)
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(str)); err == nil {
			return v
		}
	}
	return 0
}

func (s Seat) Text(key string) string {
	raw, ok := s[key]
	if !ok {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return strings.TrimSpace(string(raw))
}

func (s Seat) SeatNo() string {
	return s.Text("SeatNo")
}

func (s Seat) IsPlaceholder() bool {
	return s.Text("Code") == placeholderSeatCode
}

func (s Seat) set(key string, value any) {
	raw, _ := json.Marshal(value)
	s[key] = raw
}

// enhance returns a copy of s with readable labels for its coded fields.
func enhance(s Seat) Seat {
	out := make(Seat, len(s)+5)
	for k, v := range s {
		out[k] = v
	}
	out.set("SeatTypeEnum", SeatTypeLabel(s.Code("SeatType")))
	out.set("AvailabilityTypeEnum", AvailabilityLabel(s.Code("AvailablityType")))
	out.set("DeckEnum", DeckLabel(s.Code("Deck")))
	out.set("CompartmentEnum", CompartmentLabel(s.Code("Compartment")))
	out.set("SeatWayTypeEnum", SeatWayLabel(s.Code("SeatWayType")))
	return out
}

func placeholder(ref Seat) Seat {
	p := Seat{}
	p.set("Code", placeholderSeatCode)
	p.set("SeatNo", ref.SeatNo())
	p.set("SeatType", ref.Code("SeatType"))
	p.set("SeatTypeEnum", SeatTypeLabel(ref.Code("SeatType")))
	p.set("AvailablityType", 0)
	p.set("AvailabilityTypeEnum", AvailabilityLabel(0))
	p.set("Price", 0)
	return p
}

// NormalizeSeatRows pads short rows to the widest row's length. The first
// widest row is the reference; a short row is walked against it, emitting
// the row's own seat on a SeatNo match and a placeholder otherwise. Rows
// already at full width are only enhanced.
//
// A row whose seats are not a subsequence of the reference order loses the
// seats that no longer match once the walk passes them.
func NormalizeSeatRows(rows [][]Seat) [][]Seat {
	maxSeats := 0
	for _, row := range rows {
		maxSeats = max(maxSeats, len(row))
	}
	if maxSeats == 0 {
		return rows
	}

	var reference []Seat
	for _, row := range rows {
		if len(row) == maxSeats {
			reference = row
			break
		}
	}

	out := make([][]Seat, len(rows))
	for i, row := range rows {
		if len(row) == maxSeats {
			enhanced := make([]Seat, len(row))
			for j, s := range row {
				enhanced[j] = enhance(s)
			}
			out[i] = enhanced
			continue
		}
		out[i] = reconcileRow(row, reference)
	}
	return out
}

func reconcileRow(row, reference []Seat) []Seat {
	seats := make([]Seat, 0, len(reference))
	next := 0
	for _, ref := range reference {
		if next < len(row) && row[next].SeatNo() == ref.SeatNo() {
			seats = append(seats, enhance(row[next]))
			next++
			continue
		}
		seats = append(seats, placeholder(ref))
	}
	return seats
}

type jsonObject map[string]json.RawMessage

// NormalizeSSR rewrites every SeatDynamic[].SegmentSeat[].RowSeats grid in an
// SSR payload. Other keys, such as baggage and meals, are left untouched.
func NormalizeSSR(payload []byte) ([]byte, error) {
	var doc jsonObject
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: ssr: %v", gds.ErrInvalidSupplierResponse, err)
	}

	rawDynamic, ok := doc["SeatDynamic"]
	if !ok || string(rawDynamic) == "null" {
		return payload, nil
	}

	var dynamic []jsonObject
	if err := json.Unmarshal(rawDynamic, &dynamic); err != nil {
		return nil, fmt.Errorf("%w: SeatDynamic: %v", gds.ErrInvalidSupplierResponse, err)
	}

	for _, segment := range dynamic {
		rawSegmentSeats, ok := segment["SegmentSeat"]
		if !ok {
			continue
		}
		var segmentSeats []jsonObject
		if err := json.Unmarshal(rawSegmentSeats, &segmentSeats); err != nil {
			return nil, fmt.Errorf("%w: SegmentSeat: %v", gds.ErrInvalidSupplierResponse, err)
		}

		for _, segmentSeat := range segmentSeats {
			if err := normalizeRowSeats(segmentSeat); err != nil {
				return nil, err
			}
		}

		encoded, err := json.Marshal(segmentSeats)
		if err != nil {
			return nil, err
		}
		segment["SegmentSeat"] = encoded
	}

	encoded, err := json.Marshal(dynamic)
	if err != nil {
		return nil, err
	}
	doc["SeatDynamic"] = encoded
	return json.Marshal(doc)
}

func normalizeRowSeats(segmentSeat jsonObject) error {
	rawRows, ok := segmentSeat["RowSeats"]
	if !ok {
		return nil
	}

	var rows []jsonObject
	if err := json.Unmarshal(rawRows, &rows); err != nil {
		return fmt.Errorf("%w: RowSeats: %v", gds.ErrInvalidSupplierResponse, err)
	}
	if len(rows) == 0 {
		return nil
	}

	grid := make([][]Seat, len(rows))
	for i, row := range rows {
		if raw, ok := row["Seats"]; ok {
			if err := json.Unmarshal(raw, &grid[i]); err != nil {
				return fmt.Errorf("%w: Seats: %v", gds.ErrInvalidSupplierResponse, err)
			}
		}
	}

	for i, seats := range NormalizeSeatRows(grid) {
		if seats == nil {
			continue
		}
		if rows[i] == nil {
			rows[i] = jsonObject{}
		}
		encoded, err := json.Marshal(seats)
		if err != nil {
			return err
		}
		rows[i]["Seats"] = encoded
	}

	encoded, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	segmentSeat["RowSeats"] = encoded
	return nil
}
