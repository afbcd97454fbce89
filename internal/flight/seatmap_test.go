package flight

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seat(no string, seatType, price int) Seat {
	s := Seat{}
	s.set("SeatNo", no)
	s.set("SeatType", seatType)
	s.set("Price", price)
	s.set("AvailablityType", 1)
	s.set("Deck", 1)
	s.set("Code", "1"+no)
	return s
}

func seatNos(row []Seat) []string {
	nos := make([]string, len(row))
	for i, s := range row {
		nos[i] = s.SeatNo()
	}
	return nos
}

func TestNormalizeSeatRows(t *testing.T) {
	full := []Seat{seat("A", 1, 500), seat("B", 3, 300), seat("C", 2, 400), seat("D", 2, 400), seat("E", 3, 300), seat("F", 1, 500)}

	t.Run("pads short rows against the reference row", func(t *testing.T) {
		short := []Seat{seat("A", 1, 500), seat("C", 2, 400), seat("D", 2, 400), seat("F", 1, 500)}

		out := NormalizeSeatRows([][]Seat{full, short})

		require.Len(t, out, 2)
		for _, row := range out {
			assert.Len(t, row, len(full))
		}
		assert.Equal(t, []string{"A", "B", "C", "D", "E", "F"}, seatNos(out[1]))

		placeholderB := out[1][1]
		assert.True(t, placeholderB.IsPlaceholder())
		assert.Equal(t, 0, placeholderB.Code("Price"))
		assert.Equal(t, 0, placeholderB.Code("AvailablityType"))
		assert.Equal(t, 3, placeholderB.Code("SeatType"))
		assert.Equal(t, "Middle", placeholderB.Text("SeatTypeEnum"))
		assert.Equal(t, "NotSet", placeholderB.Text("AvailabilityTypeEnum"))

		realC := out[1][2]
		assert.False(t, realC.IsPlaceholder())
		assert.Equal(t, 400, realC.Code("Price"))
		assert.Equal(t, "Aisle", realC.Text("SeatTypeEnum"))
		assert.Equal(t, "Open", realC.Text("AvailabilityTypeEnum"))
		assert.Equal(t, "Deck1", realC.Text("DeckEnum"))
		assert.Equal(t, "NotSet", realC.Text("CompartmentEnum"))
	})

	t.Run("no real seat is dropped or duplicated", func(t *testing.T) {
		short := []Seat{seat("B", 3, 300), seat("E", 3, 300)}

		out := NormalizeSeatRows([][]Seat{short, full})

		realSeats := 0
		for _, s := range out[0] {
			if !s.IsPlaceholder() {
				realSeats++
			}
		}
		assert.Equal(t, 2, realSeats)
		assert.Len(t, out[0], 6)
	})

	t.Run("full rows are only enhanced", func(t *testing.T) {
		out := NormalizeSeatRows([][]Seat{full})

		assert.Equal(t, seatNos(full), seatNos(out[0]))
		assert.Equal(t, "Window", out[0][0].Text("SeatTypeEnum"))
		_, hadEnum := full[0]["SeatTypeEnum"]
		assert.False(t, hadEnum, "input must not be mutated")
	})

	t.Run("empty rows are padded", func(t *testing.T) {
		out := NormalizeSeatRows([][]Seat{full, nil})

		require.Len(t, out[1], 6)
		for _, s := range out[1] {
			assert.True(t, s.IsPlaceholder())
		}
	})

	t.Run("no seats anywhere", func(t *testing.T) {
		out := NormalizeSeatRows([][]Seat{nil, {}})

		assert.Len(t, out, 2)
	})
}

func TestEnumLabels(t *testing.T) {
	assert.Equal(t, "AisleBulkheadQuiet", SeatTypeLabel(33))
	assert.Equal(t, "NotSet", SeatTypeLabel(34))
	assert.Equal(t, "NotSet", SeatTypeLabel(-1))
	assert.Equal(t, "FleetBlocked", AvailabilityLabel(4))
	assert.Equal(t, "Deck3", DeckLabel(3))
	assert.Equal(t, "Compartment7", CompartmentLabel(7))
	assert.Equal(t, "FullJourney", SeatWayLabel(2))
	assert.Equal(t, "NotSet", SeatWayLabel(3))
}

func TestNormalizeSSR(t *testing.T) {
	payload := []byte(`{
		"TraceId": "t1",
		"Baggage": [[{"Code":"XBPA","Weight":5}]],
		"SeatDynamic": [{
			"SegmentSeat": [{
				"RowSeats": [
					{"Seats": [{"SeatNo":"A","SeatType":1,"Price":0,"Code":"NoSeat"},{"SeatNo":"B","SeatType":3,"Price":100},{"SeatNo":"C","SeatType":2,"Price":100}]},
					{"Seats": [{"SeatNo":"A","SeatType":1,"Price":200},{"SeatNo":"C","SeatType":2,"Price":150}]}
				]
			}]
		}]
	}`)

	out, err := NormalizeSSR(payload)
	require.NoError(t, err)

	var decoded struct {
		TraceId     string          `json:"TraceId"`
		Baggage     json.RawMessage `json:"Baggage"`
		SeatDynamic []struct {
			SegmentSeat []struct {
				RowSeats []struct {
					Seats []Seat `json:"Seats"`
				} `json:"RowSeats"`
			} `json:"SegmentSeat"`
		} `json:"SeatDynamic"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))

	assert.Equal(t, "t1", decoded.TraceId)
	assert.JSONEq(t, `[[{"Code":"XBPA","Weight":5}]]`, string(decoded.Baggage))
	rows := decoded.SeatDynamic[0].SegmentSeat[0].RowSeats
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"A", "B", "C"}, seatNos(rows[1].Seats))
	assert.True(t, rows[1].Seats[1].IsPlaceholder())
	assert.Equal(t, 150, rows[1].Seats[2].Code("Price"))

	t.Run("payload without seat maps is returned unchanged", func(t *testing.T) {
		in := []byte(`{"MealDynamic":[]}`)

		out, err := NormalizeSSR(in)

		require.NoError(t, err)
		assert.Equal(t, in, out)
	})
}
