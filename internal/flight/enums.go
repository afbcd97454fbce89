package flight

const labelNotSet = "NotSet"

var seatTypeLabels = [...]string{
	"NotSet", "Window", "Aisle", "Middle",
	"WindowRecline", "WindowWing", "WindowExitRow",
	"WindowReclineWing", "WindowReclineExitRow", "WindowWingExitRow",
	"AisleRecline", "AisleWing", "AisleExitRow",
	"AisleReclineWing", "AisleReclineExitRow", "AisleWingExitRow",
	"MiddleRecline", "MiddleWing", "MiddleExitRow",
	"MiddleReclineWing", "MiddleReclineExitRow", "MiddleWingExitRow",
	"WindowReclineWingExitRow", "AisleReclineWingExitRow", "MiddleReclineWingExitRow",
	"WindowBulkhead", "WindowQuiet", "WindowBulkheadQuiet",
	"MiddleBulkhead", "MiddleQuiet", "MiddleBulkheadQuiet",
	"AisleBulkhead", "AisleQuiet", "AisleBulkheadQuiet",
}

var availabilityLabels = [...]string{"NotSet", "Open", "CheckedIn", "Reserved", "FleetBlocked"}

var deckLabels = [...]string{"NotSet", "Deck1", "Deck2", "Deck3"}

var compartmentLabels = [...]string{
	"NotSet", "Compartment1", "Compartment2", "Compartment3",
	"Compartment4", "Compartment5", "Compartment6", "Compartment7",
}

var seatWayLabels = [...]string{"NotSet", "Segment", "FullJourney"}

func label(table []string, code int) string {
	if code < 0 || code >= len(table) {
		return labelNotSet
	}
	return table[code]
}

func SeatTypeLabel(code int) string     { return label(seatTypeLabels[:], code) }
func AvailabilityLabel(code int) string { return label(availabilityLabels[:], code) }
func DeckLabel(code int) string         { return label(deckLabels[:], code) }
func CompartmentLabel(code int) string  { return label(compartmentLabels[:], code) }
func SeatWayLabel(code int) string      { return label(seatWayLabels[:], code) }
