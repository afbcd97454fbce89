package booking

import "flightbroker/pkg/gds"

// State is a step of the booking flow:
//
//	Start -> Ticketing -> Ticketed|Failed                          (LCC)
//	Start -> Holding -> Held -> Ticketing -> Ticketed|Failed       (non-LCC)
//	Holding -> RetryingAsLCC -> Ticketed|Failed                    (hold code 2)
type State string

const (
	StateStart         State = "Start"
	StateHolding       State = "Holding"
	StateHeld          State = "Held"
	StateRetryingAsLCC State = "RetryingAsLCC"
	StateTicketing     State = "Ticketing"
	StateTicketed      State = "Ticketed"
	StateFailed        State = "Failed"
)

// Path records which ticketing route produced the result.
type Path string

const (
	PathLCC            Path = "LCC"
	PathHoldThenTicket Path = "HoldThenTicket"
	PathLCCFallback    Path = "LCCFallback"
)

// holdNotPermittedCode is the hold rejection meaning the fare must be ticketed as LCC.
const holdNotPermittedCode = 2

// Result is the terminal outcome of a booking attempt. Ticket is the supplier
// reply exactly as received, including replies with a nonzero error code.
type Result struct {
	Path      Path
	State     State
	PNR       string
	BookingID string
	Ticket    *gds.Response
}

func terminalState(ticket *gds.Response) State {
	if ticket == nil || ticket.Failed() {
		return StateFailed
	}
	return StateTicketed
}
