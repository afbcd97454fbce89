package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"flightbroker/pkg/gds"
	"flightbroker/pkg/logger"
)

// Supplier is the part of the GDS client the booking flow needs.
type Supplier interface {
	Book(ctx context.Context, req any) (*gds.Response, error)
	Ticket(ctx context.Context, req any) (*gds.Response, error)
}

// Store persists booking records.
type Store interface {
	Create(ctx context.Context, rec Record) (*Record, error)
	FindByUser(ctx context.Context, userID int64) ([]Record, error)
	FindByID(ctx context.Context, id int64) (*Record, error)
}

type lccTicketRequest struct {
	PreferredCurrency     *string     `json:"PreferredCurrency"`
	AgentReferenceNo      string      `json:"AgentReferenceNo"`
	Passengers            []Passenger `json:"Passengers"`
	TraceId               string      `json:"TraceId"`
	ResultIndex           string      `json:"ResultIndex"`
	IsPriceChangeAccepted bool        `json:"IsPriceChangeAccepted"`
}

type holdRequest struct {
	PreferredCurrency *string     `json:"PreferredCurrency"`
	Passengers        []Passenger `json:"Passengers"`
	TraceId           string      `json:"TraceId"`
	ResultIndex       string      `json:"ResultIndex"`
}

type heldTicketRequest struct {
	TraceId               string          `json:"TraceId"`
	PNR                   string          `json:"PNR"`
	BookingId             json.RawMessage `json:"BookingId"`
	Passport              []PassportInfo  `json:"Passport"`
	IsPriceChangeAccepted bool            `json:"IsPriceChangeAccepted"`
}

// bookingBody is the Response.Response object of hold and ticket replies.
type bookingBody struct {
	PNR             *string         `json:"PNR"`
	BookingId       json.RawMessage `json:"BookingId"`
	FlightItinerary *struct {
		Passenger []HeldPassenger `json:"Passenger"`
	} `json:"FlightItinerary"`
}

type Orchestrator struct {
	supplier Supplier
	store    Store
	logger   logger.Client
	now      func() time.Time
	pending  sync.WaitGroup
}

func NewOrchestrator(supplier Supplier, store Store, log logger.Client) *Orchestrator {
	return &Orchestrator{
		supplier: supplier,
		store:    store,
		logger:   log,
		now:      time.Now,
	}
}

// Book runs the booking flow for attempt. userID 0 means no identified user,
// in which case nothing is persisted.
//
// Business failures of the final ticket call are returned in Result, not as
// an error. A rejected hold, other than the LCC fallback code, is returned as
// a *gds.BusinessError carrying the hold reply, and Ticket is never called.
// Book is not idempotent; resubmitting may hold or ticket twice.
func (o *Orchestrator) Book(ctx context.Context, attempt Attempt, userID int64) (*Result, error) {
	if err := attempt.Validate(); err != nil {
		return nil, err
	}

	o.logger.Debug("booking started",
		logger.Field{Key: "trace_id", Value: attempt.TraceID},
		logger.Field{Key: "is_lcc", Value: attempt.IsLCC},
		logger.Field{Key: "state", Value: string(StateStart)},
	)
	if attempt.IsLCC {
		return o.ticketLCC(ctx, attempt, userID, PathLCC)
	}

	o.logger.Info("holding non-LCC fare",
		logger.Field{Key: "trace_id", Value: attempt.TraceID},
		logger.Field{Key: "state", Value: string(StateHolding)},
	)
	hold, err := o.supplier.Book(ctx, holdRequest{
		Passengers:  attempt.Passengers,
		TraceId:     attempt.TraceID,
		ResultIndex: attempt.ResultIndex,
	})
	if err != nil {
		return nil, err
	}

	if hold.Failed() {
		if hold.Error.Code == holdNotPermittedCode {
			o.logger.Info("hold not permitted for fare, ticketing as LCC",
				logger.Field{Key: "trace_id", Value: attempt.TraceID},
				logger.Field{Key: "state", Value: string(StateRetryingAsLCC)},
			)
			return o.ticketLCC(ctx, attempt, userID, PathLCCFallback)
		}
		o.logger.Error("hold rejected",
			logger.Field{Key: "trace_id", Value: attempt.TraceID},
			logger.Field{Key: "code", Value: hold.Error.Code},
			logger.Field{Key: "message", Value: hold.Error.Message},
		)
		return nil, hold.Err()
	}

	held, err := parseBookingBody(hold)
	if err != nil {
		o.logger.Error("hold reply missing booking details", logger.Field{Key: "err", Value: err})
		return nil, err
	}
	if held.PNR == nil || isNullJSON(held.BookingId) {
		return nil, fmt.Errorf("%w: hold reply has no PNR or BookingId", gds.ErrInvalidSupplierResponse)
	}

	var heldPassengers []HeldPassenger
	if held.FlightItinerary != nil {
		heldPassengers = held.FlightItinerary.Passenger
	}
	if len(heldPassengers) == 0 {
		o.logger.Warn("hold reply lists no passengers, ticketing without PaxIds",
			logger.Field{Key: "trace_id", Value: attempt.TraceID},
			logger.Field{Key: "pnr", Value: *held.PNR},
		)
	}

	o.logger.Info("hold succeeded",
		logger.Field{Key: "pnr", Value: *held.PNR},
		logger.Field{Key: "booking_id", Value: rawText(held.BookingId)},
		logger.Field{Key: "state", Value: string(StateHeld)},
	)

	o.logTicketing(attempt, PathHoldThenTicket)
	ticket, err := o.supplier.Ticket(ctx, heldTicketRequest{
		TraceId:               attempt.TraceID,
		PNR:                   *held.PNR,
		BookingId:             held.BookingId,
		Passport:              PairPassengers(attempt.Passengers, heldPassengers),
		IsPriceChangeAccepted: attempt.IsPriceChangeAccepted,
	})
	if err != nil {
		return nil, err
	}

	return o.finish(ctx, attempt, userID, PathHoldThenTicket, ticket), nil
}

func (o *Orchestrator) ticketLCC(ctx context.Context, attempt Attempt, userID int64, path Path) (*Result, error) {
	o.logTicketing(attempt, path)
	ticket, err := o.supplier.Ticket(ctx, lccTicketRequest{
		AgentReferenceNo:      "PAYMM_" + strconv.FormatInt(o.now().UnixMilli(), 10),
		Passengers:            attempt.Passengers,
		TraceId:               attempt.TraceID,
		ResultIndex:           attempt.ResultIndex,
		IsPriceChangeAccepted: attempt.IsPriceChangeAccepted,
	})
	if err != nil {
		return nil, err
	}
	return o.finish(ctx, attempt, userID, path, ticket), nil
}

func (o *Orchestrator) logTicketing(attempt Attempt, path Path) {
	o.logger.Info("ticketing",
		logger.Field{Key: "trace_id", Value: attempt.TraceID},
		logger.Field{Key: "path", Value: string(path)},
		logger.Field{Key: "state", Value: string(StateTicketing)},
	)
}

func (o *Orchestrator) finish(ctx context.Context, attempt Attempt, userID int64, path Path, ticket *gds.Response) *Result {
	result := &Result{
		Path:   path,
		State:  terminalState(ticket),
		Ticket: ticket,
	}

	if body, err := parseBookingBody(ticket); err == nil {
		if body.PNR != nil {
			result.PNR = *body.PNR
		}
		result.BookingID = rawText(body.BookingId)
	}

	o.logger.Info("booking finished",
		logger.Field{Key: "trace_id", Value: attempt.TraceID},
		logger.Field{Key: "path", Value: string(path)},
		logger.Field{Key: "state", Value: string(result.State)},
		logger.Field{Key: "pnr", Value: result.PNR},
	)

	if result.State == StateTicketed && userID != 0 {
		o.persist(ctx, attempt, userID, result)
	}
	return result
}

// persist stores the confirmed booking in the background. Failures are
// logged and never reach the caller.
func (o *Orchestrator) persist(ctx context.Context, attempt Attempt, userID int64, result *Result) {
	rec, err := confirmedRecord(attempt, userID, result)
	if err != nil {
		o.logger.Error("failed to build booking record", logger.Field{Key: "err", Value: err})
		return
	}

	ctx = context.WithoutCancel(ctx)
	o.pending.Add(1)
	go func() {
		defer o.pending.Done()
		saved, err := o.store.Create(ctx, rec)
		if err != nil {
			o.logger.Error("failed to persist booking",
				logger.Field{Key: "err", Value: err},
				logger.Field{Key: "user_id", Value: userID},
				logger.Field{Key: "pnr", Value: result.PNR},
			)
			return
		}
		o.logger.Info("booking persisted", logger.Field{Key: "id", Value: saved.ID})
	}()
}

// Wait blocks until background persistence has finished.
func (o *Orchestrator) Wait() {
	o.pending.Wait()
}

func confirmedRecord(attempt Attempt, userID int64, result *Result) (Record, error) {
	flightDetails, err := json.Marshal(FlightSnapshot{
		IsLCC:       attempt.IsLCC,
		TraceID:     attempt.TraceID,
		ResultIndex: attempt.ResultIndex,
	})
	if err != nil {
		return Record{}, err
	}
	passengers, err := json.Marshal(attempt.Passengers)
	if err != nil {
		return Record{}, err
	}

	return Record{
		UserID:           userID,
		BookingID:        result.BookingID,
		PNR:              result.PNR,
		Status:           StatusConfirmed,
		Amount:           Amount(attempt.Passengers),
		FlightDetails:    flightDetails,
		PassengerDetails: passengers,
		ResponseJSON:     result.Ticket.Body,
	}, nil
}

func parseBookingBody(resp *gds.Response) (*bookingBody, error) {
	var outer struct {
		Response *struct {
			Response *bookingBody `json:"Response"`
		} `json:"Response"`
	}
	if err := resp.Decode(&outer); err != nil {
		return nil, err
	}
	if outer.Response == nil || outer.Response.Response == nil {
		return nil, fmt.Errorf("%w: %s reply has no Response.Response", gds.ErrInvalidSupplierResponse, resp.Endpoint)
	}
	return outer.Response.Response, nil
}

func isNullJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// rawText renders a JSON scalar without quotes.
func rawText(raw json.RawMessage) string {
	if isNullJSON(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
