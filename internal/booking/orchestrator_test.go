package booking

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"flightbroker/pkg/gds"
	"flightbroker/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSupplier struct {
	mock.Mock
}

func (m *mockSupplier) Book(ctx context.Context, req any) (*gds.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*gds.Response)
	return resp, args.Error(1)
}

func (m *mockSupplier) Ticket(ctx context.Context, req any) (*gds.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*gds.Response)
	return resp, args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, rec Record) (*Record, error) {
	args := m.Called(ctx, rec)
	saved, _ := args.Get(0).(*Record)
	return saved, args.Error(1)
}

func (m *mockStore) FindByUser(ctx context.Context, userID int64) ([]Record, error) {
	args := m.Called(ctx, userID)
	records, _ := args.Get(0).([]Record)
	return records, args.Error(1)
}

func (m *mockStore) FindByID(ctx context.Context, id int64) (*Record, error) {
	args := m.Called(ctx, id)
	rec, _ := args.Get(0).(*Record)
	return rec, args.Error(1)
}

const (
	heldBody = `{"Response":{"Error":{"ErrorCode":0},"Response":{
		"PNR":"HX7Q2L","BookingId":1893221,
		"FlightItinerary":{"Passenger":[{"PaxId":101,"FirstName":"Asha"},{"PaxId":102,"FirstName":"Ravi"}]}}}}`
	ticketedBody = `{"Response":{"Error":{"ErrorCode":0},"Response":{"PNR":"HX7Q2L","BookingId":1893221}}}`
)

func newTestOrchestrator(supplier Supplier, store Store) *Orchestrator {
	o := NewOrchestrator(supplier, store, logger.Nop{})
	o.now = func() time.Time { return time.UnixMilli(1733011200000) }
	return o
}

func testAttempt(isLCC bool) Attempt {
	var passengers []Passenger
	_ = json.Unmarshal([]byte(`[
		{"Title":"Ms","FirstName":"Asha","LastName":"Rao","PaxType":1,"DateOfBirth":"1990-04-01T00:00:00",
		 "PassportNo":"P123","Gender":2,"Fare":{"BaseFare":4000,"Tax":600,"OtherCharges":50}},
		{"Title":"Mr","FirstName":"Ravi","LastName":"Rao","PaxType":1,"DateOfBirth":"1988-09-12T00:00:00",
		 "Fare":{"BaseFare":4000,"Tax":600}}
	]`), &passengers)
	return Attempt{
		IsLCC:       isLCC,
		TraceID:     "trace-1",
		ResultIndex: "OB2",
		Passengers:  passengers,
	}
}

func success(ep gds.Endpoint, body string) *gds.Response {
	return &gds.Response{Endpoint: ep, StatusCode: 200, Body: []byte(body)}
}

func rejected(ep gds.Endpoint, code int, msg string) *gds.Response {
	body, _ := json.Marshal(map[string]any{"Response": map[string]any{"Error": map[string]any{"ErrorCode": code, "ErrorMessage": msg}}})
	return &gds.Response{Endpoint: ep, StatusCode: 200, Body: body, Error: gds.SupplierError{Code: code, Message: msg}}
}

func TestOrchestrator_LCC(t *testing.T) {
	supplier := new(mockSupplier)
	supplier.On("Ticket", mock.Anything, mock.MatchedBy(func(req lccTicketRequest) bool {
		return req.AgentReferenceNo == "PAYMM_1733011200000" && req.TraceId == "trace-1" && len(req.Passengers) == 2
	})).Return(success(gds.EndpointTicket, ticketedBody), nil).Once()

	result, err := newTestOrchestrator(supplier, new(mockStore)).Book(context.Background(), testAttempt(true), 0)

	require.NoError(t, err)
	assert.Equal(t, PathLCC, result.Path)
	assert.Equal(t, StateTicketed, result.State)
	assert.Equal(t, "HX7Q2L", result.PNR)
	assert.Equal(t, "1893221", result.BookingID)
	supplier.AssertNotCalled(t, "Book", mock.Anything, mock.Anything)
	supplier.AssertExpectations(t)
}

func TestOrchestrator_HoldThenTicket(t *testing.T) {
	supplier := new(mockSupplier)
	supplier.On("Book", mock.Anything, mock.AnythingOfType("booking.holdRequest")).
		Return(success(gds.EndpointBook, heldBody), nil).Once()
	supplier.On("Ticket", mock.Anything, mock.MatchedBy(func(req heldTicketRequest) bool {
		return req.PNR == "HX7Q2L" &&
			string(req.BookingId) == "1893221" &&
			len(req.Passport) == 2 &&
			string(req.Passport[0].PaxId) == "101" &&
			req.Passport[0].PassportNo == "P123" &&
			string(req.Passport[1].PaxId) == "102"
	})).Return(success(gds.EndpointTicket, ticketedBody), nil).Once()

	result, err := newTestOrchestrator(supplier, new(mockStore)).Book(context.Background(), testAttempt(false), 0)

	require.NoError(t, err)
	assert.Equal(t, PathHoldThenTicket, result.Path)
	assert.Equal(t, StateTicketed, result.State)
	supplier.AssertExpectations(t)
}

func TestOrchestrator_HoldNotPermittedFallsBackToLCC(t *testing.T) {
	supplier := new(mockSupplier)
	supplier.On("Book", mock.Anything, mock.Anything).
		Return(rejected(gds.EndpointBook, 2, "Booking is not allowed for this fare"), nil).Once()
	supplier.On("Ticket", mock.Anything, mock.AnythingOfType("booking.lccTicketRequest")).
		Return(success(gds.EndpointTicket, ticketedBody), nil).Once()

	result, err := newTestOrchestrator(supplier, new(mockStore)).Book(context.Background(), testAttempt(false), 0)

	require.NoError(t, err)
	assert.Equal(t, PathLCCFallback, result.Path)
	assert.Equal(t, StateTicketed, result.State)
	supplier.AssertExpectations(t)
}

func TestOrchestrator_HoldRejected(t *testing.T) {
	supplier := new(mockSupplier)
	hold := rejected(gds.EndpointBook, 5, "Fare is no longer available")
	supplier.On("Book", mock.Anything, mock.Anything).Return(hold, nil).Once()

	result, err := newTestOrchestrator(supplier, new(mockStore)).Book(context.Background(), testAttempt(false), 0)

	assert.Nil(t, result)
	var business *gds.BusinessError
	require.ErrorAs(t, err, &business)
	assert.Equal(t, 5, business.Code)
	assert.JSONEq(t, string(hold.Body), string(business.Payload))
	supplier.AssertNotCalled(t, "Ticket", mock.Anything, mock.Anything)
}

func TestOrchestrator_HoldMissingPNR(t *testing.T) {
	supplier := new(mockSupplier)
	supplier.On("Book", mock.Anything, mock.Anything).
		Return(success(gds.EndpointBook, `{"Response":{"Error":{"ErrorCode":0},"Response":{"BookingId":7}}}`), nil).Once()

	_, err := newTestOrchestrator(supplier, new(mockStore)).Book(context.Background(), testAttempt(false), 0)

	assert.ErrorIs(t, err, gds.ErrInvalidSupplierResponse)
	supplier.AssertNotCalled(t, "Ticket", mock.Anything, mock.Anything)
}

func TestOrchestrator_EmptyHeldPassengersStillTickets(t *testing.T) {
	supplier := new(mockSupplier)
	supplier.On("Book", mock.Anything, mock.Anything).
		Return(success(gds.EndpointBook, `{"Response":{"Response":{"PNR":"AB12CD","BookingId":9,"FlightItinerary":{"Passenger":[]}}}}`), nil).Once()
	supplier.On("Ticket", mock.Anything, mock.MatchedBy(func(req heldTicketRequest) bool {
		return len(req.Passport) == 2 && req.Passport[0].PaxId == nil
	})).Return(rejected(gds.EndpointTicket, 3, "PaxId is mandatory"), nil).Once()

	result, err := newTestOrchestrator(supplier, new(mockStore)).Book(context.Background(), testAttempt(false), 0)

	require.NoError(t, err)
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, 3, result.Ticket.Error.Code)
}

func TestOrchestrator_TransportErrorPropagates(t *testing.T) {
	supplier := new(mockSupplier)
	unreachable := &gds.UnreachableError{Endpoint: gds.EndpointTicket, StatusCode: 503}
	supplier.On("Ticket", mock.Anything, mock.Anything).Return(nil, unreachable).Once()

	_, err := newTestOrchestrator(supplier, new(mockStore)).Book(context.Background(), testAttempt(true), 0)

	assert.ErrorIs(t, err, unreachable)
}

func TestOrchestrator_RejectsInvalidAttempt(t *testing.T) {
	supplier := new(mockSupplier)
	attempt := testAttempt(true)
	attempt.Passengers = nil

	_, err := newTestOrchestrator(supplier, new(mockStore)).Book(context.Background(), attempt, 0)

	assert.Error(t, err)
	supplier.AssertNotCalled(t, "Ticket", mock.Anything, mock.Anything)
}

func TestOrchestrator_Persistence(t *testing.T) {
	t.Run("ticketed booking of an identified user is saved", func(t *testing.T) {
		supplier := new(mockSupplier)
		supplier.On("Ticket", mock.Anything, mock.Anything).Return(success(gds.EndpointTicket, ticketedBody), nil).Once()
		store := new(mockStore)
		store.On("Create", mock.Anything, mock.MatchedBy(func(rec Record) bool {
			return rec.UserID == 42 &&
				rec.Status == StatusConfirmed &&
				rec.PNR == "HX7Q2L" &&
				rec.BookingID == "1893221" &&
				rec.Amount == 9250 &&
				string(rec.ResponseJSON) == ticketedBody
		})).Return(&Record{ID: 1}, nil).Once()
		o := newTestOrchestrator(supplier, store)

		_, err := o.Book(context.Background(), testAttempt(true), 42)
		o.Wait()

		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("store failure does not fail the booking", func(t *testing.T) {
		supplier := new(mockSupplier)
		supplier.On("Ticket", mock.Anything, mock.Anything).Return(success(gds.EndpointTicket, ticketedBody), nil).Once()
		store := new(mockStore)
		store.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Once()
		o := newTestOrchestrator(supplier, store)

		result, err := o.Book(context.Background(), testAttempt(true), 42)
		o.Wait()

		require.NoError(t, err)
		assert.Equal(t, StateTicketed, result.State)
		store.AssertExpectations(t)
	})

	t.Run("failed ticket is not saved", func(t *testing.T) {
		supplier := new(mockSupplier)
		supplier.On("Ticket", mock.Anything, mock.Anything).Return(rejected(gds.EndpointTicket, 6, "Insufficient balance"), nil).Once()
		store := new(mockStore)
		o := newTestOrchestrator(supplier, store)

		result, err := o.Book(context.Background(), testAttempt(true), 42)
		o.Wait()

		require.NoError(t, err)
		assert.Equal(t, StateFailed, result.State)
		store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("anonymous booking is not saved", func(t *testing.T) {
		supplier := new(mockSupplier)
		supplier.On("Ticket", mock.Anything, mock.Anything).Return(success(gds.EndpointTicket, ticketedBody), nil).Once()
		store := new(mockStore)
		o := newTestOrchestrator(supplier, store)

		_, err := o.Book(context.Background(), testAttempt(true), 0)
		o.Wait()

		require.NoError(t, err)
		store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

// stateLog records the "state" field of every log line.
type stateLog struct {
	mu     sync.Mutex
	states []State
}

func (l *stateLog) record(fields []logger.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range fields {
		if f.Key == "state" {
			l.states = append(l.states, State(f.Value.(string)))
		}
	}
}

func (l *stateLog) Debug(_ string, fields ...logger.Field) { l.record(fields) }
func (l *stateLog) Info(_ string, fields ...logger.Field)  { l.record(fields) }
func (l *stateLog) Warn(_ string, fields ...logger.Field)  { l.record(fields) }
func (l *stateLog) Error(_ string, fields ...logger.Field) { l.record(fields) }

func TestOrchestrator_StateTransitions(t *testing.T) {
	tests := []struct {
		name  string
		isLCC bool
		setup func(s *mockSupplier)
		want  []State
	}{
		{
			name:  "LCC",
			isLCC: true,
			setup: func(s *mockSupplier) {
				s.On("Ticket", mock.Anything, mock.Anything).Return(success(gds.EndpointTicket, ticketedBody), nil).Once()
			},
			want: []State{StateStart, StateTicketing, StateTicketed},
		},
		{
			name: "hold then ticket",
			setup: func(s *mockSupplier) {
				s.On("Book", mock.Anything, mock.Anything).Return(success(gds.EndpointBook, heldBody), nil).Once()
				s.On("Ticket", mock.Anything, mock.Anything).Return(success(gds.EndpointTicket, ticketedBody), nil).Once()
			},
			want: []State{StateStart, StateHolding, StateHeld, StateTicketing, StateTicketed},
		},
		{
			name: "hold not permitted",
			setup: func(s *mockSupplier) {
				s.On("Book", mock.Anything, mock.Anything).Return(rejected(gds.EndpointBook, 2, "Booking is not allowed"), nil).Once()
				s.On("Ticket", mock.Anything, mock.Anything).Return(rejected(gds.EndpointTicket, 6, "Insufficient balance"), nil).Once()
			},
			want: []State{StateStart, StateHolding, StateRetryingAsLCC, StateTicketing, StateFailed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			supplier := new(mockSupplier)
			tt.setup(supplier)
			log := &stateLog{}
			o := NewOrchestrator(supplier, new(mockStore), log)

			_, err := o.Book(context.Background(), testAttempt(tt.isLCC), 0)

			require.NoError(t, err)
			assert.Equal(t, tt.want, log.states)
		})
	}
}
