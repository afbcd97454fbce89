package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"flightbroker/internal/flight"
	"flightbroker/internal/user"
	"flightbroker/pkg/gds"
	"flightbroker/pkg/logger"
	"flightbroker/pkg/oauth2"

	"github.com/gin-gonic/gin"
)

// UserDirectory resolves a caller-supplied Google id to an internal user.
type UserDirectory interface {
	FindByExternalID(ctx context.Context, googleID string) (*user.User, error)
}

type BookingHandler struct {
	orchestrator *Orchestrator
	store        Store
	payloads     *PayloadStore
	users        UserDirectory
	tokens       gds.TokenManager
	logger       logger.Client
}

func NewBookingHandler(o *Orchestrator, store Store, payloads *PayloadStore, users UserDirectory, tokens gds.TokenManager, log logger.Client) *BookingHandler {
	return &BookingHandler{
		orchestrator: o,
		store:        store,
		payloads:     payloads,
		users:        users,
		tokens:       tokens,
		logger:       log,
	}
}

func (h *BookingHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/flights/book", flight.EnsureToken(h.tokens), h.BookHandler)

	router.POST("/appbooking", h.AppBookingHandler)
	router.GET("/api/user/bookings", h.ListBookingsHandler)
	router.POST("/api/user/bookings", h.SaveBookingHandler)
	router.GET("/api/user/bookings/:id", h.GetBookingHandler)

	router.POST("/api/save-booking-payload", h.SavePayloadHandler)
	router.GET("/api/get-booking-payload/:hash", h.GetPayloadHandler)
	router.POST("/api/retrieve-booking-by-hash", h.RetrievePayloadHandler)
}

type bookRequest struct {
	Attempt
	GoogleID string `json:"googleId"`
}

// BookHandler godoc
// @Summary      Book and ticket a fare
// @Description  LCC fares are ticketed directly. Other fares are held first and then ticketed;
// @Description  a hold rejected with code 2 is ticketed as LCC. The ticket reply is returned verbatim.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        request body Attempt true "Booking attempt"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Failure      502 {object} map[string]interface{}
// @Router       /flights/book [post]
func (h *BookingHandler) BookHandler(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		flight.SendError(c, flight.NewValidationError("Invalid JSON body"))
		return
	}

	userID := h.optionalUser(c, req.GoogleID)

	result, err := h.orchestrator.Book(c.Request.Context(), req.Attempt, userID)
	if err != nil {
		flight.SendError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", result.Ticket.Body)
}

// ListBookingsHandler godoc
// @Summary      Booking history
// @Description  Identity is the googleId query parameter, else the signed-in user.
// @Tags         bookings
// @Produce      json
// @Param        googleId query string false "Google account id"
// @Success      200 {array}  Record
// @Failure      401 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /api/user/bookings [get]
func (h *BookingHandler) ListBookingsHandler(c *gin.Context) {
	userID, err := h.requireUser(c, c.Query("googleId"))
	if err != nil {
		flight.SendError(c, err)
		return
	}

	records, err := h.store.FindByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to fetch bookings", logger.Field{Key: "err", Value: err})
		flight.SendError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetBookingHandler godoc
// @Summary      Booking details
// @Tags         bookings
// @Produce      json
// @Param        id       path  string true  "Booking id"
// @Param        googleId query string false "Google account id"
// @Success      200 {object} Record
// @Failure      401 {object} map[string]interface{}
// @Failure      403 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /api/user/bookings/{id} [get]
func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	userID, err := h.requireUser(c, c.Query("googleId"))
	if err != nil {
		flight.SendError(c, err)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		flight.SendError(c, flight.NewNotFoundError("Booking not found"))
		return
	}

	rec, err := h.store.FindByID(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		flight.SendError(c, flight.NewNotFoundError("Booking not found"))
		return
	}
	if err != nil {
		h.logger.Error("failed to fetch booking", logger.Field{Key: "err", Value: err}, logger.Field{Key: "id", Value: id})
		flight.SendError(c, err)
		return
	}

	if rec.UserID != userID {
		flight.SendError(c, flight.NewForbiddenError("Access to this booking is denied"))
		return
	}
	c.JSON(http.StatusOK, rec)
}

type saveBookingRequest struct {
	GoogleID         string          `json:"googleId"`
	BookingID        string          `json:"bookingId"`
	PNR              string          `json:"pnr"`
	Status           Status          `json:"status"`
	Amount           float64         `json:"amount"`
	FlightDetails    json.RawMessage `json:"flightDetails"`
	PassengerDetails json.RawMessage `json:"passengerDetails"`
	ResponseJSON     json.RawMessage `json:"responseJson"`
}

// SaveBookingHandler godoc
// @Summary      Save a booking record
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        request body saveBookingRequest true "Booking"
// @Success      201 {object} map[string]interface{}
// @Failure      401 {object} map[string]interface{}
// @Router       /api/user/bookings [post]
func (h *BookingHandler) SaveBookingHandler(c *gin.Context) {
	var req saveBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		flight.SendError(c, flight.NewValidationError("Invalid JSON body"))
		return
	}

	userID, err := h.requireUser(c, req.GoogleID)
	if err != nil {
		flight.SendError(c, err)
		return
	}

	rec, err := h.store.Create(c.Request.Context(), Record{
		UserID:           userID,
		BookingID:        req.BookingID,
		PNR:              req.PNR,
		Status:           req.Status,
		Amount:           req.Amount,
		FlightDetails:    req.FlightDetails,
		PassengerDetails: req.PassengerDetails,
		ResponseJSON:     req.ResponseJSON,
	})
	if err != nil {
		h.logger.Error("failed to save booking", logger.Field{Key: "err", Value: err})
		flight.SendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "booking": rec})
}

type appBookingRequest struct {
	GoogleID    string      `json:"googleId"`
	OrderID     string      `json:"orderId"`
	IsLCC       bool        `json:"isLCC"`
	TraceID     string      `json:"TraceId"`
	ResultIndex string      `json:"ResultIndex"`
	Passengers  []Passenger `json:"Passengers"`
}

// AppBookingHandler godoc
// @Summary      Record a paid app booking before ticketing
// @Description  Saves a Pending booking whose bookingId is the payment order id.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        request body appBookingRequest true "App booking"
// @Success      201 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /appbooking [post]
func (h *BookingHandler) AppBookingHandler(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		flight.SendError(c, flight.NewValidationError("Invalid JSON body"))
		return
	}
	var req appBookingRequest
	if err := json.Unmarshal(body, &req); err != nil {
		flight.SendError(c, flight.NewValidationError("Invalid JSON body"))
		return
	}
	if req.GoogleID == "" || req.OrderID == "" {
		flight.SendError(c, flight.NewValidationError("googleId and orderId are required"))
		return
	}

	userID, err := h.resolveGoogleID(c.Request.Context(), req.GoogleID)
	if err != nil {
		flight.SendError(c, err)
		return
	}

	flightDetails, _ := json.Marshal(FlightSnapshot{IsLCC: req.IsLCC, TraceID: req.TraceID, ResultIndex: req.ResultIndex})
	passengers, _ := json.Marshal(req.Passengers)

	rec, err := h.store.Create(c.Request.Context(), Record{
		UserID:           userID,
		BookingID:        req.OrderID,
		Status:           StatusPending,
		Amount:           Amount(req.Passengers),
		FlightDetails:    flightDetails,
		PassengerDetails: passengers,
		ResponseJSON:     body,
	})
	if err != nil {
		h.logger.Error("failed to save app booking", logger.Field{Key: "err", Value: err})
		flight.SendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Booking saved successfully", "booking": rec})
}

// SavePayloadHandler godoc
// @Summary      Park a booking attempt across the payment redirect
// @Tags         booking-sessions
// @Accept       json
// @Produce      json
// @Param        request body Payload true "Booking payload"
// @Success      201 {object} map[string]string
// @Router       /api/save-booking-payload [post]
func (h *BookingHandler) SavePayloadHandler(c *gin.Context) {
	var p Payload
	if err := c.ShouldBindJSON(&p); err != nil {
		flight.SendError(c, flight.NewValidationError("Invalid JSON body"))
		return
	}

	hash, err := h.payloads.Save(c.Request.Context(), p)
	if err != nil {
		h.logger.Error("failed to save booking payload", logger.Field{Key: "err", Value: err})
		flight.SendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Booking data saved successfully", "hash": hash})
}

// GetPayloadHandler godoc
// @Summary      Fetch a parked booking attempt
// @Tags         booking-sessions
// @Produce      json
// @Param        hash path string true "Booking hash"
// @Success      200 {object} Payload
// @Failure      404 {object} map[string]interface{}
// @Router       /api/get-booking-payload/{hash} [get]
func (h *BookingHandler) GetPayloadHandler(c *gin.Context) {
	h.sendPayload(c, c.Param("hash"))
}

// RetrievePayloadHandler godoc
// @Summary      Fetch a parked booking attempt by hash in the body
// @Tags         booking-sessions
// @Accept       json
// @Produce      json
// @Param        request body map[string]string true "{hash}"
// @Success      200 {object} Payload
// @Failure      400 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /api/retrieve-booking-by-hash [post]
func (h *BookingHandler) RetrievePayloadHandler(c *gin.Context) {
	var req struct {
		Hash string `json:"hash"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Hash == "" {
		flight.SendError(c, flight.NewValidationError("Hash is required"))
		return
	}
	h.sendPayload(c, req.Hash)
}

func (h *BookingHandler) sendPayload(c *gin.Context, hash string) {
	p, err := h.payloads.Get(c.Request.Context(), hash)
	if errors.Is(err, ErrPayloadNotFound) {
		flight.SendError(c, flight.NewNotFoundError("Booking session not found"))
		return
	}
	if err != nil {
		h.logger.Error("failed to load booking payload", logger.Field{Key: "err", Value: err})
		flight.SendError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// requireUser resolves googleID when given, else the signed-in user.
func (h *BookingHandler) requireUser(c *gin.Context, googleID string) (int64, error) {
	if googleID != "" {
		return h.resolveGoogleID(c.Request.Context(), googleID)
	}
	if id, ok := oauth2.CurrentUserID(c); ok {
		return id, nil
	}
	return 0, flight.NewUnauthorizedError("Login or provide googleId")
}

// optionalUser is requireUser for flows that proceed without an identity.
// An unknown googleID yields 0 rather than the session user.
func (h *BookingHandler) optionalUser(c *gin.Context, googleID string) int64 {
	if googleID == "" {
		if id, ok := oauth2.CurrentUserID(c); ok {
			return id
		}
		return 0
	}
	id, err := h.resolveGoogleID(c.Request.Context(), googleID)
	if err != nil {
		h.logger.Warn("booking user not resolved, booking will not be saved",
			logger.Field{Key: "err", Value: err},
		)
		return 0
	}
	return id
}

func (h *BookingHandler) resolveGoogleID(ctx context.Context, googleID string) (int64, error) {
	u, err := h.users.FindByExternalID(ctx, googleID)
	if errors.Is(err, user.ErrNotFound) {
		return 0, flight.NewNotFoundError("User not found with provided googleId")
	}
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}
