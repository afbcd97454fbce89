package flight

import (
	"context"
	"encoding/json"
	"net/http"

	"flightbroker/pkg/gds"

	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service *Service
	tokens  gds.TokenManager
}

func NewFlightHandler(s *Service, tokens gds.TokenManager) *FlightHandler {
	return &FlightHandler{
		service: s,
		tokens:  tokens,
	}
}

func (h *FlightHandler) RegisterRoutes(router gin.IRouter) {
	ensure := EnsureToken(h.tokens)

	router.GET("/search", ensure, h.SearchHandler)
	router.GET("/api/search", ensure, h.SearchHandler)

	flights := router.Group("/flights", ensure)
	flights.POST("/fare-rule", h.FareRuleHandler)
	flights.POST("/fare-quote", h.FareQuoteHandler)
	flights.POST("/ssr", h.SSRHandler)
}

// EnsureToken rejects the request early when no supplier token can be obtained.
func EnsureToken(tokens gds.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := tokens.GetToken(c.Request.Context()); err != nil {
			SendError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SearchHandler godoc
// @Summary      Search flights
// @Description  OneWay, Return or MultiCity search. Dates are DDMMYYYY; MultiCity repeats from, to and date.
// @Tags         flights
// @Produce      json
// @Param        from         query  string  true   "Origin airport code"
// @Param        to           query  string  true   "Destination airport code"
// @Param        date         query  string  true   "Departure date DDMMYYYY"
// @Param        returnDate   query  string  false  "Return date DDMMYYYY"
// @Param        adults       query  int     false  "Adults (default 1)"
// @Param        children     query  int     false  "Children"
// @Param        infants      query  int     false  "Infants"
// @Param        class        query  string  false  "e, pe, b, pb or f"
// @Param        journeyType  query  int     false  "1 OneWay, 2 Return, 3 MultiCity"
// @Success      200 {array}  SearchResult
// @Failure      400 {object} map[string]interface{}
// @Router       /search [get]
func (h *FlightHandler) SearchHandler(c *gin.Context) {
	criteria, err := ParseSearchQuery(c.Request.URL.Query())
	if err != nil {
		SendError(c, err)
		return
	}

	results, err := h.service.Search(c.Request.Context(), criteria)
	if err != nil {
		SendError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// FareRuleHandler godoc
// @Summary      Fare rules for a search result
// @Tags         flights
// @Accept       json
// @Produce      json
// @Param        request body ResultRequest true "Result reference"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Router       /flights/fare-rule [post]
func (h *FlightHandler) FareRuleHandler(c *gin.Context) {
	h.lookup(c, h.service.FareRule)
}

// FareQuoteHandler godoc
// @Summary      Re-price a search result
// @Tags         flights
// @Accept       json
// @Produce      json
// @Param        request body ResultRequest true "Result reference"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Router       /flights/fare-quote [post]
func (h *FlightHandler) FareQuoteHandler(c *gin.Context) {
	h.lookup(c, h.service.FareQuote)
}

// SSRHandler godoc
// @Summary      Seat map, baggage and meal options
// @Description  Seat rows are padded with NoSeat placeholders so every row has the same width.
// @Tags         flights
// @Accept       json
// @Produce      json
// @Param        request body ResultRequest true "Result reference"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Router       /flights/ssr [post]
func (h *FlightHandler) SSRHandler(c *gin.Context) {
	h.lookup(c, h.service.SeatMap)
}

func (h *FlightHandler) lookup(c *gin.Context, fetch func(context.Context, gds.ResultRef) (json.RawMessage, error)) {
	var req ResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, NewValidationError("Invalid JSON body"))
		return
	}

	data, err := fetch(c.Request.Context(), gds.ResultRef{TraceId: req.TraceID, ResultIndex: req.ResultIndex})
	if err != nil {
		SendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}
