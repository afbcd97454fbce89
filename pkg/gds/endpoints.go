package gds

import (
	"fmt"
	"strings"
)

type Endpoint string

const (
	EndpointAuthenticate Endpoint = "Authenticate"
	EndpointSearch       Endpoint = "Search"
	EndpointFareRule     Endpoint = "FareRule"
	EndpointFareQuote    Endpoint = "FareQuote"
	EndpointSSR          Endpoint = "SSR"
	EndpointBook         Endpoint = "Book"
	EndpointTicket       Endpoint = "Ticket"
)

// Endpoints holds the absolute URL of every supplier operation.
type Endpoints struct {
	Authenticate string
	Search       string
	FareRule     string
	FareQuote    string
	SSR          string
	Book         string
	Ticket       string
}

func (e Endpoints) url(ep Endpoint) string {
	switch ep {
	case EndpointAuthenticate:
		return e.Authenticate
	case EndpointSearch:
		return e.Search
	case EndpointFareRule:
		return e.FareRule
	case EndpointFareQuote:
		return e.FareQuote
	case EndpointSSR:
		return e.SSR
	case EndpointBook:
		return e.Book
	case EndpointTicket:
		return e.Ticket
	default:
		return ""
	}
}

// callEndpoints are the operations Client issues; Authenticate belongs to the TokenManager.
var callEndpoints = []Endpoint{
	EndpointSearch,
	EndpointFareRule,
	EndpointFareQuote,
	EndpointSSR,
	EndpointBook,
	EndpointTicket,
}

func (e Endpoints) validate() error {
	var missing []string
	for _, ep := range callEndpoints {
		if e.url(ep) == "" {
			missing = append(missing, string(ep))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("gds: missing endpoint URL for %s", strings.Join(missing, ", "))
	}
	return nil
}
