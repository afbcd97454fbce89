package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

func main() {
	// Default port
	port := "8081"

	// Check if port is provided as command line argument
	if len(os.Args) > 1 {
		port = os.Args[1]
	}

	// A short TTL makes the broker's session-expiry retry easy to exercise locally.
	ttl := 30 * time.Minute
	if v := os.Getenv("MOCK_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			ttl = d
		}
	}

	supplier := newSupplier(ttl)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /Authenticate", supplier.Authenticate)
	mux.HandleFunc("POST /Search", supplier.Search)
	mux.HandleFunc("POST /FareRule", supplier.FareRule)
	mux.HandleFunc("POST /FareQuote", supplier.FareQuote)
	mux.HandleFunc("POST /SSR", supplier.SSR)
	mux.HandleFunc("POST /Book", supplier.Book)
	mux.HandleFunc("POST /Ticket", supplier.Ticket)

	addr := fmt.Sprintf(":%s", port)
	fmt.Printf("Mock GDS supplier running on port %s...\n", port)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}
