package flight

import (
	"context"
	"encoding/json"

	"flightbroker/pkg/gds"
	"flightbroker/pkg/logger"
)

// Supplier is the subset of the GDS client the read-only flight operations use.
type Supplier interface {
	Search(ctx context.Context, req gds.SearchRequest) (*gds.Response, error)
	FareRule(ctx context.Context, ref gds.ResultRef) (*gds.Response, error)
	FareQuote(ctx context.Context, ref gds.ResultRef) (*gds.Response, error)
	SSR(ctx context.Context, ref gds.ResultRef) (*gds.Response, error)
}

type Service struct {
	supplier Supplier
	logger   logger.Client
}

func NewService(supplier Supplier, logger logger.Client) *Service {
	return &Service{
		supplier: supplier,
		logger:   logger,
	}
}

func (s *Service) Search(ctx context.Context, criteria SearchCriteria) ([]SearchResult, error) {
	req, err := BuildSearchRequest(criteria)
	if err != nil {
		return nil, err
	}

	resp, err := s.supplier.Search(ctx, req)
	if err != nil {
		s.logger.Error("search failed", logger.Field{Key: "err", Value: err})
		return nil, err
	}
	if err := resp.Err(); err != nil {
		s.logger.Warn("search rejected by supplier",
			logger.Field{Key: "code", Value: resp.Error.Code},
			logger.Field{Key: "message", Value: resp.Error.Message},
		)
		return nil, err
	}

	results, err := NormalizeSearch(resp.Body)
	if err != nil {
		return nil, err
	}

	s.logger.Info("search completed",
		logger.Field{Key: "journey_type", Value: req.JourneyType},
		logger.Field{Key: "segments", Value: len(req.Segments)},
		logger.Field{Key: "results", Value: len(results)},
	)
	return results, nil
}

func (s *Service) FareRule(ctx context.Context, ref gds.ResultRef) (json.RawMessage, error) {
	return s.lookup(ctx, ref, s.supplier.FareRule)
}

func (s *Service) FareQuote(ctx context.Context, ref gds.ResultRef) (json.RawMessage, error) {
	return s.lookup(ctx, ref, s.supplier.FareQuote)
}

// SeatMap returns the SSR payload with its seat grids made rectangular.
func (s *Service) SeatMap(ctx context.Context, ref gds.ResultRef) (json.RawMessage, error) {
	payload, err := s.lookup(ctx, ref, s.supplier.SSR)
	if err != nil {
		return nil, err
	}
	return NormalizeSSR(payload)
}

func (s *Service) lookup(ctx context.Context, ref gds.ResultRef, call func(context.Context, gds.ResultRef) (*gds.Response, error)) (json.RawMessage, error) {
	if ref.TraceId == "" || ref.ResultIndex == "" {
		return nil, NewValidationError("Missing required parameters: traceId, resultIndex")
	}

	resp, err := call(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		s.logger.Warn("lookup rejected by supplier",
			logger.Field{Key: "endpoint", Value: string(resp.Endpoint)},
			logger.Field{Key: "code", Value: resp.Error.Code},
		)
		return nil, err
	}
	return resp.Payload(), nil
}
