package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"stone-catalog-service/internal/catalog"
	"stone-catalog-service/internal/currency"
)

// GRPCHandler implements CatalogServiceServer.
type GRPCHandler struct {
	catalog CatalogReader
	rates   RateProvider
}

var _ CatalogServiceServer = (*GRPCHandler)(nil)

// NewGRPCHandler creates a new GRPCHandler.
func NewGRPCHandler(c CatalogReader, rates RateProvider) *GRPCHandler {
	return &GRPCHandler{catalog: c, rates: rates}
}

// --- Helper: Error Mapping ---
func mapCatalogErrorToGrpcStatus(err error, resourceName, resourceID string) error {
	if err == nil {
		return nil
	}
	log.Printf("ERROR: Catalog lookup for %s ID %s failed: %v", resourceName, resourceID, err)

	switch {
	case errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, catalog.ErrCategoryNotFound):
		return status.Errorf(codes.NotFound, "%s with ID %s not found", resourceName, resourceID)
	default:
		return status.Errorf(codes.Internal, "Failed to process request for %s ID %s: %v", resourceName, resourceID, err)
	}
}

// toStruct converts any JSON-encodable value into a protobuf Struct.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func requestCurrency(req *structpb.Struct) (string, error) {
	code := strings.ToUpper(req.GetFields()["currency"].GetStringValue())
	if code == "" {
		return currency.DefaultCode, nil
	}
	if !currency.IsSupported(code) {
		return "", status.Errorf(codes.InvalidArgument, "unsupported currency %q", code)
	}
	return code, nil
}

func (s *GRPCHandler) GetCatalog(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	log.Println("INFO: Received gRPC GetCatalog request")
	out, err := toStruct(map[string]interface{}{"categories": s.catalog.Categories()})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to encode catalog: %v", err)
	}
	return out, nil
}

// GetProduct expects {"id": string, "currency"?: string}.
func (s *GRPCHandler) GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := req.GetFields()["id"].GetStringValue()
	log.Printf("INFO: Received gRPC GetProduct request for ID: %q", id)
	if id == "" {
		return nil, status.Errorf(codes.InvalidArgument, "Product ID must be a non-empty string")
	}
	code, err := requestCurrency(req)
	if err != nil {
		return nil, err
	}

	p, err := s.catalog.ProductByID(id)
	if err != nil {
		return nil, mapCatalogErrorToGrpcStatus(err, "Product", id)
	}

	out, err := toStruct(newProductView(p, code, s.rates.Rates(ctx)))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to encode product: %v", err)
	}
	return out, nil
}

// FormatPrice expects {"amount_inr": number|string, "currency"?: string}.
func (s *GRPCHandler) FormatPrice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	code, err := requestCurrency(req)
	if err != nil {
		return nil, err
	}

	var amount decimal.Decimal
	switch v := req.GetFields()["amount_inr"].GetKind().(type) {
	case *structpb.Value_NumberValue:
		if math.IsNaN(v.NumberValue) || math.IsInf(v.NumberValue, 0) {
			return nil, status.Errorf(codes.InvalidArgument, "amount_inr must be a finite number")
		}
		amount = decimal.NewFromFloat(v.NumberValue)
	case *structpb.Value_StringValue:
		amount, err = decimal.NewFromString(v.StringValue)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "amount_inr %q is not a number", v.StringValue)
		}
	default:
		return nil, status.Errorf(codes.InvalidArgument, "amount_inr is required")
	}

	rates := s.rates.Rates(ctx)
	converted, shown := currency.Price(amount, code, rates, nil)
	out, err := structpb.NewStruct(map[string]interface{}{
		"currency":  shown,
		"formatted": currency.Format(converted, shown),
		"source":    rates.Source,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to encode price: %v", err)
	}
	return out, nil
}
