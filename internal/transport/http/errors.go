package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cimillas/order-service/internal/domain"
	"go.uber.org/zap"
)

const (
	codeMethodNotAllowed    = "method_not_allowed"
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeInvalidID           = "invalid_id"
	codeInvalidQuantity     = "invalid_quantity"
	codeValidationFailed    = "validation_failed"
	codeInsufficientStock   = "insufficient_stock"
	codeStockConflict       = "stock_conflict"
	codeUnsupportedStrategy = "unsupported_strategy"
	codeCustomerNotFound    = "customer_not_found"
	codeProductNotFound     = "product_not_found"
	codeOrderNotFound       = "order_not_found"
	codeForbidden           = "forbidden"
	codeUnavailable         = "unavailable"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorDetails(w, status, code, msg, nil)
}

func writeErrorDetails(w http.ResponseWriter, status int, code, msg string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error:   msg,
		Code:    code,
		Details: details,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

type stockDetails struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Available   int    `json:"available"`
	Requested   int    `json:"requested"`
}

// writeServiceError maps a service error onto a status and code. Business
// rejections keep their message; anything else is logged and hidden.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		verr  *domain.ValidationError
		short *domain.InsufficientStockError
		unsup *domain.UnsupportedStrategyError
	)
	switch {
	case errors.As(err, &verr):
		writeErrorDetails(w, http.StatusBadRequest, codeValidationFailed, verr.Message,
			map[string]string{"field": verr.Field})
	case errors.As(err, &short):
		writeErrorDetails(w, http.StatusBadRequest, codeInsufficientStock, short.Error(), stockDetails{
			ProductID:   short.ProductID,
			ProductName: short.ProductName,
			Available:   short.Available,
			Requested:   short.Requested,
		})
	case errors.Is(err, domain.ErrStockConflict):
		writeError(w, http.StatusConflict, codeStockConflict, "stock changed concurrently, retry the order")
	case errors.As(err, &unsup):
		writeErrorDetails(w, http.StatusBadRequest, codeUnsupportedStrategy, unsup.Error(),
			map[string]string{"kind": unsup.Kind, "key": unsup.Key})
	case errors.Is(err, domain.ErrCustomerNotFound):
		writeError(w, http.StatusNotFound, codeCustomerNotFound, "Customer not found")
	case errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusNotFound, codeProductNotFound, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, codeOrderNotFound, "Order not found")
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, "invalid id")
	default:
		if logger != nil {
			logger.Error("request failed", zap.Error(err))
		}
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
