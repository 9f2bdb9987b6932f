package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	disbursementdomain "github.com/smallbiznis/payrail/internal/disbursement/domain"
	obligationdomain "github.com/smallbiznis/payrail/internal/obligation/domain"
	payoutdomain "github.com/smallbiznis/payrail/internal/payout/domain"
	policydomain "github.com/smallbiznis/payrail/internal/policy/domain"
)

// ErrInvalidRequest covers malformed bodies and unparseable identifiers.
var ErrInvalidRequest = errors.New("invalid_request")

type errorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable *bool  `json:"retryable,omitempty"`
}

// AbortWithError attaches err to the gin context so the error handling
// middleware renders it once the handler chain unwinds.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandlingMiddleware renders the last handler error as a JSON payload
// with a status derived from the error's domain meaning.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status, payload := mapError(err)
		c.JSON(status, gin.H{"error": payload})
	}
}

func mapError(err error) (int, errorPayload) {
	var dispatchErr *disbursementdomain.DispatchError
	if errors.As(err, &dispatchErr) {
		retryable := dispatchErr.Retryable
		return http.StatusBadGateway, errorPayload{
			Code:      dispatchErr.Code,
			Message:   dispatchErr.Message,
			Retryable: &retryable,
		}
	}

	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, obligationdomain.ErrInvalidOrder),
		errors.Is(err, obligationdomain.ErrInvalidLineItem),
		errors.Is(err, obligationdomain.ErrInvalidCurrency),
		errors.Is(err, obligationdomain.ErrInvalidTransaction),
		errors.Is(err, obligationdomain.ErrItemAlreadyMirror),
		errors.Is(err, payoutdomain.ErrInvalidPeriod),
		errors.Is(err, payoutdomain.ErrInvalidApprover),
		errors.Is(err, payoutdomain.ErrUnknownPayeeType),
		errors.Is(err, payoutdomain.ErrUnknownItemStatus),
		errors.Is(err, payoutdomain.ErrUnknownPayoutStatus),
		errors.Is(err, disbursementdomain.ErrInvalidBatch):
		return http.StatusBadRequest, errorPayload{Code: err.Error(), Message: "request rejected"}

	case errors.Is(err, obligationdomain.ErrItemNotFound),
		errors.Is(err, payoutdomain.ErrPayoutNotFound):
		return http.StatusNotFound, errorPayload{Code: err.Error(), Message: "resource not found"}

	case errors.Is(err, policydomain.ErrNoPolicy),
		errors.Is(err, policydomain.ErrInvalidPayee),
		errors.Is(err, payoutdomain.ErrPayoutNotSignable),
		errors.Is(err, disbursementdomain.ErrNoPayouts),
		errors.Is(err, disbursementdomain.ErrPayoutNotProcessing):
		return http.StatusUnprocessableEntity, errorPayload{Code: err.Error(), Message: "operation not applicable"}

	case errors.Is(err, disbursementdomain.ErrProviderNotFound):
		return http.StatusNotImplemented, errorPayload{Code: err.Error(), Message: "provider not configured"}
	}

	return http.StatusInternalServerError, errorPayload{Code: "internal_error", Message: "internal error"}
}
