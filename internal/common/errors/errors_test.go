package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_ChainHelpers(t *testing.T) {
	cause := context.DeadlineExceeded
	err := fmt.Errorf("describe intent: %w", NewUpstreamTimeoutError("llm", "describeIntent", cause))

	stdErr, ok := AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeUpstreamTimeout, stdErr.Code)
	assert.Equal(t, "llm", stdErr.Metadata["collaborator"])
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, ErrCodeUpstreamTimeout, CodeOf(err))
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), CodeOf(fmt.Errorf("plain")))
	assert.Contains(t, stdErr.Error(), "StandardError[UPSTREAM_TIMEOUT]")
}

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeCatalogUnavailable, 3},
		{ErrCodeNotificationSendFailed, 3},
		{ErrCodeUpstreamTimeout, 2},
		{ErrCodeBudgetUnparsable, 0},
		{ErrCodeOrderNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, GetRetryCount(tt.code))
			assert.Equal(t, tt.want > 0, IsRetryableErrorCode(tt.code))
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	bpmn := ConvertToBPMNError(NewOrderNotFoundError("o-1"))
	assert.Equal(t, "ORDER_NOT_FOUND", bpmn.Code)
	assert.Equal(t, 0, bpmn.Retries)

	bpmn = ConvertToBPMNError(NewCatalogUnavailableError(fmt.Errorf("es down")))
	assert.Equal(t, 3, bpmn.Retries)
	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "CATALOG_UNAVAILABLE", vars["originalErrorCode"])
	assert.Equal(t, true, vars["retryable"])
}

func TestHTTPStatusAndCategory(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrCodeOrderValidationFailed))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrCodeOrderNotFound))
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatus(ErrCodeUpstreamTimeout))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(ErrCodeOrderBookingFailed))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrCodeSessionStoreFailed))

	assert.Equal(t, "AI", GetErrorCategory(ErrCodeUnclassifiableIntent))
	assert.Equal(t, "CONVERSATION", GetErrorCategory(ErrCodeNoMatchingItem))
	assert.Equal(t, "ORDERING", GetErrorCategory(ErrCodeNoPendingOrder))
	assert.Equal(t, "SESSION", GetErrorCategory(ErrCodeSessionStoreFailed))
}
