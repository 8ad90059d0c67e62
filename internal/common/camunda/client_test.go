package camunda

import (
	"context"
	"fmt"
	"testing"
	"time"

	"food-ordering-agent/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(maxRetries int) *Client {
	return &Client{config: &ClientConfig{
		RequestTimeout: time.Second,
		RetryConfig:    &RetryConfig{MaxRetries: maxRetries, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
	}}
}

func TestExecuteWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantCode  errors.ErrorCode
	}{
		{name: "success", errs: []error{nil}, wantCalls: 1},
		{name: "transient then success", errs: []error{fmt.Errorf("rpc error: Unavailable"), nil}, wantCalls: 2},
		{name: "permanent error", errs: []error{fmt.Errorf("process not found")}, wantCalls: 1, wantCode: "RESOURCE_NOT_FOUND"},
		{
			name:      "transient exhausts retries",
			errs:      []error{fmt.Errorf("deadline exceeded"), fmt.Errorf("deadline exceeded"), fmt.Errorf("deadline exceeded")},
			wantCalls: 3,
			wantCode:  "TIMEOUT_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			result, err := testClient(2).ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
				e := tt.errs[calls]
				calls++
				if e != nil {
					return nil, e
				}
				return int64(42), nil
			}, "create-instance")

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(42), result)
		})
	}
}

func TestExecuteWithRetry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := testClient(3)
	c.config.RetryConfig.BaseDelay = time.Second
	_, err := c.ExecuteWithRetry(ctx, func(context.Context) (interface{}, error) {
		return nil, fmt.Errorf("connection refused")
	}, "topology")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMapZeebeError(t *testing.T) {
	c := testClient(0)
	assert.Equal(t, errors.ErrorCode("EXTERNAL_SERVICE_ERROR"), errors.CodeOf(c.mapZeebeError(fmt.Errorf("connection reset"), "op", 1)))
	assert.Equal(t, errors.ErrorCode("BUSINESS_RULE_VIOLATION"), errors.CodeOf(c.mapZeebeError(fmt.Errorf("already exists"), "op", 0)))
	assert.True(t, isRetryableZeebeError(fmt.Errorf("broken pipe")))
	assert.False(t, isRetryableZeebeError(fmt.Errorf("invalid argument")))
}

func TestRetryConfig_Backoff(t *testing.T) {
	r := &RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: 350 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, r.backoff(0))
	assert.Equal(t, 200*time.Millisecond, r.backoff(1))
	assert.Equal(t, 350*time.Millisecond, r.backoff(2))
	assert.Equal(t, 350*time.Millisecond, r.backoff(40))
}
