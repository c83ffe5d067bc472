package workflows

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/ghuser/ghshop/pkg/logger"
	shopdomain "github.com/ghuser/ghshop/services/shop/domain"
	"github.com/ghuser/ghshop/services/shop/domain/models"
)

type stubCompleter struct {
	err   error
	calls int
}

func (s *stubCompleter) CompleteDelivery(context.Context, uuid.UUID) (*models.Order, error) {
	s.calls++
	return nil, s.err
}

func TestDeliveryWorkflow_WaitsForLeadTime(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterActivity(&DeliveryActivities{})

	orderID := uuid.New()
	var timer time.Duration
	env.SetOnTimerScheduledListener(func(_ string, d time.Duration) { timer = d })
	env.OnActivity("CompleteDelivery", mock.Anything, orderID).Return(nil).Once()

	env.ExecuteWorkflow(DeliveryWorkflow, DeliveryInput{OrderID: orderID, LeadTime: 24 * time.Hour})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	assert.Equal(t, 24*time.Hour, timer)
	env.AssertExpectations(t)
}

func TestDeliveryWorkflow_NoLeadTime(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterActivity(&DeliveryActivities{})

	orderID := uuid.New()
	timers := 0
	env.SetOnTimerScheduledListener(func(string, time.Duration) { timers++ })
	env.OnActivity("CompleteDelivery", mock.Anything, orderID).Return(nil).Once()

	env.ExecuteWorkflow(DeliveryWorkflow, DeliveryInput{OrderID: orderID})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	assert.Zero(t, timers)
}

func TestDeliveryWorkflow_MissingOrderFails(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterActivity(&DeliveryActivities{})

	orderID := uuid.New()
	env.OnActivity("CompleteDelivery", mock.Anything, orderID).
		Return(temporal.NewNonRetryableApplicationError("order not found", errTypeOrderNotFound, nil)).Once()

	env.ExecuteWorkflow(DeliveryWorkflow, DeliveryInput{OrderID: orderID, LeadTime: time.Minute})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	env.AssertExpectations(t)
}

func TestDeliveryActivities_CompleteDelivery(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantErr  bool
		wantType string
	}{
		{"delivered", nil, false, ""},
		{"cancelled order", fmt.Errorf("complete delivery: %w", shopdomain.ErrOrderCancelled), false, ""},
		{"missing order", fmt.Errorf("complete delivery: %w", shopdomain.ErrOrderNotFound), true, errTypeOrderNotFound},
		{"database down", errors.New("connection refused"), true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var suite testsuite.WorkflowTestSuite
			env := suite.NewTestActivityEnvironment()
			stub := &stubCompleter{err: tt.err}
			activities := &DeliveryActivities{Orders: stub, Log: logger.Discard()}
			env.RegisterActivity(activities)

			_, err := env.ExecuteActivity(activities.CompleteDelivery, uuid.New())
			assert.Equal(t, 1, stub.calls)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantType != "" {
				var appErr *temporal.ApplicationError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, tt.wantType, appErr.Type())
				assert.True(t, appErr.NonRetryable())
			}
		})
	}
}
