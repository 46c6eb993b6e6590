package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/ridekit/internal/core/domain"
)

// Runner implements ports.RoundTripRunner on Temporal. The round trip id is
// the workflow id.
type Runner struct {
	client      client.Client
	taskQueue   string
	tolerance   float64
	maxAttempts int
	timeout     time.Duration
}

// NewRunner creates a runner that starts workflows on taskQueue.
func NewRunner(c client.Client, taskQueue string, tolerance float64, maxAttempts int) *Runner {
	if taskQueue == "" {
		taskQueue = TaskQueue
	}
	return &Runner{
		client:      c,
		taskQueue:   taskQueue,
		tolerance:   tolerance,
		maxAttempts: maxAttempts,
		timeout:     15 * time.Minute,
	}
}

// Start launches a round-trip workflow and returns its run id.
func (r *Runner) Start(ctx context.Context, id string, req domain.RoundTripRequest) (string, error) {
	run, err := r.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                       id,
		TaskQueue:                r.taskQueue,
		WorkflowExecutionTimeout: r.timeout,
	}, RoundTripWorkflow, RoundTripInput{
		ID:          id,
		Request:     req,
		Tolerance:   r.tolerance,
		MaxAttempts: r.maxAttempts,
	})
	if err != nil {
		return "", fmt.Errorf("start round trip workflow: %w", err)
	}
	return run.GetRunID(), nil
}

// Result returns the finished round trip, (nil, nil) while it is still running,
// or the domain error it failed with.
func (r *Runner) Result(ctx context.Context, id string) (*domain.RoundTripResult, error) {
	desc, err := r.client.DescribeWorkflowExecution(ctx, id, "")
	if err != nil {
		var nf *serviceerror.NotFound
		if errors.As(err, &nf) {
			return nil, fmt.Errorf("%w: round trip %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("describe workflow %s: %w", id, err)
	}
	if desc.GetWorkflowExecutionInfo().GetStatus() == enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING {
		return nil, nil
	}

	var result domain.RoundTripResult
	if err := r.client.GetWorkflow(ctx, id, "").Get(ctx, &result); err != nil {
		return nil, DomainError(err)
	}
	return &result, nil
}

// DomainError maps a workflow failure back onto the domain sentinels.
func DomainError(err error) error {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		if temporal.IsTimeoutError(err) || temporal.IsCanceledError(err) || temporal.IsTerminatedError(err) {
			return fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
		}
		return err
	}

	var msg string
	if appErr.HasDetails() {
		_ = appErr.Details(&msg)
	}

	switch appErr.Type() {
	case ErrTypeInvalidInput:
		return rewrap(domain.ErrInvalidInput, msg)
	case ErrTypeGenerationFailure:
		var ge domain.GenerationError
		if appErr.Details(&msg, &ge) == nil && ge.Attempts > 0 {
			return &ge
		}
		return rewrap(domain.ErrGenerationFailure, msg)
	case ErrTypeServiceUnavailable:
		return rewrap(domain.ErrServiceUnavailable, msg)
	}
	return err
}

func rewrap(sentinel error, msg string) error {
	msg = strings.TrimPrefix(msg, sentinel.Error()+": ")
	if msg == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}
