// Package dispatch hands deferred translation jobs to a worker: another
// invocation of the same Lambda function, or a goroutine in this process.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/hororrklama-coder/DiscTransla/internal/domain"
)

// Dispatcher schedules a job and returns without waiting for it.
type Dispatcher interface {
	Dispatch(ctx context.Context, job domain.Job) error
}

// invoker is the part of *lambda.Client the Lambda dispatcher uses.
type invoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// Lambda dispatches jobs as asynchronous invocations of a Lambda function.
type Lambda struct {
	client       invoker
	functionName string
}

// NewLambda returns a dispatcher invoking functionName.
func NewLambda(client *lambda.Client, functionName string) *Lambda {
	return &Lambda{client: client, functionName: functionName}
}

// Dispatch sends the job as an Event invocation with payload {"job": {...}}.
func (l *Lambda) Dispatch(ctx context.Context, job domain.Job) error {
	payload, err := json.Marshal(domain.JobEnvelope{Job: &job})
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	result, err := l.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(l.functionName),
		InvocationType: types.InvocationTypeEvent,
		Payload:        payload,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke %s: %w", l.functionName, err)
	}

	if result.FunctionError != nil {
		return fmt.Errorf("lambda error: %s", *result.FunctionError)
	}
	return nil
}

// Local runs each job in its own goroutine.
type Local struct {
	run    func(ctx context.Context, job domain.Job)
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewLocal returns a dispatcher calling run for every job.
func NewLocal(run func(ctx context.Context, job domain.Job), logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{run: run, logger: logger}
}

// Dispatch starts the job. The job outlives ctx, which usually belongs to
// the request that produced it.
func (l *Local) Dispatch(ctx context.Context, job domain.Job) error {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				l.logger.Error("job panicked", "user", job.UserID, "panic", r)
			}
		}()
		l.run(context.WithoutCancel(ctx), job)
	}()
	return nil
}

// Wait blocks until every dispatched job has finished.
func (l *Local) Wait() {
	l.wg.Wait()
}
