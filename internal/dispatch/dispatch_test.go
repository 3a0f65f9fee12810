package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/hororrklama-coder/DiscTransla/internal/domain"
)

type fakeInvoker struct {
	inputs []*lambda.InvokeInput
	out    *lambda.InvokeOutput
	err    error
}

func (f *fakeInvoker) Invoke(ctx context.Context, in *lambda.InvokeInput, _ ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	if f.out != nil {
		return f.out, nil
	}
	return &lambda.InvokeOutput{StatusCode: 202}, nil
}

func TestLambda_Dispatch(t *testing.T) {
	fake := &fakeInvoker{}
	d := &Lambda{client: fake, functionName: "disctransla"}

	job := domain.Job{ApplicationID: "app", InteractionToken: "tok", UserID: "u1", Text: "Hola", TargetLang: "en"}
	if err := d.Dispatch(context.Background(), job); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(fake.inputs) != 1 {
		t.Fatalf("Invoke called %d times, want 1", len(fake.inputs))
	}
	in := fake.inputs[0]
	if aws.ToString(in.FunctionName) != "disctransla" {
		t.Errorf("FunctionName = %q", aws.ToString(in.FunctionName))
	}
	if in.InvocationType != types.InvocationTypeEvent {
		t.Errorf("InvocationType = %q, want Event", in.InvocationType)
	}

	var env domain.JobEnvelope
	if err := json.Unmarshal(in.Payload, &env); err != nil {
		t.Fatal(err)
	}
	if env.Job == nil || *env.Job != job {
		t.Errorf("payload job = %+v, want %+v", env.Job, job)
	}
}

func TestLambda_DispatchErrors(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeInvoker
	}{
		{"invoke error", &fakeInvoker{err: errors.New("throttled")}},
		{"function error", &fakeInvoker{out: &lambda.InvokeOutput{FunctionError: aws.String("Unhandled")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Lambda{client: tt.fake, functionName: "fn"}
			if err := d.Dispatch(context.Background(), domain.Job{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLocal_RunsAllJobs(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[string]bool{}
	)
	d := NewLocal(func(ctx context.Context, job domain.Job) {
		mu.Lock()
		defer mu.Unlock()
		seen[job.UserID] = true
	}, nil)

	for _, id := range []string{"a", "b", "c"} {
		if err := d.Dispatch(context.Background(), domain.Job{UserID: id}); err != nil {
			t.Fatal(err)
		}
	}
	d.Wait()

	if len(seen) != 3 {
		t.Errorf("ran %d jobs, want 3", len(seen))
	}
}

func TestLocal_OutlivesRequestContext(t *testing.T) {
	var jobErr error
	d := NewLocal(func(ctx context.Context, job domain.Job) {
		jobErr = ctx.Err()
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, domain.Job{})
	cancel()
	d.Wait()

	if jobErr != nil {
		t.Errorf("job context error = %v, want nil", jobErr)
	}
}

func TestLocal_RecoversPanic(t *testing.T) {
	d := NewLocal(func(ctx context.Context, job domain.Job) {
		panic("boom")
	}, nil)

	d.Dispatch(context.Background(), domain.Job{UserID: "x"})
	d.Wait()
}
