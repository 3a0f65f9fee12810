package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

// pingSource marks a keep-warm ping sent by the scheduler rule.
const pingSource = "warmup"

// pingHold keeps this instance busy while its siblings start, so each
// sibling lands on a fresh instance instead of reusing this one.
const pingHold = 75 * time.Millisecond

// ping asks the instance to load its detector and wake Fanout siblings.
type ping struct {
	Source string `json:"source"`
	Fanout int    `json:"concurrency"`
}

type pingReport struct {
	Status        string `json:"status"`
	Instances     int    `json:"instances"`
	DetectorReady bool   `json:"detectorReady"`
}

// invoker is the part of the Lambda client used to wake siblings.
type invoker interface {
	Invoke(ctx context.Context, params *lambdasdk.InvokeInput, optFns ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error)
}

func parsePing(event json.RawMessage) (*ping, bool) {
	var p ping
	if err := json.Unmarshal(event, &p); err != nil || p.Source != pingSource {
		return nil, false
	}
	p.Fanout = max(p.Fanout, 0)
	return &p, true
}

// handlePing builds the language models now so the first interaction
// after a cold start answers within Discord's deadline.
func (s *service) handlePing(ctx context.Context, p *ping) (*pingReport, error) {
	s.app.Detector.Warm()

	report := &pingReport{Status: "warm", Instances: 1, DetectorReady: true}
	if p.Fanout > 0 {
		if err := wakeSiblings(ctx, s.lambda, s.functionName, p.Fanout); err != nil {
			s.logger.Warn("could not wake sibling instances", "fanout", p.Fanout, "error", err)
		} else {
			report.Instances += p.Fanout
		}
	}

	time.Sleep(pingHold)
	return report, nil
}

// wakeSiblings sends n pings asynchronously. The pings carry no fanout of
// their own.
func wakeSiblings(ctx context.Context, client invoker, functionName string, n int) error {
	payload, err := json.Marshal(ping{Source: pingSource})
	if err != nil {
		return err
	}

	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := client.Invoke(ctx, &lambdasdk.InvokeInput{
				FunctionName:   aws.String(functionName),
				InvocationType: types.InvocationTypeEvent,
				Payload:        payload,
			})
			results <- err
		}()
	}

	var errs []error
	for i := 0; i < n; i++ {
		if err := <-results; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
