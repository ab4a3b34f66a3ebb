// Package probe issues single timed HTTP requests and classifies their outcomes.
package probe

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/benchcontext"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/util"
)

// FailureReason classifies why a probe did not succeed.
type FailureReason string

const (
	FailureTimeout           FailureReason = "timeout"
	FailureConnectionRefused FailureReason = "connection_refused"
	FailureNonSuccessStatus  FailureReason = "non_success_status"
	FailureTransportError    FailureReason = "other_transport_error"
)

// Outcome is the result of one probe. Created per request and never mutated
// after creation. Failures are data, not errors: a probe never aborts the run.
type Outcome struct {
	StartedAt time.Time     `json:"startedAt" yaml:"startedAt"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
	Succeeded bool          `json:"succeeded" yaml:"succeeded"`
	// Empty when the probe succeeded.
	FailureReason FailureReason `json:"failureReason,omitempty" yaml:"failureReason,omitempty"`
	// Zero when no response was received.
	StatusCode int `json:"statusCode,omitempty" yaml:"statusCode,omitempty"`
}

// Target describes one request to be probed.
type Target struct {
	URL     url.URL
	Method  string
	Timeout time.Duration
	// VerifyBody, when set, is applied to the body of a 2xx response.
	// A verification error marks the outcome as failed with reason
	// non_success_status, since the service reported a logically
	// unsuccessful result.
	VerifyBody func(body []byte) error
}

// Prober issues one timed request per call. Implementations must not retry;
// retry policy belongs to the caller.
type Prober interface {
	Probe(ctx *benchcontext.Context, target Target) Outcome
}

// Body bytes retained for verification. Anything beyond this is drained but
// not handed to VerifyBody.
const maxVerifyBodyBytes = 1 << 20

// HTTPProber probes over HTTP(S). Elapsed time is measured from request
// dispatch until the final body byte is received, or until failure.
type HTTPProber struct {
	Client Doer
	Clock  util.Clock
}

// Doer is the subset of http.Client the prober needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// New returns a prober backed by a dedicated http client, so that probe
// connection pooling is not shared with anything else in the process.
func New() *HTTPProber {
	return &HTTPProber{
		Client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		Clock: &util.DefaultClock{},
	}
}

func (p *HTTPProber) Probe(ctx *benchcontext.Context, target Target) Outcome {
	reqCtx, cancel := context.WithTimeout(ctx, target.Timeout)
	defer cancel()

	started := p.Clock.Now()
	outcome := Outcome{StartedAt: started}

	req, err := http.NewRequestWithContext(reqCtx, target.Method, target.URL.String(), nil)
	if err != nil {
		outcome.Elapsed = p.Clock.Now().Sub(started)
		outcome.FailureReason = FailureTransportError
		return outcome
	}

	res, err := p.Client.Do(req)
	if err != nil {
		outcome.Elapsed = p.Clock.Now().Sub(started)
		outcome.FailureReason = classifyTransportError(err)
		return outcome
	}
	defer res.Body.Close()

	body, readErr := consumeBody(res.Body, target.VerifyBody != nil)
	outcome.Elapsed = p.Clock.Now().Sub(started)
	outcome.StatusCode = res.StatusCode

	if readErr != nil {
		outcome.FailureReason = classifyTransportError(readErr)
		return outcome
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		outcome.FailureReason = FailureNonSuccessStatus
		return outcome
	}
	if target.VerifyBody != nil {
		if err := target.VerifyBody(body); err != nil {
			outcome.FailureReason = FailureNonSuccessStatus
			return outcome
		}
	}

	outcome.Succeeded = true
	return outcome
}

// consumeBody reads the response body to the end, so that elapsed time covers
// the full transfer. The body is retained only when verification needs it.
func consumeBody(r io.Reader, capture bool) ([]byte, error) {
	if !capture {
		_, err := io.Copy(io.Discard, r)
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(r, maxVerifyBodyBytes))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return body, err
	}
	return body, nil
}

func classifyTransportError(err error) FailureReason {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return FailureConnectionRefused
	}
	return FailureTransportError
}
