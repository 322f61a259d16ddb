// Package reporting fetches evaluation input from the upstream financial
// reporting service over its tRPC query endpoints.
package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"FinAudit/internal/domain/models"
	domsvc "FinAudit/internal/domain/service"
	xhttp "FinAudit/pkg/http"
	applogger "FinAudit/pkg/logger"
)

const (
	procDashboardStats = "financial.getDashboardStats"
	procMonthlyTrend   = "financial.getMonthlyTrend"
	procReceivables    = "financial.getAllAR"
	procPayables       = "financial.getAllAP"
)

var errMalformed = errors.New("malformed response")

// envelope is the tRPC response shape: {"result":{"data":{"json":...}}}.
type envelope struct {
	Result struct {
		Data struct {
			JSON json.RawMessage `json:"json"`
		} `json:"data"`
	} `json:"result"`
}

type Option func(*Client)

// WithRetry sets how many extra attempts a transient failure gets and the
// base delay, which grows linearly per attempt.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if delay > 0 {
			c.retryDelay = delay
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.l = l
		}
	}
}

// Client implements service.ReportingSource.
type Client struct {
	baseURL    string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	http       *xhttp.Client
	l          *applogger.Logger
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    10 * time.Second,
		maxRetries: 2,
		retryDelay: 500 * time.Millisecond,
		l:          applogger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = xhttp.NewClient(xhttp.WithTimeout(c.timeout))
	return c
}

// FetchInput loads the dashboard snapshot for period, the last months of
// trend, and the open receivables and payables. The four calls run concurrently.
func (c *Client) FetchInput(ctx context.Context, period string, months int) (*models.EvaluationInput, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("reporting base url is not configured")
	}

	var (
		in   models.EvaluationInput
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	calls := []struct {
		proc  string
		input interface{}
		dest  interface{}
	}{
		{procDashboardStats, map[string]string{"period": period}, &in.Snapshot},
		{procMonthlyTrend, map[string]int{"months": months}, &in.Trend},
		{procReceivables, nil, &in.Receivables},
		{procPayables, nil, &in.Payables},
	}
	for _, call := range calls {
		wg.Add(1)
		go func(proc string, input, dest interface{}) {
			defer wg.Done()
			if err := c.queryWithRetry(ctx, proc, input, dest); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(call.proc, call.input, call.dest)
	}
	wg.Wait()

	if len(errs) > 0 {
		return nil, errs[0]
	}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("reporting returned invalid data: %w", err)
	}
	return &in, nil
}

// query calls one procedure and decodes its payload into dest.
func (c *Client) query(ctx context.Context, proc string, input, dest interface{}) error {
	opts := &xhttp.RequestOptions{
		Method: http.MethodGet,
		URL:    c.baseURL + "/api/trpc/" + proc,
	}
	if input != nil {
		raw, err := json.Marshal(map[string]interface{}{"json": input})
		if err != nil {
			return fmt.Errorf("encode %s input: %w", proc, err)
		}
		opts.QueryParams = map[string][]string{"input": {string(raw)}}
	}

	var env envelope
	if err := c.http.SendAndParse(ctx, opts, &env); err != nil {
		return fmt.Errorf("%s: %w", proc, err)
	}
	if len(env.Result.Data.JSON) == 0 {
		return fmt.Errorf("%s: %w: empty result", proc, errMalformed)
	}
	if err := json.Unmarshal(env.Result.Data.JSON, dest); err != nil {
		return fmt.Errorf("%s: %w: %v", proc, errMalformed, err)
	}
	return nil
}

func (c *Client) queryWithRetry(ctx context.Context, proc string, input, dest interface{}) error {
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * c.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err = c.query(ctx, proc, input, dest)
		if err == nil {
			return nil
		}
		if errors.Is(err, errMalformed) || !xhttp.IsRetryable(err) {
			return err
		}
		c.l.Warn("reporting query failed",
			applogger.String("procedure", proc),
			applogger.Int("attempt", attempt+1),
			applogger.Error(err),
		)
	}
	return err
}

var _ domsvc.ReportingSource = (*Client)(nil)
