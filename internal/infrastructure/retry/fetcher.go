package retry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"promptcanvas/internal/domain"
	"promptcanvas/internal/infrastructure/metrics"
)

// maxErrorBody は、エラー時に保持するレスポンス本文の上限です
const maxErrorBody = 2048

// Request は、リトライ時に再送できるHTTPリクエストの内容です
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// StatusError は、成功以外のHTTPステータスを表します
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTPエラー: status %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTPエラー: status %d: %s", e.StatusCode, e.Body)
}

// SleepFunc は、ctxがキャンセルされるまでdだけ待機します
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option はFetcherの設定を変更します
type Option func(*Fetcher)

// WithHTTPClient は、送信に使うhttp.Clientを指定します
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithSleep は、待機関数を差し替えます
func WithSleep(s SleepFunc) Option {
	return func(f *Fetcher) {
		if s != nil {
			f.sleep = s
		}
	}
}

// WithLogger はロガーを指定します
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMetrics は計測先を指定します
func WithMetrics(m metrics.FetchMetrics) Option {
	return func(f *Fetcher) {
		if m != nil {
			f.metrics = m
		}
	}
}

// Fetcher は、Policyに従ってHTTP呼び出しをリトライします
type Fetcher struct {
	client  *http.Client
	policy  Policy
	sleep   SleepFunc
	logger  *slog.Logger
	metrics metrics.FetchMetrics
}

// NewFetcher は新しいFetcherを作成します
// policyがnilの場合はDefaultPolicyを使います
func NewFetcher(policy Policy, opts ...Option) *Fetcher {
	if policy == nil {
		policy = DefaultPolicy()
	}
	f := &Fetcher{
		client:  http.DefaultClient,
		policy:  policy,
		sleep:   sleepContext,
		logger:  slog.Default(),
		metrics: metrics.Noop{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Policy は現在のPolicyを返します
func (f *Fetcher) Policy() Policy {
	return f.policy
}

// Do は、リクエストを送信して成功したレスポンスを返します
// リトライ対象外のステータスはErrUpstream、上限到達はErrRetriesExhaustedになります
func (f *Fetcher) Do(ctx context.Context, req Request) (*http.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	send := func() (*http.Response, error) {
		var body io.Reader
		if req.Body != nil {
			body = bytes.NewReader(req.Body)
		}
		httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
		if err != nil {
			return nil, err
		}
		for k, vs := range req.Header {
			for _, v := range vs {
				httpReq.Header.Add(k, v)
			}
		}
		return f.client.Do(httpReq)
	}

	resp, err := f.execute(ctx, send)
	if err != nil {
		return nil, err
	}
	if isSuccess(resp.StatusCode) {
		return resp, nil
	}
	return nil, domain.Wrap(domain.ErrUpstream, statusError(resp))
}

// execute は試行ループの本体です
// 成功またはリトライ対象外のステータスではレスポンスをそのまま返します
func (f *Fetcher) execute(ctx context.Context, send func() (*http.Response, error)) (*http.Response, error) {
	attempts := f.policy.MaxAttempts()
	var last *StatusError

	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := send()
		if err != nil {
			f.metrics.ObserveAttempt("error")
			return nil, domain.Wrap(domain.ErrUpstream, err)
		}
		f.metrics.ObserveAttempt(strconv.Itoa(resp.StatusCode))

		if isSuccess(resp.StatusCode) || !f.policy.ShouldRetry(resp.StatusCode) {
			if attempt > 1 && isSuccess(resp.StatusCode) {
				f.logger.InfoContext(ctx, "リトライ後に成功しました", "attempt", attempt)
			}
			return resp, nil
		}

		last = statusError(resp)
		if attempt == attempts {
			break
		}

		delay := f.policy.Delay(attempt)
		f.logger.WarnContext(ctx, "リトライ可能なステータスを受信しました",
			"status", resp.StatusCode, "attempt", attempt, "max_attempts", attempts, "delay", delay)
		f.metrics.IncRetry()
		if err := f.sleep(ctx, delay); err != nil {
			return nil, domain.Wrap(domain.ErrUpstream, err)
		}
	}

	f.metrics.IncExhausted()
	f.logger.ErrorContext(ctx, "リトライ回数の上限に達しました", "max_attempts", attempts)
	return nil, domain.Wrap(domain.ErrRetriesExhausted, fmt.Errorf("%d回試行しました: %w", attempts, last))
}

// statusError は本文の先頭を読み取ってレスポンスを閉じます
func statusError(resp *http.Response) *StatusError {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
