package retry

import (
	"net/http"
	"time"
)

const (
	DefaultMaxAttempts     = 3
	DefaultDelay           = 2000 * time.Millisecond
	DefaultRetryableStatus = http.StatusServiceUnavailable
)

// Policy は、リトライの判断と待機時間を決めるインターフェースです
type Policy interface {
	// MaxAttempts は、初回を含む最大試行回数を返します
	MaxAttempts() int
	// ShouldRetry は、ステータスコードがリトライ対象かどうかを返します
	ShouldRetry(status int) bool
	// Delay は、attempt回目（1始まり）の失敗後に待つ時間を返します
	Delay(attempt int) time.Duration
}

// FixedPolicy は、1つのステータスのみを固定間隔でリトライするPolicyです
// ジッターや指数バックオフは行いません
type FixedPolicy struct {
	Attempts int
	Wait     time.Duration
	Status   int
}

// DefaultPolicy は、503を2秒間隔で最大3回試行するPolicyを返します
func DefaultPolicy() FixedPolicy {
	return FixedPolicy{
		Attempts: DefaultMaxAttempts,
		Wait:     DefaultDelay,
		Status:   DefaultRetryableStatus,
	}
}

func (p FixedPolicy) MaxAttempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

func (p FixedPolicy) ShouldRetry(status int) bool {
	return status == p.Status
}

func (p FixedPolicy) Delay(int) time.Duration {
	return p.Wait
}
