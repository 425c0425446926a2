package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	ccxt "github.com/ccxt/ccxt/go/v4"
)

// ErrNoData 表示数据源返回成功但没有可用数据点。
var ErrNoData = errors.New("no data from provider")

// StatusError 表示HTTP数据源返回非200状态码。
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("数据源返回状态码 %d: %s", e.Code, e.URL)
}

// isRetryableHTTP 判断HTTP数据源错误是否可重试：网络错误、超时、
// 限流与服务端错误可重试，客户端错误不可。
func isRetryableHTTP(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// isRetryableExchange 判断交易所错误是否可重试。
func isRetryableExchange(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var ccxtErr *ccxt.Error
	if errors.As(err, &ccxtErr) {
		switch ccxtErr.Type {
		case ccxt.NetworkErrorErrType,
			ccxt.RequestTimeoutErrType,
			ccxt.ExchangeNotAvailableErrType,
			ccxt.RateLimitExceededErrType,
			ccxt.DDoSProtectionErrType,
			ccxt.BadResponseErrType,
			ccxt.NullResponseErrType:
			return true
		default:
			return false
		}
	}

	return false
}
