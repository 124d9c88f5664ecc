// Package api はHTTPレスポンスの共通型とエラーの変換を提供します。
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"market_dashboard/internal/domain/marketdata"
)

// エラーコード。クライアントはメッセージではなくコードで分岐します。
const (
	CodeBadRequest          = "bad_request"
	CodeInvalidRange        = "invalid_range"
	CodeInvalidWindow       = "invalid_window"
	CodeTickerNotListed     = "ticker_not_listed"
	CodeUnknownSymbol       = "unknown_symbol"
	CodeSourceUnavailable   = "source_unavailable"
	CodeSourceFormatChanged = "source_format_changed"
	CodeTimeout             = "timeout"
	CodeInternal            = "internal"
)

// ErrorResponse はエラー時のレスポンスボディです。
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// StatusFor はエラーをHTTPステータスとエラーコードに変換します。
// ErrUnknownSymbol は ErrSourceUnavailable を包むため、先に判定します。
// 期限切れは取得元のエラーとして包まれていても504を返します。
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout
	case errors.Is(err, marketdata.ErrInvalidRange):
		return http.StatusBadRequest, CodeInvalidRange
	case errors.Is(err, marketdata.ErrInvalidWindow):
		return http.StatusBadRequest, CodeInvalidWindow
	case errors.Is(err, marketdata.ErrTickerNotListed):
		return http.StatusNotFound, CodeTickerNotListed
	case errors.Is(err, marketdata.ErrUnknownSymbol):
		return http.StatusNotFound, CodeUnknownSymbol
	case errors.Is(err, marketdata.ErrSourceFormatChanged):
		return http.StatusBadGateway, CodeSourceFormatChanged
	case errors.Is(err, marketdata.ErrSourceUnavailable):
		return http.StatusBadGateway, CodeSourceUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// WriteError はエラーを対応するステータスのJSONレスポンスとして書き込み、処理を中断します。
func WriteError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "code", code, "error", err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// WriteBadRequest はリクエストパラメータの誤りを400として書き込みます。
func WriteBadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: CodeBadRequest})
}
