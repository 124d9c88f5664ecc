// Package handler はtickersフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"market_dashboard/internal/api"
	"market_dashboard/internal/feature/tickers/domain/entity"
	"market_dashboard/internal/feature/tickers/transport/http/dto"
	"market_dashboard/internal/feature/tickers/usecase"
)

// ContextTicker は RequireListed が解決した銘柄を保持するginコンテキストのキーです。
const ContextTicker = "ticker"

// TickerDirectory はティッカー一覧に関するユースケースのインターフェースです。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type TickerDirectory interface {
	Fetch(ctx context.Context) (entity.Snapshot, error)
	Lookup(ctx context.Context, symbol string) (entity.Ticker, error)
	Search(ctx context.Context, query string, limit int) ([]entity.Ticker, error)
}

// TickerHandler はティッカー一覧に関するHTTPリクエストを処理します。
type TickerHandler struct {
	dir TickerDirectory
}

// NewTickerHandler は新しい TickerHandler を作成します。
func NewTickerHandler(dir TickerDirectory) *TickerHandler {
	return &TickerHandler{dir: dir}
}

// List はS&P 500構成銘柄の一覧をシンボル順で返します。
// AAPLが一覧に含まれる場合は選択の初期値として default に設定します。
//
// エンドポイント例:
// GET /tickers
func (h *TickerHandler) List(c *gin.Context) {
	snap, err := h.dir.Fetch(c.Request.Context())
	if err != nil {
		api.WriteError(c, err)
		return
	}

	res := dto.TickerListResponse{
		FetchedAt: snap.FetchedAt.UTC().Format(time.RFC3339),
		Count:     len(snap.Tickers),
		Tickers:   toItems(snap.Tickers),
	}
	if _, ok := snap.Find(usecase.DefaultSymbol); ok {
		res.Default = usecase.DefaultSymbol
	}
	c.JSON(http.StatusOK, res)
}

// Search はシンボルの前方一致または社名の部分一致で銘柄を検索します。
//
// エンドポイント例:
// GET /tickers/search?q=apple&limit=20
func (h *TickerHandler) Search(c *gin.Context) {
	q := c.Query("q")
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			api.WriteBadRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	found, err := h.dir.Search(c.Request.Context(), q, limit)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TickerSearchResponse{Query: q, Tickers: toItems(found)})
}

// RequireListed は :symbol パスパラメータがディレクトリに含まれることを確認するミドルウェアです。
// 含まれない場合は404、ディレクトリを取得できない場合は502で処理を中断します。
// 解決した銘柄は ContextTicker に設定されます。
func (h *TickerHandler) RequireListed() gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := h.dir.Lookup(c.Request.Context(), c.Param("symbol"))
		if err != nil {
			api.WriteError(c, err)
			return
		}
		c.Set(ContextTicker, t)
		c.Next()
	}
}

// TickerFromContext は RequireListed が設定した銘柄を返します。
func TickerFromContext(c *gin.Context) (entity.Ticker, bool) {
	v, ok := c.Get(ContextTicker)
	if !ok {
		return entity.Ticker{}, false
	}
	t, ok := v.(entity.Ticker)
	return t, ok
}

func toItems(ts []entity.Ticker) []dto.TickerItem {
	out := make([]dto.TickerItem, 0, len(ts))
	for _, t := range ts {
		out = append(out, dto.TickerItem{Symbol: t.Symbol, Name: t.Name, Label: t.DisplayLabel()})
	}
	return out
}
