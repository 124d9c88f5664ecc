// Command tickers はS&P 500構成銘柄の一覧を表示します。
// 引数を与えるとシンボル・社名で検索します。
//
//	go run ./cmd/tickers [query]
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"market_dashboard/internal/app/config"
	"market_dashboard/internal/app/di"
	"market_dashboard/internal/feature/tickers/domain/entity"
	tickerusecase "market_dashboard/internal/feature/tickers/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	dir := di.NewDirectory(cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var tickers []entity.Ticker
	if query := strings.TrimSpace(strings.Join(os.Args[1:], " ")); query != "" {
		tickers, err = dir.Search(ctx, query, tickerusecase.MaxSearchLimit)
	} else {
		var snap entity.Snapshot
		snap, err = dir.Fetch(ctx)
		tickers = snap.Tickers
	}
	if err != nil {
		log.Fatal(err)
	}

	for _, t := range tickers {
		fmt.Println(t.DisplayLabel())
	}
	log.Printf("%d tickers", len(tickers))
}
