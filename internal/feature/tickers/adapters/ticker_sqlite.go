// Package adapters はtickersフィーチャーの検索インデックス実装を提供します。
package adapters

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"market_dashboard/internal/feature/tickers/domain/entity"
	"market_dashboard/internal/feature/tickers/usecase"
)

// tickerIndex はTickerIndexインターフェースのSQLite（インメモリ）実装です。
// 内容はプロセスの寿命の間だけ保持され、スナップショットごとに置き換えられます。
type tickerIndex struct {
	db *gorm.DB
}

var _ usecase.TickerIndex = (*tickerIndex)(nil)

// NewTickerIndex は指定されたDB接続でtickerIndexの新しいインスタンスを生成します。
func NewTickerIndex(db *gorm.DB) *tickerIndex {
	return &tickerIndex{db: db}
}

// TickerModel は検索インデックスの1行です。
type TickerModel struct {
	ID          uint   `gorm:"primaryKey"`
	Symbol      string `gorm:"size:20;not null;uniqueIndex"`
	Name        string `gorm:"size:255;not null;default:''"`
	SymbolLower string `gorm:"size:20;not null;index"`
	NameLower   string `gorm:"size:255;not null;default:''"`
}

// TableName はテーブル名を返します。
func (TickerModel) TableName() string {
	return "tickers"
}

// Replace はインデックスの内容を tickers で置き換えます。
func (r *tickerIndex) Replace(ctx context.Context, tickers []entity.Ticker) error {
	ms := make([]TickerModel, 0, len(tickers))
	for _, t := range tickers {
		ms = append(ms, TickerModel{
			Symbol:      t.Symbol,
			Name:        t.Name,
			SymbolLower: strings.ToLower(t.Symbol),
			NameLower:   strings.ToLower(t.Name),
		})
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&TickerModel{}).Error; err != nil {
			return err
		}
		if len(ms) == 0 {
			return nil
		}
		return tx.CreateInBatches(&ms, 200).Error
	})
}

// Search はシンボルの前方一致または社名の部分一致（大文字小文字を区別しない）で検索し、
// シンボル順に最大 limit 件を返します。
func (r *tickerIndex) Search(ctx context.Context, query string, limit int) ([]entity.Ticker, error) {
	q := escapeLike(strings.ToLower(strings.TrimSpace(query)))

	var rows []TickerModel
	tx := r.db.WithContext(ctx).
		Where(`symbol_lower LIKE ? ESCAPE '\' OR name_lower LIKE ? ESCAPE '\'`, q+"%", "%"+q+"%").
		Order("symbol ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]entity.Ticker, 0, len(rows))
	for _, m := range rows {
		out = append(out, entity.Ticker{Symbol: m.Symbol, Name: m.Name})
	}
	return out, nil
}

// escapeLike はLIKEパターンで特別な意味を持つ文字をエスケープします。
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
