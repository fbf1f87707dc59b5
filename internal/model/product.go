// Package model はドメインモデルを定義する。
package model

import "time"

// Product はストアに出品された商品を表す。
// ProductID はAPIで公開する商品識別子（"product_" + 10文字の英数字）。
// ID は内部用のUUID主キー。
type Product struct {
	ID          string
	ProductID   string
	UserID      string
	Title       string
	Description string
	Price       float64
	Image       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
