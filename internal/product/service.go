// Package product は商品管理のドメインロジックを提供する。
package product

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

// productIDAlphabet は公開商品IDの生成に使用する文字集合。
const productIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// productIDLength は公開商品IDのランダム部の長さ。
const productIDLength = 10

// Sanitizer は商品説明のサニタイズインターフェース。
// security.ContentSanitizerServiceの部分集合として定義する。
type Sanitizer interface {
	Sanitize(rawHTML string) string
}

// DBMetrics はデータベース操作のメトリクス記録インターフェース。
type DBMetrics interface {
	RecordDBOperation(operation string, success bool, duration time.Duration)
}

// Input は商品の作成・更新で受け取る入力値。
type Input struct {
	Title       string
	Description string
	Price       float64
	Image       string
}

// Service は商品管理のサービス層。
type Service struct {
	productRepo repository.ProductRepository
	sanitizer   Sanitizer
	metrics     DBMetrics
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsはnilでもよい（テスト用）。
func NewService(productRepo repository.ProductRepository, sanitizer Sanitizer, metrics DBMetrics) *Service {
	return &Service{
		productRepo: productRepo,
		sanitizer:   sanitizer,
		metrics:     metrics,
	}
}

// Create は商品を作成する。説明文は保存前にサニタイズする。
func (s *Service) Create(ctx context.Context, userID string, input Input) (*model.Product, error) {
	productID, err := generateProductID()
	if err != nil {
		return nil, fmt.Errorf("商品IDの生成に失敗しました: %w", err)
	}

	now := time.Now()
	product := &model.Product{
		ID:          uuid.New().String(),
		ProductID:   productID,
		UserID:      userID,
		Title:       input.Title,
		Description: s.sanitizer.Sanitize(input.Description),
		Price:       input.Price,
		Image:       input.Image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	start := time.Now()
	err = s.productRepo.Create(ctx, product)
	s.recordDB("CreateProduct", err == nil, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("商品の作成に失敗しました: %w", err)
	}

	slog.Info("product created",
		slog.String("product_id", product.ProductID),
		slog.String("user_id", userID),
	)

	return product, nil
}

// Get は公開商品IDで商品を取得する。見つからない場合はProductNotFoundエラーを返す。
func (s *Service) Get(ctx context.Context, productID string) (*model.Product, error) {
	start := time.Now()
	product, err := s.productRepo.FindByProductID(ctx, productID)
	s.recordDB("FindProduct", err == nil, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(productID)
	}
	return product, nil
}

// Update は商品を更新する。出品者以外による更新はNotProductOwnerエラーになる。
func (s *Service) Update(ctx context.Context, userID, productID string, input Input) (*model.Product, error) {
	product, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.UserID != userID {
		return nil, model.NewNotProductOwnerError()
	}

	product.Title = input.Title
	product.Description = s.sanitizer.Sanitize(input.Description)
	product.Price = input.Price
	product.Image = input.Image

	start := time.Now()
	err = s.productRepo.Update(ctx, product)
	s.recordDB("UpdateProduct", err == nil, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("商品の更新に失敗しました: %w", err)
	}

	return product, nil
}

// Delete は商品を削除する。出品者以外による削除はNotProductOwnerエラーになる。
func (s *Service) Delete(ctx context.Context, userID, productID string) error {
	product, err := s.Get(ctx, productID)
	if err != nil {
		return err
	}
	if product.UserID != userID {
		return model.NewNotProductOwnerError()
	}

	start := time.Now()
	err = s.productRepo.DeleteByProductID(ctx, productID)
	s.recordDB("DeleteProduct", err == nil, time.Since(start))
	if err != nil {
		return fmt.Errorf("商品の削除に失敗しました: %w", err)
	}

	slog.Info("product deleted",
		slog.String("product_id", productID),
		slog.String("user_id", userID),
	)

	return nil
}

// recordDB はメトリクスコレクターが設定されている場合のみ記録する。
func (s *Service) recordDB(operation string, success bool, duration time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordDBOperation(operation, success, duration)
	}
}

// generateProductID は "product_" + 10文字の英数字からなる公開商品IDを生成する。
func generateProductID() (string, error) {
	b := make([]byte, productIDLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = productIDAlphabet[int(b[i])%len(productIDAlphabet)]
	}
	return "product_" + string(b), nil
}
