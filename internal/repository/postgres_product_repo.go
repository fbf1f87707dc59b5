package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/storefront/internal/model"
)

// PostgresProductRepo はPostgreSQLを使用した商品リポジトリ。
type PostgresProductRepo struct {
	db *sql.DB
}

// NewPostgresProductRepo はPostgresProductRepoを生成する。
func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

// Create は商品を作成する。
func (r *PostgresProductRepo) Create(ctx context.Context, product *model.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, product_id, user_id, title, description, price, image, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		product.ID, product.ProductID, product.UserID, product.Title, product.Description,
		product.Price, product.Image, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// FindByProductID は公開商品IDで商品を検索する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByProductID(ctx context.Context, productID string) (*model.Product, error) {
	product := &model.Product{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, product_id, user_id, title, description, price, image, created_at, updated_at
		 FROM products WHERE product_id = $1`,
		productID,
	).Scan(&product.ID, &product.ProductID, &product.UserID, &product.Title, &product.Description,
		&product.Price, &product.Image, &product.CreatedAt, &product.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	return product, nil
}

// Update は商品のtitle/description/price/imageを更新する。
func (r *PostgresProductRepo) Update(ctx context.Context, product *model.Product) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE products
		 SET title = $1, description = $2, price = $3, image = $4, updated_at = now()
		 WHERE product_id = $5`,
		product.Title, product.Description, product.Price, product.Image, product.ProductID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// DeleteByProductID は公開商品IDで商品を削除する。
func (r *PostgresProductRepo) DeleteByProductID(ctx context.Context, productID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM products WHERE product_id = $1`,
		productID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ProductRepository = (*PostgresProductRepo)(nil)
