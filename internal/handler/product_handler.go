package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/product"
)

// ProductServiceInterface は商品ハンドラーが必要とするサービスインターフェース。
type ProductServiceInterface interface {
	// Create は商品を作成する。
	Create(ctx context.Context, userID string, input product.Input) (*model.Product, error)
	// Get は商品を取得する。
	Get(ctx context.Context, productID string) (*model.Product, error)
	// Update は商品を更新する。所有者のみ可能。
	Update(ctx context.Context, userID, productID string, input product.Input) (*model.Product, error)
	// Delete は商品を削除する。所有者のみ可能。
	Delete(ctx context.Context, userID, productID string) error
}

// ProductHandler は商品管理のHTTPハンドラー。
type ProductHandler struct {
	service ProductServiceInterface
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(service ProductServiceInterface) *ProductHandler {
	return &ProductHandler{service: service}
}

// productRequest は商品作成・更新リクエストのボディ。
type productRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
}

// productResponse は商品情報のAPIレスポンス。
type productResponse struct {
	ProductID   string  `json:"productId"`
	UserID      string  `json:"user"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// toProductResponse はmodel.ProductをAPIレスポンスに変換する。
func toProductResponse(p *model.Product) productResponse {
	return productResponse{
		ProductID:   p.ProductID,
		UserID:      p.UserID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.Image,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// validateProductRequest は商品リクエストを検証する。問題がなければnilを返す。
func validateProductRequest(req *productRequest) *model.APIError {
	if req.Title == "" {
		return model.NewValidationError("タイトルが空です")
	}
	if req.Description == "" {
		return model.NewValidationError("説明が空です")
	}
	if req.Price < 0 {
		return model.NewValidationError("価格は0以上にしてください")
	}
	if req.Image == "" {
		return model.NewValidationError("画像URLが空です")
	}
	return nil
}

// CreateProduct は商品作成を処理する。
// POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeForbidden(w)
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if apiErr := validateProductRequest(&req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	created, err := h.service.Create(r.Context(), claims.UserID, product.Input{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toProductResponse(created))
}

// GetProduct は商品詳細を取得する。
// GET /api/products/{productId}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	p, err := h.service.Get(r.Context(), productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toProductResponse(p))
}

// UpdateProduct は商品更新を処理する。所有者以外は403。
// PUT /api/products/{productId}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeForbidden(w)
		return
	}

	productID := chi.URLParam(r, "productId")

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if apiErr := validateProductRequest(&req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	updated, err := h.service.Update(r.Context(), claims.UserID, productID, product.Input{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toProductResponse(updated))
}

// DeleteProduct は商品削除を処理する。所有者以外は403。
// DELETE /api/products/{productId}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeForbidden(w)
		return
	}

	productID := chi.URLParam(r, "productId")

	if err := h.service.Delete(r.Context(), claims.UserID, productID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
