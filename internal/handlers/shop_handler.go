package handlers

import (
	"errors"
	"net/http"

	"classcoins/internal/service"
)

// ShopHandler serves coin purchases
type ShopHandler struct {
	shop *service.ShopService
}

// NewShopHandler creates a new shop handler
func NewShopHandler(shop *service.ShopService) *ShopHandler {
	return &ShopHandler{shop: shop}
}

type purchaseRequest struct {
	Item  string `json:"item"`
	Price int    `json:"price"`
}

// Purchase spends coins on an item for the calling student.
func (h *ShopHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil || claims.StudentID == "" {
		respondWithError(w, http.StatusForbidden, "Only students make purchases", nil)
		return
	}

	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	txn, err := h.shop.Purchase(claims.StudentID, req.Item, req.Price)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInsufficientBalance):
			respondWithError(w, http.StatusConflict, "Not enough coins", nil)
		case errors.Is(err, service.ErrStudentNotFound):
			respondWithError(w, http.StatusNotFound, "Student not found", nil)
		default:
			respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		}
		return
	}
	respondWithJSON(w, http.StatusCreated, txn)
}
