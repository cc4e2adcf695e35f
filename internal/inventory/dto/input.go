package dto

import "github.com/martpos/inventory-service/internal/model"

type AdjustStockInput struct {
	TenantID       string             `json:"-"`
	ProductID      string             `json:"product_id" binding:"required"`
	LocationID     *string            `json:"location_id"`
	QuantityChange float64            `json:"quantity_change" binding:"required"`
	MovementType   model.MovementType `json:"movement_type"`
	Reason         string             `json:"reason"`
	ReferenceID    string             `json:"reference_id"`
	ReferenceType  string             `json:"reference_type"`
	UserID         string             `json:"-"`
}
