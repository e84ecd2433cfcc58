package services

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/utils"
)

// ProductChanges turns a partial update into a $set document. Any change
// other than stock sends the listing back to review.
func ProductChanges(req models.ProductUpdateRequest) (bson.M, bool) {
	set := bson.M{}
	review := false
	text := func(field string, v *string) {
		if v != nil {
			set[field] = utils.SanitizeInput(*v)
			review = true
		}
	}
	text("name", req.Name)
	text("description", req.Description)
	text("category", req.Category)
	text("unit", req.Unit)
	if req.Price != nil {
		set["price"] = utils.Round2(*req.Price)
		review = true
	}
	if req.IsSeasonal != nil {
		set["isSeasonal"] = *req.IsSeasonal
		review = true
	}
	if req.HarvestDate != nil {
		set["harvestDate"] = *req.HarvestDate
		review = true
	}
	if req.Stock != nil {
		set["stock"] = *req.Stock
	}
	if review {
		set["approvalStatus"] = models.ApprovalPending
	}
	return set, review
}

// NewProduct builds a pending listing from a create request.
func NewProduct(req models.ProductRequest, seller *models.Seller) *models.Product {
	return &models.Product{
		SellerID:       seller.ID,
		Name:           utils.SanitizeInput(req.Name),
		Description:    utils.SanitizeInput(req.Description),
		Category:       utils.SanitizeInput(req.Category),
		Unit:           utils.SanitizeInput(req.Unit),
		Price:          utils.Round2(req.Price),
		Stock:          req.Stock,
		ApprovalStatus: models.ApprovalPending,
		IsSeasonal:     req.IsSeasonal,
		HarvestDate:    req.HarvestDate,
	}
}
