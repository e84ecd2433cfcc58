package controllers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/repositories"
	"github.com/agrimarket/agrimarket_backend/services"
	"github.com/agrimarket/agrimarket_backend/utils"
	"github.com/agrimarket/agrimarket_backend/websocket"
)

const maxImagesPerUpload = 5

type ProductController struct {
	products  *repositories.ProductRepository
	accounts  *repositories.AccountRepository
	alerts    services.Alerts
	uploadDir string
	logger    *log.Logger
}

func NewProductController(products *repositories.ProductRepository, accounts *repositories.AccountRepository, alerts services.Alerts, uploadDir string) *ProductController {
	return &ProductController{
		products:  products,
		accounts:  accounts,
		alerts:    alerts,
		uploadDir: uploadDir,
		logger:    log.New(os.Stdout, "[products] ", log.LstdFlags),
	}
}

// CreateProduct adds a listing for an approved seller. It waits for admin
// review before it shows in the catalogue.
func (pc *ProductController) CreateProduct(c echo.Context) error {
	sellerID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	var req models.ProductRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var seller models.Seller
	if err := pc.accounts.FindByID(ctx, models.RoleSeller, sellerID, &seller); err != nil {
		return fail(c, pc.logger, err, "Failed to create product")
	}
	if seller.ApprovalStatus != models.ApprovalApproved {
		return respond(c, http.StatusForbidden, "Seller account is not approved", nil)
	}

	product := services.NewProduct(req, &seller)
	if err := pc.products.Create(ctx, product); err != nil {
		return fail(c, pc.logger, err, "Failed to create product")
	}

	pc.alerts.NotifyAdmins(ctx, models.NotificationProductReview, "Product awaiting review",
		fmt.Sprintf("%s listed %s", seller.FarmName, product.Name),
		map[string]interface{}{"productId": product.ID.Hex()})

	return respond(c, http.StatusCreated, "Product submitted for review", product)
}

func (pc *ProductController) UpdateProduct(c echo.Context) error {
	sellerID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	var req models.ProductUpdateRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	set, review := services.ProductChanges(req)
	if len(set) == 0 {
		return badRequest(c, "Nothing to update")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	product, err := pc.products.UpdateOwned(ctx, id, sellerID, set)
	if err != nil {
		return fail(c, pc.logger, err, "Failed to update product")
	}
	if review {
		pc.alerts.NotifyAdmins(ctx, models.NotificationProductReview, "Product changed",
			product.Name+" was edited and needs review", map[string]interface{}{"productId": product.ID.Hex()})
	}
	pc.alerts.Broadcast(websocket.EventProductsUpdated, map[string]string{"productId": product.ID.Hex()})

	return respond(c, http.StatusOK, "Product updated", product)
}

func (pc *ProductController) DeleteProduct(c echo.Context) error {
	sellerID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	product, err := pc.products.FindByID(ctx, id)
	if err != nil || product.SellerID != sellerID {
		return respond(c, http.StatusNotFound, "Product not found", nil)
	}
	if err := pc.products.DeleteOwned(ctx, id, sellerID); err != nil {
		return fail(c, pc.logger, err, "Failed to delete product")
	}
	for _, url := range append(product.Images, product.Thumbnails...) {
		if err := utils.RemoveUpload(pc.uploadDir, url); err != nil {
			pc.logger.Printf("Failed to remove %s: %v", url, err)
		}
	}
	pc.alerts.Broadcast(websocket.EventProductsUpdated, map[string]string{"productId": id.Hex()})

	return respond(c, http.StatusOK, "Product deleted", nil)
}

// UploadImages stores the multipart "images" files with thumbnails.
func (pc *ProductController) UploadImages(c echo.Context) error {
	sellerID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "Invalid multipart form")
	}
	files := form.File["images"]
	if len(files) == 0 {
		return badRequest(c, "No images uploaded")
	}
	if len(files) > maxImagesPerUpload {
		return badRequest(c, fmt.Sprintf("At most %d images per upload", maxImagesPerUpload))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if product, err := pc.products.FindByID(ctx, id); err != nil || product.SellerID != sellerID {
		return respond(c, http.StatusNotFound, "Product not found", nil)
	}

	var images, thumbs []string
	for _, file := range files {
		if !utils.IsValidImageFile(file) {
			return badRequest(c, "Invalid image: "+file.Filename)
		}
		src, err := file.Open()
		if err != nil {
			return badRequest(c, "Failed to read "+file.Filename)
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return badRequest(c, "Failed to read "+file.Filename)
		}
		stored, err := utils.SaveImage(pc.uploadDir, "products", file.Filename, data)
		if err != nil {
			return badRequest(c, err.Error())
		}
		images = append(images, stored.URL)
		thumbs = append(thumbs, stored.ThumbnailURL)
	}

	product, err := pc.products.AddImages(ctx, id, sellerID, images, thumbs)
	if err != nil {
		return fail(c, pc.logger, err, "Failed to save images")
	}
	return respond(c, http.StatusOK, "Images uploaded", product)
}

func (pc *ProductController) SellerProducts(c echo.Context) error {
	sellerID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	page, limit := paging(c)
	filter := models.ProductFilter{
		SellerID:       &sellerID,
		ApprovalStatus: c.QueryParam("status"),
		Query:          c.QueryParam("q"),
		Page:           page,
		Limit:          limit,
	}
	return pc.list(c, filter)
}

// Catalogue lists approved products in stock.
func (pc *ProductController) Catalogue(c echo.Context) error {
	page, limit := paging(c)
	filter := models.ProductFilter{
		Category:       c.QueryParam("category"),
		Query:          c.QueryParam("q"),
		ApprovalStatus: models.ApprovalApproved,
		InStockOnly:    true,
		Page:           page,
		Limit:          limit,
	}
	if hex := c.QueryParam("sellerId"); hex != "" {
		sellerID, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return badRequest(c, "Invalid seller ID")
		}
		filter.SellerID = &sellerID
	}
	return pc.list(c, filter)
}

func (pc *ProductController) AdminProducts(c echo.Context) error {
	page, limit := paging(c)
	return pc.list(c, models.ProductFilter{
		ApprovalStatus: c.QueryParam("status"),
		Query:          c.QueryParam("q"),
		Page:           page,
		Limit:          limit,
	})
}

func (pc *ProductController) list(c echo.Context, filter models.ProductFilter) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	products, total, err := pc.products.List(ctx, filter)
	if err != nil {
		return fail(c, pc.logger, err, "Failed to list products")
	}
	return respond(c, http.StatusOK, "Products retrieved", Page{Items: products, Total: total, Page: filter.Page, Limit: filter.Limit})
}

func (pc *ProductController) GetProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	product, err := pc.products.FindApproved(ctx, id)
	if err != nil {
		return fail(c, pc.logger, err, "Failed to load product")
	}
	return respond(c, http.StatusOK, "Product retrieved", product)
}

func (pc *ProductController) ApproveProduct(c echo.Context) error {
	return pc.review(c, models.ApprovalApproved)
}

func (pc *ProductController) RejectProduct(c echo.Context) error {
	return pc.review(c, models.ApprovalRejected)
}

func (pc *ProductController) review(c echo.Context, status string) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	var req models.ApprovalDecisionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if status == models.ApprovalRejected && req.Reason == "" {
		return badRequest(c, "A rejection reason is required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	product, err := pc.products.SetApproval(ctx, id, status, utils.SanitizeInput(req.Reason))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return respond(c, http.StatusNotFound, "Product not found", nil)
		}
		return fail(c, pc.logger, err, "Failed to review product")
	}

	message := product.Name + " is now live in the catalogue"
	if status == models.ApprovalRejected {
		message = product.Name + " was rejected: " + product.RejectionReason
	}
	pc.alerts.Notify(ctx, product.SellerID, models.RoleSeller, models.NotificationProductReview,
		"Product "+status, message, map[string]interface{}{"productId": product.ID.Hex(), "status": status})
	pc.alerts.Broadcast(websocket.EventProductsUpdated, map[string]string{"productId": product.ID.Hex()})

	return respond(c, http.StatusOK, "Product "+status, product)
}
