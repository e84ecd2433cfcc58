package controllers

import (
	"log"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/services"
	"github.com/agrimarket/agrimarket_backend/utils"
)

type CartController struct {
	carts  *services.CartService
	logger *log.Logger
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{
		carts:  carts,
		logger: log.New(os.Stdout, "[cart] ", log.LstdFlags),
	}
}

type cartLine struct {
	models.CartItem
	LineTotal float64 `json:"lineTotal"`
}

type cartView struct {
	Items     []cartLine `json:"items"`
	ItemCount int        `json:"itemCount"`
	Total     float64    `json:"total"`
}

func viewCart(cart *models.Cart) cartView {
	view := cartView{Items: make([]cartLine, 0, len(cart.Items))}
	for _, item := range cart.Items {
		view.Items = append(view.Items, cartLine{CartItem: item, LineTotal: utils.Round2(item.LineTotal())})
		view.ItemCount += item.Quantity
	}
	view.Total = utils.Round2(cart.Total())
	return view
}

func (cc *CartController) GetCart(c echo.Context) error {
	userID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	cart, err := cc.carts.Get(ctx, userID)
	if err != nil {
		return fail(c, cc.logger, err, "Failed to load cart")
	}
	return respond(c, http.StatusOK, "Cart retrieved", viewCart(cart))
}

func (cc *CartController) AddItem(c echo.Context) error {
	userID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	var req models.AddToCartRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	cart, err := cc.carts.AddItem(ctx, userID, productID, req.Quantity)
	if err != nil {
		return fail(c, cc.logger, err, "Failed to add item")
	}
	return respond(c, http.StatusOK, "Item added to cart", viewCart(cart))
}

func (cc *CartController) UpdateItem(c echo.Context) error {
	userID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	productID, err := paramID(c, "productId")
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	var req models.UpdateCartItemRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	cart, err := cc.carts.SetQuantity(ctx, userID, productID, req.Quantity)
	if err != nil {
		return fail(c, cc.logger, err, "Failed to update item")
	}
	return respond(c, http.StatusOK, "Cart updated", viewCart(cart))
}

func (cc *CartController) RemoveItem(c echo.Context) error {
	userID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	productID, err := paramID(c, "productId")
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	cart, err := cc.carts.RemoveItem(ctx, userID, productID)
	if err != nil {
		return fail(c, cc.logger, err, "Failed to remove item")
	}
	return respond(c, http.StatusOK, "Item removed", viewCart(cart))
}

func (cc *CartController) ClearCart(c echo.Context) error {
	userID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := cc.carts.Clear(ctx, userID); err != nil {
		return fail(c, cc.logger, err, "Failed to clear cart")
	}
	return respond(c, http.StatusOK, "Cart cleared", viewCart(&models.Cart{}))
}
