package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrimarket/agrimarket_backend/middleware"
	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/repositories"
	"github.com/agrimarket/agrimarket_backend/services"
	"github.com/agrimarket/agrimarket_backend/utils"
)

const requestTimeout = 10 * time.Second

// Page wraps one page of a listing.
type Page struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int64       `json:"page"`
	Limit int64       `json:"limit"`
}

func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, models.Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

func badRequest(c echo.Context, message string) error {
	return respond(c, http.StatusBadRequest, message, nil)
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repositories.ErrConflict),
		errors.Is(err, repositories.ErrInsufficientStock),
		errors.Is(err, repositories.ErrDuplicate),
		errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrInvalidQRCode),
		errors.Is(err, repositories.ErrUnknownRole):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrRiderNotReady):
		return http.StatusForbidden
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// fail answers with the status of err. Unexpected errors are logged and
// hidden behind fallback.
func fail(c echo.Context, logger *log.Logger, err error, fallback string) error {
	status := statusFor(err)
	message := err.Error()
	switch status {
	case http.StatusNotFound:
		message = "Not found"
	case http.StatusInternalServerError, http.StatusGatewayTimeout:
		logger.Printf("%s %s: %v", c.Request().Method, c.Path(), err)
		message = fallback
	}
	return respond(c, status, message, nil)
}

var (
	errInvalidBody = errors.New("Invalid request body")
	errBadWindow   = errors.New("endDate must be after startDate")
)

// bind decodes and validates the request body. The error is meant for the
// client.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errInvalidBody
	}
	return c.Validate(req)
}

func paramID(c echo.Context, name string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.Param(name))
}

func paging(c echo.Context) (int64, int64) {
	return utils.ParsePaging(c.QueryParam("page"), c.QueryParam("limit"))
}

// actor returns the caller's id and role.
func actor(c echo.Context) (primitive.ObjectID, string, error) {
	id, err := middleware.CurrentUserID(c)
	if err != nil {
		return primitive.NilObjectID, "", err
	}
	return id, middleware.CurrentRole(c), nil
}

func unauthorized(c echo.Context) error {
	return respond(c, http.StatusUnauthorized, "Authentication required", nil)
}

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}
