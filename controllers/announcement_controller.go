package controllers

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/repositories"
	"github.com/agrimarket/agrimarket_backend/services"
	"github.com/agrimarket/agrimarket_backend/utils"
	"github.com/agrimarket/agrimarket_backend/websocket"
)

type AnnouncementController struct {
	announcements *repositories.AnnouncementRepository
	alerts        services.Alerts
	logger        *log.Logger
	now           func() time.Time
}

func NewAnnouncementController(announcements *repositories.AnnouncementRepository, alerts services.Alerts) *AnnouncementController {
	return &AnnouncementController{
		announcements: announcements,
		alerts:        alerts,
		logger:        log.New(os.Stdout, "[announcements] ", log.LstdFlags),
		now:           time.Now,
	}
}

func checkWindow(req models.AnnouncementRequest) error {
	if !req.EndDate.After(req.StartDate) {
		return errBadWindow
	}
	return nil
}

func (ac *AnnouncementController) Create(c echo.Context) error {
	adminID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	var req models.AnnouncementRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	if err := checkWindow(req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	a := &models.SeasonalAnnouncement{
		Title:     utils.SanitizeInput(req.Title),
		Body:      utils.SanitizeInput(req.Body),
		Crops:     req.Crops,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		IsActive:  req.IsActive == nil || *req.IsActive,
		CreatedBy: adminID,
	}
	if err := ac.announcements.Create(ctx, a); err != nil {
		return fail(c, ac.logger, err, "Failed to create announcement")
	}
	ac.alerts.Broadcast(websocket.EventAnnouncementsUpdated, a)
	return respond(c, http.StatusCreated, "Announcement created", a)
}

func (ac *AnnouncementController) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid announcement ID")
	}
	var req models.AnnouncementRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	if err := checkWindow(req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	set := bson.M{
		"title":     utils.SanitizeInput(req.Title),
		"body":      utils.SanitizeInput(req.Body),
		"crops":     req.Crops,
		"startDate": req.StartDate,
		"endDate":   req.EndDate,
	}
	if req.IsActive != nil {
		set["isActive"] = *req.IsActive
	}
	a, err := ac.announcements.Update(ctx, id, set)
	if err != nil {
		return fail(c, ac.logger, err, "Failed to update announcement")
	}
	ac.alerts.Broadcast(websocket.EventAnnouncementsUpdated, a)
	return respond(c, http.StatusOK, "Announcement updated", a)
}

func (ac *AnnouncementController) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid announcement ID")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := ac.announcements.Delete(ctx, id); err != nil {
		return fail(c, ac.logger, err, "Failed to delete announcement")
	}
	ac.alerts.Broadcast(websocket.EventAnnouncementsUpdated, map[string]string{"deleted": id.Hex()})
	return respond(c, http.StatusOK, "Announcement deleted", nil)
}

func (ac *AnnouncementController) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	items, err := ac.announcements.List(ctx)
	if err != nil {
		return fail(c, ac.logger, err, "Failed to load announcements")
	}
	return respond(c, http.StatusOK, "Announcements retrieved", items)
}

// Active is public: enabled announcements running right now.
func (ac *AnnouncementController) Active(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	items, err := ac.announcements.ListActive(ctx, ac.now())
	if err != nil {
		return fail(c, ac.logger, err, "Failed to load announcements")
	}
	return respond(c, http.StatusOK, "Announcements retrieved", items)
}
