package controllers

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/repositories"
	"github.com/agrimarket/agrimarket_backend/services"
	"github.com/agrimarket/agrimarket_backend/utils"
)

type PayoutController struct {
	payouts  *repositories.PayoutRepository
	accounts *repositories.AccountRepository
	alerts   services.Alerts
	logger   *log.Logger
}

func NewPayoutController(payouts *repositories.PayoutRepository, accounts *repositories.AccountRepository, alerts services.Alerts) *PayoutController {
	return &PayoutController{
		payouts:  payouts,
		accounts: accounts,
		alerts:   alerts,
		logger:   log.New(os.Stdout, "[payouts] ", log.LstdFlags),
	}
}

// SellerPayouts lists the caller's daily buckets, optionally between from and
// to (YYYY-MM-DD).
func (pc *PayoutController) SellerPayouts(c echo.Context) error {
	sellerID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	from, to := c.QueryParam("from"), c.QueryParam("to")
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(utils.DateLayout, d); err != nil {
			return badRequest(c, "Dates must be YYYY-MM-DD")
		}
	}
	page, limit := paging(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	buckets, total, err := pc.payouts.SellerBuckets(ctx, sellerID, from, to, page, limit)
	if err != nil {
		return fail(c, pc.logger, err, "Failed to list payouts")
	}
	return respond(c, http.StatusOK, "Payouts retrieved", Page{Items: buckets, Total: total, Page: page, Limit: limit})
}

func (pc *PayoutController) SellerTransactions(c echo.Context) error {
	sellerID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	page, limit := paging(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	txs, total, err := pc.payouts.SellerTransactions(ctx, sellerID, page, limit)
	if err != nil {
		return fail(c, pc.logger, err, "Failed to list transactions")
	}
	return respond(c, http.StatusOK, "Transactions retrieved", Page{Items: txs, Total: total, Page: page, Limit: limit})
}

// SellerSales returns the sales list with per product totals.
func (pc *PayoutController) SellerSales(c echo.Context) error {
	sellerID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	from, to, err := utils.ParseDateRange(c.QueryParam("from"), c.QueryParam("to"), time.Now())
	if err != nil {
		return badRequest(c, "Dates must be YYYY-MM-DD")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	entries, totals, err := pc.payouts.SellerSales(ctx, sellerID, from, to)
	if err != nil {
		return fail(c, pc.logger, err, "Failed to load sales")
	}
	var amount float64
	var quantity int
	for _, t := range totals {
		amount += t.Amount
		quantity += t.Quantity
	}
	return respond(c, http.StatusOK, "Sales retrieved", map[string]interface{}{
		"from":        from.Format(utils.DateLayout),
		"to":          to.AddDate(0, 0, -1).Format(utils.DateLayout),
		"entries":     entries,
		"products":    totals,
		"totalAmount": utils.Round2(amount),
		"totalUnits":  quantity,
	})
}

func (pc *PayoutController) RiderPayouts(c echo.Context) error {
	riderID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	page, limit := paging(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	buckets, total, err := pc.payouts.RiderBuckets(ctx, riderID, page, limit)
	if err != nil {
		return fail(c, pc.logger, err, "Failed to list payouts")
	}
	return respond(c, http.StatusOK, "Payouts retrieved", Page{Items: buckets, Total: total, Page: page, Limit: limit})
}

func (pc *PayoutController) RiderEarnings(c echo.Context) error {
	riderID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	earnings, err := pc.payouts.RiderEarnings(ctx, riderID)
	if err != nil {
		return fail(c, pc.logger, err, "Failed to load earnings")
	}
	return respond(c, http.StatusOK, "Earnings retrieved", earnings)
}

func (pc *PayoutController) AdminPayouts(c echo.Context) error {
	page, limit := paging(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	buckets, total, err := pc.payouts.AllSellerBuckets(ctx, c.QueryParam("status"), page, limit)
	if err != nil {
		return fail(c, pc.logger, err, "Failed to list payouts")
	}
	return respond(c, http.StatusOK, "Payouts retrieved", Page{Items: buckets, Total: total, Page: page, Limit: limit})
}

// PaySeller marks a pending seller bucket paid and takes it off the balance.
func (pc *PayoutController) PaySeller(c echo.Context) error {
	adminID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid payout ID")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	bucket, err := pc.payouts.MarkSellerBucketPaid(ctx, id, adminID.Hex())
	if err != nil {
		return fail(c, pc.logger, err, "Failed to mark payout paid")
	}
	if err := pc.accounts.AdjustBalance(ctx, models.RoleSeller, bucket.SellerID, -bucket.NetAmount); err != nil {
		pc.logger.Printf("Failed to debit seller %s for payout %s: %v", bucket.SellerID.Hex(), id.Hex(), err)
	}
	pc.alerts.Notify(ctx, bucket.SellerID, models.RoleSeller, models.NotificationPayout, "Payout sent",
		fmt.Sprintf("Your payout of %.2f for %s has been paid", bucket.NetAmount, bucket.Date),
		map[string]interface{}{"payoutId": id.Hex()})

	return respond(c, http.StatusOK, "Payout marked as paid", bucket)
}

func (pc *PayoutController) PayRider(c echo.Context) error {
	adminID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid payout ID")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	bucket, err := pc.payouts.MarkRiderBucketPaid(ctx, id, adminID.Hex())
	if err != nil {
		return fail(c, pc.logger, err, "Failed to mark payout paid")
	}
	if err := pc.accounts.AdjustBalance(ctx, models.RoleRider, bucket.RiderID, -bucket.Amount); err != nil {
		pc.logger.Printf("Failed to debit rider %s for payout %s: %v", bucket.RiderID.Hex(), id.Hex(), err)
	}
	pc.alerts.Notify(ctx, bucket.RiderID, models.RoleRider, models.NotificationPayout, "Payout sent",
		fmt.Sprintf("Your earnings of %.2f for %s have been paid", bucket.Amount, bucket.Date),
		map[string]interface{}{"payoutId": id.Hex()})

	return respond(c, http.StatusOK, "Rider payout marked as paid", bucket)
}

func (pc *PayoutController) AdminTransactions(c echo.Context) error {
	page, limit := paging(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	txs, total, err := pc.payouts.AdminTransactions(ctx, c.QueryParam("type"), page, limit)
	if err != nil {
		return fail(c, pc.logger, err, "Failed to list transactions")
	}
	return respond(c, http.StatusOK, "Transactions retrieved", Page{Items: txs, Total: total, Page: page, Limit: limit})
}
