// controllers/auth_controller.go
package controllers

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrimarket/agrimarket_backend/config"
	"github.com/agrimarket/agrimarket_backend/middleware"
	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/repositories"
	"github.com/agrimarket/agrimarket_backend/services"
	"github.com/agrimarket/agrimarket_backend/utils"
)

var errInvalidCode = errors.New("invalid or expired code")

type AuthController struct {
	accounts *repositories.AccountRepository
	issuer   *middleware.TokenIssuer
	store    services.TokenStore
	mailer   services.Mailer
	sms      *utils.SMSService
	alerts   services.Alerts
	cfg      config.AppConfig
	logger   *log.Logger
	now      func() time.Time
}

func NewAuthController(
	accounts *repositories.AccountRepository,
	issuer *middleware.TokenIssuer,
	store services.TokenStore,
	mailer services.Mailer,
	sms *utils.SMSService,
	alerts services.Alerts,
	cfg config.AppConfig,
) *AuthController {
	return &AuthController{
		accounts: accounts,
		issuer:   issuer,
		store:    store,
		mailer:   mailer,
		sms:      sms,
		alerts:   alerts,
		cfg:      cfg,
		logger:   log.New(os.Stdout, "[auth] ", log.LstdFlags),
		now:      time.Now,
	}
}

// authRecord is the part of any account document the login flow looks at.
type authRecord struct {
	ID             primitive.ObjectID `bson:"_id"`
	models.Account `bson:",inline"`
	ApprovalStatus string `bson:"approvalStatus"`
	IsSuperAdmin   bool   `bson:"isSuperAdmin"`
}

func (ac *AuthController) newOTP(purpose string) (models.OTPInfo, error) {
	code, err := utils.GenerateSecureOTP()
	if err != nil {
		return models.OTPInfo{}, err
	}
	return models.OTPInfo{Code: code, Purpose: purpose, ExpiresAt: ac.now().Add(utils.OTPTTL)}, nil
}

// sendOTP mails the code; riders with a phone also get it by SMS.
func (ac *AuthController) sendOTP(role, email, phone string, otp models.OTPInfo) {
	subject, body := services.OTPEmail(otp.Purpose, otp.Code)
	if err := ac.mailer.Send(email, subject, body); err != nil {
		ac.logger.Printf("Failed to send %s code to %s: %v", otp.Purpose, email, err)
	}
	if role == models.RoleRider && phone != "" && ac.sms != nil {
		if err := ac.sms.SendOTP(phone, otp.Code); err != nil {
			ac.logger.Printf("Failed to send SMS code: %v", err)
		}
	}
}

// checkOTP validates a code against the stored one. Attempts are counted per
// account within the hour.
func (ac *AuthController) checkOTP(ctx context.Context, key string, stored *models.OTPInfo, purpose, code string) (bool, error) {
	attempts, err := ac.store.IncrementAttempts(ctx, key, time.Hour)
	if err != nil {
		return false, err
	}
	if attempts > utils.MaxOTPAttempts {
		return true, nil
	}
	if stored == nil || stored.Purpose != purpose || ac.now().After(stored.ExpiresAt) ||
		subtle.ConstantTimeCompare([]byte(stored.Code), []byte(code)) != 1 {
		return false, errInvalidCode
	}
	return false, nil
}

// Register creates an unverified account for the role in the path.
func (ac *AuthController) Register(c echo.Context) error {
	role := c.Param("role")
	if role != models.RoleUser && role != models.RoleSeller && role != models.RoleRider {
		return badRequest(c, "Unknown role")
	}

	var req models.RegisterRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return badRequest(c, "Invalid email format")
	}
	phone, err := utils.SanitizePhone(req.Phone)
	if err != nil {
		return badRequest(c, "Invalid phone number")
	}
	if role == models.RoleSeller && req.FarmName == "" {
		return badRequest(c, "Farm name is required")
	}
	if role == models.RoleRider && phone == "" {
		return badRequest(c, "Phone number is required for riders")
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		ac.logger.Printf("Failed to hash password: %v", err)
		return respond(c, http.StatusInternalServerError, "Failed to create account", nil)
	}
	otp, err := ac.newOTP(models.OTPPurposeVerify)
	if err != nil {
		ac.logger.Printf("Failed to generate OTP: %v", err)
		return respond(c, http.StatusInternalServerError, "Failed to create account", nil)
	}

	now := ac.now()
	account := models.Account{
		Email:     email,
		Password:  hashed,
		FullName:  utils.SanitizeInput(req.FullName),
		Phone:     phone,
		IsActive:  true,
		OTPInfo:   &otp,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var doc interface{}
	switch role {
	case models.RoleUser:
		doc = &models.User{Account: account, Address: utils.SanitizeInput(req.Address)}
	case models.RoleSeller:
		doc = &models.Seller{
			Account:        account,
			FarmName:       utils.SanitizeInput(req.FarmName),
			FarmAddress:    utils.SanitizeInput(req.FarmAddress),
			Description:    utils.SanitizeInput(req.Description),
			ApprovalStatus: models.ApprovalPending,
		}
	case models.RoleRider:
		doc = &models.Rider{
			Account:        account,
			VehicleType:    utils.SanitizeInput(req.VehicleType),
			PlateNumber:    utils.SanitizeInput(req.PlateNumber),
			LicenseNumber:  utils.SanitizeInput(req.LicenseNumber),
			ApprovalStatus: models.ApprovalPending,
		}
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	id, err := ac.accounts.Create(ctx, role, doc)
	if errors.Is(err, repositories.ErrDuplicate) {
		return respond(c, http.StatusConflict, "Email already registered", nil)
	}
	if err != nil {
		return fail(c, ac.logger, err, "Failed to create account")
	}

	ac.sendOTP(role, email, phone, otp)
	if role != models.RoleUser {
		ac.alerts.NotifyAdmins(ctx, models.NotificationAccountReview,
			fmt.Sprintf("New %s registration", role),
			fmt.Sprintf("%s (%s) is waiting for approval", account.FullName, email),
			map[string]interface{}{"accountId": id.Hex(), "role": role})
	}

	return respond(c, http.StatusCreated, "Account created. Check your email for the verification code.", map[string]interface{}{
		"id":    id.Hex(),
		"email": email,
		"role":  role,
	})
}

func (ac *AuthController) VerifyEmail(c echo.Context) error {
	var req models.VerifyOTPRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return badRequest(c, "Invalid email format")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var record authRecord
	if err := ac.accounts.FindByEmail(ctx, req.Role, email, &record); err != nil {
		return fail(c, ac.logger, err, "Failed to verify email")
	}
	if record.IsVerified {
		return respond(c, http.StatusOK, "Email already verified", nil)
	}

	key := "verify:" + req.Role + ":" + email
	limited, err := ac.checkOTP(ctx, key, record.OTPInfo, models.OTPPurposeVerify, req.Code)
	if limited {
		return respond(c, http.StatusTooManyRequests, "Too many attempts. Please try again later.", nil)
	}
	if errors.Is(err, errInvalidCode) {
		return badRequest(c, "Invalid or expired verification code")
	}
	if err != nil {
		return fail(c, ac.logger, err, "Failed to verify email")
	}

	if err := ac.accounts.MarkVerified(ctx, req.Role, record.ID); err != nil {
		return fail(c, ac.logger, err, "Failed to verify email")
	}
	_ = ac.store.ResetAttempts(ctx, key)

	return respond(c, http.StatusOK, "Email verified successfully", nil)
}

func (ac *AuthController) ResendOTP(c echo.Context) error {
	var req models.ResendOTPRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return badRequest(c, "Invalid email format")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var record authRecord
	if err := ac.accounts.FindByEmail(ctx, req.Role, email, &record); err != nil {
		return fail(c, ac.logger, err, "Failed to resend code")
	}
	if record.IsVerified {
		return badRequest(c, "Email already verified")
	}

	otp, err := ac.newOTP(models.OTPPurposeVerify)
	if err == nil {
		err = ac.accounts.SetOTP(ctx, req.Role, record.ID, otp)
	}
	if err != nil {
		return fail(c, ac.logger, err, "Failed to resend code")
	}
	ac.sendOTP(req.Role, email, record.Phone, otp)

	return respond(c, http.StatusOK, "Verification code sent", nil)
}

// session answers a successful login or refresh. Riders get the tokens in
// the body, web roles get HTTP-only cookies.
func (ac *AuthController) session(c echo.Context, role string, pair *models.TokenPair, profile interface{}) error {
	data := map[string]interface{}{
		"role":            role,
		"accessExpiresAt": pair.AccessExpiresAt,
	}
	if profile != nil {
		data["user"] = profile
	}
	if role == models.RoleRider {
		data["tokens"] = pair
	} else {
		middleware.SetAuthCookies(c, pair, ac.cfg.CookieSecure)
	}
	return respond(c, http.StatusOK, "Login successful", data)
}

func (ac *AuthController) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return badRequest(c, "Invalid email format")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var record authRecord
	err = ac.accounts.FindByEmail(ctx, req.Role, email, &record)
	if errors.Is(err, repositories.ErrNotFound) {
		return respond(c, http.StatusUnauthorized, "Invalid credentials", nil)
	}
	if err != nil {
		return fail(c, ac.logger, err, "Failed to log in")
	}
	if utils.CheckPassword(req.Password, record.Password) != nil {
		return respond(c, http.StatusUnauthorized, "Invalid credentials", nil)
	}
	if !record.IsVerified {
		return respond(c, http.StatusForbidden, "Please verify your email before logging in", nil)
	}
	if !record.IsActive {
		return respond(c, http.StatusForbidden, "Account is deactivated", nil)
	}
	if req.Role != models.RoleUser && record.ApprovalStatus != models.ApprovalApproved {
		return respond(c, http.StatusForbidden, "Account is "+record.ApprovalStatus+" approval", nil)
	}

	pair, err := ac.issuer.Issue(ctx, record.ID.Hex(), record.Email, req.Role)
	if err != nil {
		return fail(c, ac.logger, err, "Failed to log in")
	}
	if err := ac.accounts.RecordLogin(ctx, req.Role, record.ID); err != nil {
		ac.logger.Printf("Failed to record login for %s: %v", record.ID.Hex(), err)
	}

	profile, _ := ac.loadProfile(ctx, req.Role, record.ID)
	return ac.session(c, req.Role, pair, profile)
}

func (ac *AuthController) AdminLogin(c echo.Context) error {
	var req models.AdminLoginRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return badRequest(c, "Invalid email format")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var admin models.Admin
	err = ac.accounts.FindByEmail(ctx, models.RoleAdmin, email, &admin)
	if errors.Is(err, repositories.ErrNotFound) {
		return respond(c, http.StatusUnauthorized, "Invalid credentials", nil)
	}
	if err != nil {
		return fail(c, ac.logger, err, "Failed to log in")
	}
	if utils.CheckPassword(req.Password, admin.Password) != nil {
		return respond(c, http.StatusUnauthorized, "Invalid credentials", nil)
	}

	pair, err := ac.issuer.Issue(ctx, admin.ID.Hex(), admin.Email, models.RoleAdmin)
	if err != nil {
		return fail(c, ac.logger, err, "Failed to log in")
	}
	if err := ac.accounts.RecordLogin(ctx, models.RoleAdmin, admin.ID); err != nil {
		ac.logger.Printf("Failed to record admin login: %v", err)
	}

	admin.Password = ""
	return ac.session(c, models.RoleAdmin, pair, admin)
}

func refreshToken(c echo.Context) string {
	if cookie, err := c.Cookie(middleware.RefreshCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	var req models.RefreshRequest
	if err := c.Bind(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

// Refresh rotates the refresh token. A refresh token can be used once.
func (ac *AuthController) Refresh(c echo.Context) error {
	token := refreshToken(c)
	if token == "" {
		return respond(c, http.StatusUnauthorized, "Missing refresh token", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	pair, claims, err := ac.issuer.Rotate(ctx, token)
	if err != nil {
		middleware.ClearAuthCookies(c, ac.cfg.CookieSecure)
		return respond(c, http.StatusUnauthorized, "Invalid or expired refresh token", nil)
	}

	if claims.Role != models.RoleAdmin {
		id, _ := primitive.ObjectIDFromHex(claims.UserID)
		var record authRecord
		if err := ac.accounts.FindByID(ctx, claims.Role, id, &record); err != nil || !record.IsActive {
			middleware.ClearAuthCookies(c, ac.cfg.CookieSecure)
			return respond(c, http.StatusUnauthorized, "Account is no longer active", nil)
		}
	}

	return ac.session(c, claims.Role, pair, nil)
}

func (ac *AuthController) Logout(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := ac.issuer.Revoke(ctx, middleware.GetClaims(c), refreshToken(c)); err != nil {
		ac.logger.Printf("Failed to revoke tokens: %v", err)
	}
	middleware.ClearAuthCookies(c, ac.cfg.CookieSecure)
	return respond(c, http.StatusOK, "Logged out", nil)
}

// ForgotPassword answers the same way whether or not the account exists.
func (ac *AuthController) ForgotPassword(c echo.Context) error {
	var req models.ResendOTPRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return badRequest(c, "Invalid email format")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var record authRecord
	err = ac.accounts.FindByEmail(ctx, req.Role, email, &record)
	if err == nil {
		otp, otpErr := ac.newOTP(models.OTPPurposeReset)
		if otpErr == nil {
			otpErr = ac.accounts.SetOTP(ctx, req.Role, record.ID, otp)
		}
		if otpErr != nil {
			return fail(c, ac.logger, otpErr, "Failed to start password reset")
		}
		ac.sendOTP(req.Role, email, record.Phone, otp)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return fail(c, ac.logger, err, "Failed to start password reset")
	}

	return respond(c, http.StatusOK, "If the account exists, a reset code has been sent", nil)
}

func (ac *AuthController) ResetPassword(c echo.Context) error {
	var req models.ResetPasswordRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return badRequest(c, "Invalid email format")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var record authRecord
	if err := ac.accounts.FindByEmail(ctx, req.Role, email, &record); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return badRequest(c, "Invalid or expired reset code")
		}
		return fail(c, ac.logger, err, "Failed to reset password")
	}

	key := "reset:" + req.Role + ":" + email
	limited, err := ac.checkOTP(ctx, key, record.OTPInfo, models.OTPPurposeReset, req.Code)
	if limited {
		return respond(c, http.StatusTooManyRequests, "Too many attempts. Please try again later.", nil)
	}
	if errors.Is(err, errInvalidCode) {
		return badRequest(c, "Invalid or expired reset code")
	}
	if err != nil {
		return fail(c, ac.logger, err, "Failed to reset password")
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err == nil {
		err = ac.accounts.UpdatePassword(ctx, req.Role, record.ID, hashed)
	}
	if err != nil {
		return fail(c, ac.logger, err, "Failed to reset password")
	}
	_ = ac.store.ResetAttempts(ctx, key)

	return respond(c, http.StatusOK, "Password updated successfully", nil)
}

// loadProfile decodes the caller's account into its role model without the
// password hash.
func (ac *AuthController) loadProfile(ctx context.Context, role string, id primitive.ObjectID) (interface{}, error) {
	switch role {
	case models.RoleUser:
		var u models.User
		err := ac.accounts.FindByID(ctx, role, id, &u)
		u.Password = ""
		return u, err
	case models.RoleSeller:
		var s models.Seller
		err := ac.accounts.FindByID(ctx, role, id, &s)
		s.Password = ""
		return s, err
	case models.RoleRider:
		var r models.Rider
		err := ac.accounts.FindByID(ctx, role, id, &r)
		r.Password = ""
		return r, err
	case models.RoleAdmin:
		var a models.Admin
		err := ac.accounts.FindByID(ctx, role, id, &a)
		a.Password = ""
		return a, err
	}
	return nil, repositories.ErrUnknownRole
}

func (ac *AuthController) Me(c echo.Context) error {
	id, role, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	profile, err := ac.loadProfile(ctx, role, id)
	if err != nil {
		return fail(c, ac.logger, err, "Failed to load profile")
	}
	return respond(c, http.StatusOK, "Profile retrieved", profile)
}

// RegisterAdmin lets a super admin create another admin.
func (ac *AuthController) RegisterAdmin(c echo.Context) error {
	id, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}

	var req models.RegisterAdminRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return badRequest(c, "Invalid email format")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var caller models.Admin
	if err := ac.accounts.FindByID(ctx, models.RoleAdmin, id, &caller); err != nil {
		return fail(c, ac.logger, err, "Failed to create admin")
	}
	if !caller.IsSuperAdmin {
		return respond(c, http.StatusForbidden, "Only a super admin can create admins", nil)
	}

	newID, err := ac.createAdmin(ctx, email, req.Password, utils.SanitizeInput(req.FullName), req.IsSuperAdmin)
	if errors.Is(err, repositories.ErrDuplicate) {
		return respond(c, http.StatusConflict, "Email already registered", nil)
	}
	if err != nil {
		return fail(c, ac.logger, err, "Failed to create admin")
	}

	return respond(c, http.StatusCreated, "Admin created", map[string]string{"id": newID.Hex(), "email": email})
}

func (ac *AuthController) createAdmin(ctx context.Context, email, password, fullName string, super bool) (primitive.ObjectID, error) {
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return primitive.NilObjectID, err
	}
	now := ac.now()
	return ac.accounts.Create(ctx, models.RoleAdmin, &models.Admin{
		Email:        email,
		Password:     hashed,
		FullName:     fullName,
		IsSuperAdmin: super,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// EnsureSuperAdmin creates the first super admin when the admins collection
// is empty.
func (ac *AuthController) EnsureSuperAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	count, err := ac.accounts.Count(ctx, models.RoleAdmin, bson.M{})
	if err != nil || count > 0 {
		return err
	}
	email, err = utils.SanitizeEmail(email)
	if err != nil {
		return err
	}
	if _, err := ac.createAdmin(ctx, email, password, "Super Admin", true); err != nil {
		return err
	}
	ac.logger.Printf("Created super admin %s", email)
	return nil
}
