// models/auth.go

package models

import "time"

// Roles carried in tokens and used to pick the account collection.
const (
	RoleUser   = "user"
	RoleSeller = "seller"
	RoleRider  = "rider"
	RoleAdmin  = "admin"
)

// Approval states shared by sellers, riders and products.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// OTP purposes
const (
	OTPPurposeVerify = "verify_email"
	OTPPurposeReset  = "reset_password"
)

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type OTPInfo struct {
	Code      string    `json:"code" bson:"code"`
	Purpose   string    `json:"purpose" bson:"purpose"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
}

// Account holds the fields every login-capable role shares. It is inlined into
// the role documents.
type Account struct {
	Email       string    `json:"email" bson:"email"`
	Password    string    `json:"password,omitempty" bson:"password"`
	FullName    string    `json:"fullName" bson:"fullName"`
	Phone       string    `json:"phone,omitempty" bson:"phone,omitempty"`
	IsVerified  bool      `json:"isVerified" bson:"isVerified"`
	IsActive    bool      `json:"isActive" bson:"isActive"`
	OTPInfo     *OTPInfo  `json:"-" bson:"otpInfo,omitempty"`
	FCMToken    string    `json:"-" bson:"fcmToken,omitempty"`
	LastLoginAt time.Time `json:"lastLoginAt,omitempty" bson:"lastLoginAt,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// RegisterRequest is the body of every role registration. Role specific fields
// are ignored for roles that do not use them.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"fullName" validate:"required"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`

	// seller
	FarmName    string `json:"farmName"`
	FarmAddress string `json:"farmAddress"`
	Description string `json:"description"`

	// rider
	VehicleType   string `json:"vehicleType"`
	PlateNumber   string `json:"plateNumber"`
	LicenseNumber string `json:"licenseNumber"`
}

// LoginRequest model
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=user seller rider"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=user seller rider"`
	Code  string `json:"code" validate:"required,len=6"`
}

type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=user seller rider"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Role        string `json:"role" validate:"required,oneof=user seller rider"`
	Code        string `json:"code" validate:"required,len=6"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterAdminRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	FullName     string `json:"fullName" validate:"required"`
	IsSuperAdmin bool   `json:"isSuperAdmin"`
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
