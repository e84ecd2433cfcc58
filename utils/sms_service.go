package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// SMSService sends OTP messages through an HTTP bulk SMS gateway
type SMSService struct {
	Username string
	Password string
	SenderID string
	APIPath  string
	Client   *http.Client
}

// SMSResponse represents the gateway reply
type SMSResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		MessageID string `json:"message_id"`
	} `json:"data"`
}

// NewSMSService reads the gateway settings from SMS_* variables. It returns
// nil when no gateway is configured.
func NewSMSService() *SMSService {
	apiPath := os.Getenv("SMS_API_URL")
	if apiPath == "" {
		return nil
	}
	return &SMSService{
		Username: os.Getenv("SMS_USERNAME"),
		Password: os.Getenv("SMS_PASSWORD"),
		SenderID: os.Getenv("SMS_SENDER_ID"),
		APIPath:  apiPath,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Send delivers message to phoneNumber.
func (s *SMSService) Send(phoneNumber, message string) error {
	if !strings.HasPrefix(phoneNumber, "+") {
		phoneNumber = "+" + phoneNumber
	}

	params := url.Values{}
	params.Set("username", s.Username)
	params.Set("password", s.Password)
	params.Set("senderid", s.SenderID)
	params.Set("destination", phoneNumber)
	params.Set("message", message)

	req, err := http.NewRequest(http.MethodPost, s.APIPath+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("User-Agent", "Agrimarket-OTP-Service/1.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SMS API returned status %d: %s", resp.StatusCode, string(body))
	}

	var smsResp SMSResponse
	if err := json.Unmarshal(body, &smsResp); err != nil {
		// some gateways answer with plain text on success
		log.Printf("SMS sent to %s (non-JSON response)", phoneNumber)
		return nil
	}
	if smsResp.Status == "success" || smsResp.Status == "sent" {
		log.Printf("SMS sent to %s, message id %s", phoneNumber, smsResp.Data.MessageID)
		return nil
	}
	return fmt.Errorf("SMS sending failed: %s", smsResp.Message)
}

// SendOTP sends a verification code with the standard wording.
func (s *SMSService) SendOTP(phoneNumber, otp string) error {
	return s.Send(phoneNumber, fmt.Sprintf("Your Agrimarket verification code is: %s. This code will expire in 10 minutes.", otp))
}
