package services

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
)

// SMSService delivers one-time codes through the Twilio REST API. When the
// credentials are not configured the send becomes a logged no-op, which
// keeps local development and tests working without an account.
type SMSService struct {
	accountSID  string
	authToken   string
	fromNumber  string
	countryCode string
	client      *http.Client
}

// NewSMSService creates a new SMSService.
func NewSMSService(accountSID, authToken, fromNumber, countryCode string) *SMSService {
	return &SMSService{
		accountSID:  accountSID,
		authToken:   authToken,
		fromNumber:  fromNumber,
		countryCode: countryCode,
		client:      http.DefaultClient,
	}
}

// Enabled reports whether delivery credentials are configured.
func (s *SMSService) Enabled() bool {
	return s.accountSID != "" && s.authToken != "" && s.fromNumber != ""
}

type twilioMessageResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// SendOTP sends the login code to a 10-digit national phone number.
func (s *SMSService) SendOTP(phone, code string) error {
	if !s.Enabled() {
		log.Printf("[SMS] delivery skipped for %s (Twilio not configured)", phone)
		return nil
	}

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", s.accountSID)

	form := url.Values{}
	form.Set("To", s.countryCode+phone)
	form.Set("From", s.fromNumber)
	form.Set("Body", fmt.Sprintf("Your Farmstellar login code is %s. It expires in 5 minutes.", code))

	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[SMS] failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var tr twilioMessageResponse
		body, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(body, &tr); err == nil && tr.ErrorMessage != "" {
			log.Printf("[SMS] twilio rejected message: %s", tr.ErrorMessage)
		}
		return fmt.Errorf("twilio returned status %d", resp.StatusCode)
	}

	return nil
}
