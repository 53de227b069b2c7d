package registration

import (
	"fmt"
	"time"
)

// DeliveryPolicy decides what a failed code delivery does to the workflow.
type DeliveryPolicy string

const (
	// PolicyLenient logs the send failure and still moves to code entry.
	PolicyLenient DeliveryPolicy = "lenient"
	// PolicyStrict returns the send failure to the caller and discards the new code.
	PolicyStrict DeliveryPolicy = "strict"
)

func ParseDeliveryPolicy(s string) (DeliveryPolicy, error) {
	switch DeliveryPolicy(s) {
	case "", PolicyLenient:
		return PolicyLenient, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown delivery policy %q (want lenient or strict)", s)
	}
}

// Notification is everything a relay template needs to render the code email.
type Notification struct {
	To        string
	UserName  string
	Company   string
	Code      string
	ExpiresIn time.Duration
}

// Sender identifies who the code email comes from.
type Sender struct {
	Name    string
	ReplyTo string
}

// DefaultSender matches the label the portal has always used.
var DefaultSender = Sender{Name: "Admin Registration System", ReplyTo: "noreply@yourapp.com"}

// Subject embeds the code so it is visible in the inbox list.
func (n Notification) Subject() string {
	return "Your Admin Verification Code: " + n.Code
}

// ExpiresInMinutes rounds the validity window for display.
func (n Notification) ExpiresInMinutes() int {
	m := int(n.ExpiresIn.Round(time.Minute) / time.Minute)
	if m <= 0 {
		return int(DefaultCodeTTL / time.Minute)
	}
	return m
}

// TemplateParams is the relay parameter set. The code is repeated under
// several keys because existing relay templates reference different names.
func TemplateParams(n Notification, from Sender) map[string]string {
	return map[string]string{
		"to_email":          n.To,
		"user_name":         n.UserName,
		"company":           n.Company,
		"verification_code": n.Code,
		"code":              n.Code,
		"message":           n.Code,
		"subject":           n.Subject(),
		"from_name":         from.Name,
		"reply_to":          from.ReplyTo,
		"expires_in":        fmt.Sprintf("%d minutes", n.ExpiresInMinutes()),
	}
}
