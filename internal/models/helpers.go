package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

func GenerateMatchID() string {
	return fmt.Sprintf("match_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateTransactionID() string {
	return fmt.Sprintf("tx_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateSessionID() string {
	return uuid.New().String()
}

func FormatAmount(rupees int64) string {
	return fmt.Sprintf("₹%d", rupees)
}

// WhatsAppURL builds a wa.me contact link for a registered phone number.
// Numbers without a country prefix are treated as Indian.
func WhatsAppURL(phoneNumber string) string {
	formatted := phoneNumber
	if !strings.HasPrefix(formatted, "+") {
		formatted = "+91" + formatted
	}
	return "https://wa.me/" + formatted
}
