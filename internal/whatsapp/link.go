package whatsapp

import (
	"net/url"
	"strings"
)

// Link builds the wa.me deep link that opens WhatsApp with the message
// pre-filled. phone is the business number in bare international digits.
func Link(phone, message string) string {
	return "https://wa.me/" + phone + "?text=" + encodeComponent(message)
}

// encodeComponent percent-encodes like JavaScript's encodeURIComponent:
// spaces become %20, not '+', so WhatsApp renders the text verbatim.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
