package handlers

import "github.com/labstack/echo/v4"

// InitiatePaymentRequest is the body of the authenticated initiation call.
// The caller email deliberately has no field here; it comes from the token.
type InitiatePaymentRequest struct {
	OrderID string `json:"order_id"`
}

type InitiatePaymentResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
	IsExisting  bool   `json:"is_existing"`
}

type OrderStatusResponse struct {
	Status string `json:"status"`
}

// getStringFromContext safely extracts a string value set by middleware
func getStringFromContext(c echo.Context, key string) string {
	if val := c.Get(key); val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}
