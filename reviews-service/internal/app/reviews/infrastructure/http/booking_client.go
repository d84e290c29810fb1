package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// ErrBookingNotFound - у покупателя нет бронирования на это событие
var ErrBookingNotFound = errors.New("booking not found")

// BookingClient клиент для Booking Service.
// Проверяет, что покупатель был на событии артиста и событие завершено
type BookingClient struct {
	baseURL    string
	httpClient *http.Client
	authToken  string // сервисный токен для Booking Service
}

type eligibilityResponse struct {
	Eligible bool `json:"eligible"`
}

// NewBookingClient создает новый клиент для Booking Service
func NewBookingClient(baseURL string, timeout time.Duration) *BookingClient {
	return &BookingClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetAuthToken устанавливает токен для аутентификации
func (c *BookingClient) SetAuthToken(token string) {
	c.authToken = token
}

// IsCustomerEligibleAndEventDone возвращает ErrBookingNotFound на 404
func (c *BookingClient) IsCustomerEligibleAndEventDone(ctx context.Context, customerID, artistID, eventID uuid.UUID) (bool, error) {
	query := url.Values{}
	query.Set("customer_id", customerID.String())
	query.Set("artist_id", artistID.String())
	query.Set("event_id", eventID.String())

	endpoint := fmt.Sprintf("%s/bookings/eligibility?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, ErrBookingNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body eligibilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	return body.Eligible, nil
}
