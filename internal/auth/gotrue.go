package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tandaclean/site/internal/domain"
)

// HTTPVerifier validates access tokens against the auth platform's
// user endpoint. The platform owns accounts and sessions; this service
// only ever reads the identity back.
type HTTPVerifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPVerifier creates a verifier for the platform at baseURL.
func NewHTTPVerifier(baseURL, apiKey string) *HTTPVerifier {
	return &HTTPVerifier{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify resolves the access token into an identity, or returns an
// unauthorized error when the platform rejects it.
func (v *HTTPVerifier) Verify(ctx context.Context, accessToken string) (*Identity, error) {
	const op = "auth.verify"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to contact the auth service.")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("apikey", v.apiKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to contact the auth service.")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, domain.Unauthorized(op, "Invalid or expired session.")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.Internal(fmt.Errorf("auth service returned status %d", resp.StatusCode), op,
			"Failed to contact the auth service.")
	}

	var body struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, domain.Internal(err, op, "Failed to read the auth service response.")
	}

	userID, err := uuid.Parse(body.ID)
	if err != nil {
		return nil, domain.Unauthorized(op, "Invalid or expired session.")
	}
	return &Identity{UserID: userID, Email: body.Email}, nil
}
