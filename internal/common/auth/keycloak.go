// internal/common/auth/keycloak.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"talent-intake/internal/common/errors"
	commonhttp "talent-intake/internal/common/http"
)

// KeycloakClient signs recruiters in and out against a Keycloak realm.
type KeycloakClient struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	httpClient   *commonhttp.Client
}

// TokenResponse holds the response from Keycloak's token endpoint.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
	RefreshToken     string `json:"refresh_token"`
	Scope            string `json:"scope"`
}

// TokenInfo holds the fields of the introspection response the service reads.
type TokenInfo struct {
	Active    bool   `json:"active"`
	Scope     string `json:"scope,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
	Iat       int64  `json:"iat,omitempty"`
	Sub       string `json:"sub,omitempty"` // user id
}

// NewKeycloakClient creates a new instance of KeycloakClient.
func NewKeycloakClient(baseURL, realm, clientID, clientSecret string) *KeycloakClient {
	return &KeycloakClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   commonhttp.NewClient(30 * time.Second),
	}
}

func (k *KeycloakClient) endpoint(path string) string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/%s", k.baseURL, k.realm, path)
}

func (k *KeycloakClient) clientForm() url.Values {
	data := url.Values{}
	data.Set("client_id", k.clientID)
	if k.clientSecret != "" {
		data.Set("client_secret", k.clientSecret)
	}
	return data
}

// PasswordGrant exchanges e-mail and password for tokens. Bad credentials are a non-retryable
// authentication error; 5xx answers are retryable.
func (k *KeycloakClient) PasswordGrant(ctx context.Context, email, password string) (*TokenResponse, error) {
	data := k.clientForm()
	data.Set("grant_type", "password")
	data.Set("username", email)
	data.Set("password", password)
	data.Set("scope", "openid email")

	resp, err := k.httpClient.PostForm(ctx, k.endpoint("token"), data)
	if err != nil {
		return nil, &errors.StandardError{
			Code:      errors.ErrCodeExternalService,
			Message:   "Failed to reach identity provider",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest:
		return nil, errors.NewAuthenticationError("invalid email or password")
	default:
		return nil, &errors.StandardError{
			Code:      errors.ErrCodeExternalService,
			Message:   "Keycloak token request failed",
			Details:   fmt.Sprintf("Status: %d, Body: %s", resp.StatusCode, commonhttp.ReadBody(resp, 4096)),
			Retryable: commonhttp.IsTransientStatus(resp.StatusCode),
			Timestamp: time.Now().UTC(),
		}
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, &errors.StandardError{
			Code:      "DESERIALIZATION_ERROR",
			Message:   "Failed to decode token response",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}
	return &tokenResp, nil
}

// Logout revokes a refresh token.
func (k *KeycloakClient) Logout(ctx context.Context, refreshToken string) error {
	data := k.clientForm()
	data.Set("refresh_token", refreshToken)

	resp, err := k.httpClient.PostForm(ctx, k.endpoint("logout"), data)
	if err != nil {
		return &errors.StandardError{
			Code:      "NETWORK_ERROR",
			Message:   "Failed to execute logout request",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
		}
	}
	defer resp.Body.Close()

	// 204 on success
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return &errors.StandardError{
			Code:      "KEYCLOAK_LOGOUT_FAILED",
			Message:   "Keycloak logout failed",
			Details:   fmt.Sprintf("Status: %d, Body: %s", resp.StatusCode, commonhttp.ReadBody(resp, 4096)),
			Retryable: commonhttp.IsTransientStatus(resp.StatusCode),
			Timestamp: time.Now().UTC(),
		}
	}
	return nil
}

// ValidateToken introspects an access token and fails unless it is active.
func (k *KeycloakClient) ValidateToken(ctx context.Context, token string) (*TokenInfo, error) {
	data := k.clientForm()
	data.Set("token", token)
	data.Set("token_type_hint", "access_token")

	resp, err := k.httpClient.PostForm(ctx, k.endpoint("token/introspect"), data)
	if err != nil {
		return nil, &errors.StandardError{
			Code:      "NETWORK_ERROR",
			Message:   "Failed to send introspection request",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &errors.StandardError{
			Code:      errors.ErrCodeExternalService,
			Message:   "Keycloak introspection failed",
			Details:   fmt.Sprintf("Status: %d", resp.StatusCode),
			Retryable: commonhttp.IsTransientStatus(resp.StatusCode),
			Timestamp: time.Now().UTC(),
		}
	}

	var tokenInfo TokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&tokenInfo); err != nil {
		return nil, &errors.StandardError{
			Code:      "DESERIALIZATION_ERROR",
			Message:   "Failed to decode token introspection response",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	if !tokenInfo.Active {
		return nil, errors.NewAuthenticationError("token is expired, revoked or malformed")
	}
	return &tokenInfo, nil
}
