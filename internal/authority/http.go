package authority

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/caffeinepub/ace8win-3/internal/blob"
	"github.com/caffeinepub/ace8win-3/internal/identity"
	"github.com/caffeinepub/ace8win-3/internal/models"
)

// HTTPClient talks JSON to a remote authority. Transport details (TLS,
// timeouts, retries) are the remote side's concern; a hung call leaves the
// dependent view loading, which is accepted here.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  http.DefaultClient,
	}
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &CallError{Op: op, Err: err}
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &CallError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if caller := identity.PrincipalFrom(ctx); !caller.IsAnonymous() {
		req.Header.Set("X-Caller-Principal", caller.String())
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &CallError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case resp.StatusCode == http.StatusServiceUnavailable:
		return fmt.Errorf("%s: %w", op, ErrUnavailable)
	case resp.StatusCode >= 400:
		var remote struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&remote)
		if remote.Error == "" {
			remote.Error = resp.Status
		}
		return &CallError{Op: op, Err: fmt.Errorf("%s", remote.Error)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &CallError{Op: op, Err: fmt.Errorf("decoding response: %v", err)}
		}
	}
	return nil
}

func (c *HTTPClient) GetCallerUserProfile(ctx context.Context) (*models.UserProfile, error) {
	var out *models.UserProfile
	if err := c.do(ctx, "getCallerUserProfile", http.MethodGet, "/profile", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) SaveCallerUserProfile(ctx context.Context, profile models.UserProfile) error {
	return c.do(ctx, "saveCallerUserProfile", http.MethodPut, "/profile", profile, nil)
}

func (c *HTTPClient) RegisterUser(ctx context.Context, gameUID, gameName, phoneNumber string, refundQr []byte) error {
	body := map[string]any{
		"game_uid":     gameUID,
		"game_name":    gameName,
		"phone_number": phoneNumber,
		"refund_qr":    base64.StdEncoding.EncodeToString(refundQr),
	}
	return c.do(ctx, "registerUser", http.MethodPost, "/register", body, nil)
}

func (c *HTTPClient) GetAllMatches(ctx context.Context) ([]models.Match, error) {
	var out []models.Match
	if err := c.do(ctx, "getAllMatches", http.MethodGet, "/matches", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CreateMatch(ctx context.Context, name string, startTime time.Time, duration time.Duration, paymentAmount int64) error {
	body := map[string]any{
		"name":           name,
		"start_time":     startTime,
		"duration":       duration,
		"payment_amount": paymentAmount,
	}
	return c.do(ctx, "createMatch", http.MethodPost, "/matches", body, nil)
}

func (c *HTTPClient) GetMatchParticipants(ctx context.Context, matchID string) ([]models.PlayerInfo, error) {
	var out []models.PlayerInfo
	path := "/matches/" + url.PathEscape(matchID) + "/participants"
	if err := c.do(ctx, "getMatchParticipants", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) JoinMatch(ctx context.Context, matchID string) error {
	path := "/matches/" + url.PathEscape(matchID) + "/join"
	return c.do(ctx, "joinMatch", http.MethodPost, path, nil, nil)
}

func (c *HTTPClient) SubmitPayment(ctx context.Context, matchID string, amount int64, proof *blob.Blob) error {
	body := map[string]any{
		"match_id": matchID,
		"amount":   amount,
	}
	if u := proof.DirectURL(); u != "" {
		body["proof_url"] = u
	} else {
		data, err := proof.Bytes()
		if err != nil {
			return &CallError{Op: "submitPayment", Err: err}
		}
		body["proof_base64"] = base64.StdEncoding.EncodeToString(data)
	}
	return c.do(ctx, "submitPayment", http.MethodPost, "/payments", body, nil)
}

func (c *HTTPClient) GetPaymentStatus(ctx context.Context, user models.Principal) (models.PaymentStatus, error) {
	var out struct {
		Status models.PaymentStatus `json:"status"`
	}
	path := "/payments/" + url.PathEscape(user.String()) + "/status"
	if err := c.do(ctx, "getPaymentStatus", http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

func (c *HTTPClient) GetPayment(ctx context.Context, user models.Principal) (*models.Payment, error) {
	var out models.Payment
	path := "/payments/" + url.PathEscape(user.String())
	if err := c.do(ctx, "getPayment", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ApprovePayment(ctx context.Context, user models.Principal, matchID string) error {
	body := map[string]any{"user": user, "match_id": matchID}
	return c.do(ctx, "approvePayment", http.MethodPost, "/payments/approve", body, nil)
}

func (c *HTTPClient) RejectPayment(ctx context.Context, user models.Principal, matchID string) error {
	body := map[string]any{"user": user, "match_id": matchID}
	return c.do(ctx, "rejectPayment", http.MethodPost, "/payments/reject", body, nil)
}

func (c *HTTPClient) GetTransactionHistory(ctx context.Context, user models.Principal) ([]models.Transaction, error) {
	var out []models.Transaction
	path := "/transactions/" + url.PathEscape(user.String())
	if err := c.do(ctx, "getTransactionHistory", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetCallerUserRole(ctx context.Context) (models.UserRole, error) {
	var out struct {
		Role models.UserRole `json:"role"`
	}
	if err := c.do(ctx, "getCallerUserRole", http.MethodGet, "/role", nil, &out); err != nil {
		return models.RoleGuest, err
	}
	return out.Role, nil
}

func (c *HTTPClient) IsCallerAdmin(ctx context.Context) (bool, error) {
	var out struct {
		IsAdmin bool `json:"is_admin"`
	}
	if err := c.do(ctx, "isCallerAdmin", http.MethodGet, "/role/admin", nil, &out); err != nil {
		return false, err
	}
	return out.IsAdmin, nil
}

func (c *HTTPClient) AssignCallerUserRole(ctx context.Context, user models.Principal, role models.UserRole) error {
	body := map[string]any{"user": user, "role": role}
	return c.do(ctx, "assignCallerUserRole", http.MethodPost, "/role/assign", body, nil)
}

func (c *HTTPClient) PromoteToUser(ctx context.Context, user models.Principal) error {
	body := map[string]any{"user": user}
	return c.do(ctx, "promoteToUser", http.MethodPost, "/role/promote", body, nil)
}

func (c *HTTPClient) GetAllUserProfiles(ctx context.Context) ([]models.ProfileRecord, error) {
	var out []models.ProfileRecord
	if err := c.do(ctx, "getAllUserProfiles", http.MethodGet, "/profiles", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetUserProfile(ctx context.Context, user models.Principal) (*models.UserProfile, error) {
	var out models.UserProfile
	path := "/profiles/" + url.PathEscape(user.String())
	if err := c.do(ctx, "getUserProfile", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateUserProfile(ctx context.Context, user models.Principal, gameUID, gameName, phoneNumber string, refundQr []byte) error {
	body := map[string]any{
		"game_uid":     gameUID,
		"game_name":    gameName,
		"phone_number": phoneNumber,
		"refund_qr":    base64.StdEncoding.EncodeToString(refundQr),
	}
	path := "/profiles/" + url.PathEscape(user.String())
	return c.do(ctx, "updateUserProfile", http.MethodPut, path, body, nil)
}

func (c *HTTPClient) DeleteUser(ctx context.Context, user models.Principal) error {
	path := "/profiles/" + url.PathEscape(user.String())
	return c.do(ctx, "deleteUser", http.MethodDelete, path, nil, nil)
}

func (c *HTTPClient) IsValidPhoneNumber(ctx context.Context, phoneNumber string) (bool, error) {
	var out struct {
		Valid bool `json:"valid"`
	}
	body := map[string]any{"phone_number": phoneNumber}
	if err := c.do(ctx, "isValidPhoneNumber", http.MethodPost, "/validate/phone", body, &out); err != nil {
		return false, err
	}
	return out.Valid, nil
}

var _ Client = (*HTTPClient)(nil)
