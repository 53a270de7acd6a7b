package playfab

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"wallet-manager/internal/client/httputil"

	"github.com/pkg/errors"
)

// ErrInvalidTicket indicates the session ticket was rejected by PlayFab.
var ErrInvalidTicket = errors.New("playfab: invalid session ticket")

// Client talks to the PlayFab Server/Admin REST API. It implements both the
// identity side (session ticket authentication) and the per-user/per-title
// key-value directory the service persists its state into.
type Client struct {
	http *httputil.Client
}

// NewClient creates a PlayFab client for the given title. The secret key is
// attached to every request via the X-SecretKey header.
func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	return &Client{
		http: httputil.NewClient(
			httputil.WithBaseURL(baseURL),
			httputil.WithTimeout(timeout),
			httputil.WithDefaultHeader("X-SecretKey", secretKey),
		),
	}
}

type envelope struct {
	Code   int             `json:"code"`
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type authenticateData struct {
	UserInfo struct {
		PlayFabID string `json:"PlayFabId"`
	} `json:"UserInfo"`
}

type userDataRecord struct {
	Value string `json:"Value"`
}

type userDataResult struct {
	Data map[string]userDataRecord `json:"Data"`
}

type titleDataResult struct {
	Data map[string]string `json:"Data"`
}

// AuthenticateSessionTicket validates a client session ticket and returns
// the PlayFab user id it belongs to.
func (c *Client) AuthenticateSessionTicket(ctx context.Context, ticket string) (string, error) {
	body := map[string]interface{}{"SessionTicket": ticket}

	var data authenticateData
	if err := c.call(ctx, "/Server/AuthenticateSessionTicket", body, &data); err != nil {
		var httpErr *httputil.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 {
			return "", ErrInvalidTicket
		}
		return "", errors.Wrap(err, "authenticate session ticket")
	}
	if data.UserInfo.PlayFabID == "" {
		return "", errors.New("playfab: authentication response missing user id")
	}
	return data.UserInfo.PlayFabID, nil
}

// GetUserField reads a single read-only user data key. The second return
// value reports whether the key exists.
func (c *Client) GetUserField(ctx context.Context, userID, key string) (string, bool, error) {
	body := map[string]interface{}{
		"PlayFabId": userID,
		"Keys":      []string{key},
	}

	var data userDataResult
	if err := c.call(ctx, "/Admin/GetUserReadOnlyData", body, &data); err != nil {
		return "", false, errors.Wrapf(err, "get user field %s", key)
	}
	record, ok := data.Data[key]
	if !ok || record.Value == "" {
		return "", false, nil
	}
	return record.Value, true, nil
}

// SetUserField writes a single read-only user data key. The key is private
// to the title; game clients cannot modify it.
func (c *Client) SetUserField(ctx context.Context, userID, key, value string) error {
	body := map[string]interface{}{
		"PlayFabId":  userID,
		"Data":       map[string]string{key: value},
		"Permission": "Private",
	}

	if err := c.call(ctx, "/Admin/UpdateUserReadOnlyData", body, nil); err != nil {
		return errors.Wrapf(err, "set user field %s", key)
	}
	return nil
}

// GetTitleField reads a title-wide data key.
func (c *Client) GetTitleField(ctx context.Context, key string) (string, bool, error) {
	body := map[string]interface{}{"Keys": []string{key}}

	var data titleDataResult
	if err := c.call(ctx, "/Admin/GetTitleData", body, &data); err != nil {
		return "", false, errors.Wrapf(err, "get title field %s", key)
	}
	value, ok := data.Data[key]
	if !ok || value == "" {
		return "", false, nil
	}
	return value, true, nil
}

// SetTitleField writes a title-wide data key.
func (c *Client) SetTitleField(ctx context.Context, key, value string) error {
	body := map[string]interface{}{
		"Key":   key,
		"Value": value,
	}

	if err := c.call(ctx, "/Admin/SetTitleData", body, nil); err != nil {
		return errors.Wrapf(err, "set title field %s", key)
	}
	return nil
}

func (c *Client) call(ctx context.Context, path string, body, target interface{}) error {
	resp, err := c.http.Post(ctx, path, body)
	if err != nil {
		return err
	}

	var env envelope
	if err := c.http.ProcessJSONResponse(resp, &env); err != nil {
		return err
	}
	if env.Code != 0 && env.Code != http.StatusOK {
		return errors.Errorf("playfab call %s returned code %d (%s)", path, env.Code, env.Status)
	}
	if target == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return errors.Wrapf(err, "decode playfab response for %s", path)
	}
	return nil
}
