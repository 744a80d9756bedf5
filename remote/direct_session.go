// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DirectSession is an authenticated chat service session. It wraps a
// Client with credentials for making authenticated API calls.
// DirectSessions are lightweight and safe to create in large numbers.
type DirectSession struct {
	client    *Client
	userID    string
	authToken string
}

// UserID returns the authenticated user's ID.
func (s *DirectSession) UserID() string {
	return s.userID
}

// AuthToken returns the session's auth token, for persisting to the
// saved session file.
func (s *DirectSession) AuthToken() string {
	return s.authToken
}

// Close releases session resources. The chat service's tokens are
// stateless on the client side, so this is a no-op kept for the
// Session contract.
func (s *DirectSession) Close() error {
	return nil
}

// PublicSettings pulls public settings from the server. A nil since
// requests the full set; otherwise a delta pull with the watermark as
// the since query parameter.
//
// The server answers a full pull with a bare JSON array and a delta
// pull with an {"update": [...]} envelope. Both shapes are normalized
// to one slice here so the settings engine never sees the difference.
func (s *DirectSession) PublicSettings(ctx context.Context, since *time.Time) ([]SettingRecord, error) {
	var query url.Values
	if since != nil {
		query = url.Values{}
		query.Set("since", since.UTC().Format(time.RFC3339Nano))
	}

	body, err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/settings.public", s, nil, query)
	if err != nil {
		return nil, fmt.Errorf("remote: settings pull failed: %w", err)
	}

	records, err := normalizeSettingsPayload(body)
	if err != nil {
		return nil, fmt.Errorf("remote: failed to parse settings response: %w", err)
	}
	return records, nil
}

// normalizeSettingsPayload decodes either a bare settings array or an
// update-delta envelope into one slice.
func normalizeSettingsPayload(body []byte) ([]SettingRecord, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []SettingRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var envelope struct {
		Update []SettingRecord `json:"update"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	return envelope.Update, nil
}

// EmitTyping announces the local user's typing state in a room.
func (s *DirectSession) EmitTyping(ctx context.Context, roomID string, typing bool) error {
	request := map[string]any{
		"rid":    roomID,
		"typing": typing,
	}
	_, err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/rooms.typing", s, request)
	if err != nil {
		return fmt.Errorf("remote: emit typing in %q failed: %w", roomID, err)
	}
	return nil
}

// LeaveRoom removes the user's membership in a room. When the user is
// the room's last owner, the returned error is a *ServiceError with
// ErrCodeLastOwner.
func (s *DirectSession) LeaveRoom(ctx context.Context, roomID string) error {
	_, err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/rooms.leave", s, map[string]string{"rid": roomID})
	if err != nil {
		return fmt.Errorf("remote: leave room %q failed: %w", roomID, err)
	}
	return nil
}

// EraseRoom deletes a room on the server.
func (s *DirectSession) EraseRoom(ctx context.Context, roomID string) error {
	_, err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/rooms.erase", s, map[string]string{"rid": roomID})
	if err != nil {
		return fmt.Errorf("remote: erase room %q failed: %w", roomID, err)
	}
	return nil
}

// AddUsersToRoom invites the given usernames to a room.
func (s *DirectSession) AddUsersToRoom(ctx context.Context, roomID string, usernames []string) error {
	request := map[string]any{
		"rid":   roomID,
		"users": usernames,
	}
	_, err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/rooms.invite", s, request)
	if err != nil {
		return fmt.Errorf("remote: invite to room %q failed: %w", roomID, err)
	}
	return nil
}

// Spotlight searches the user and room directories. excluded usernames
// are filtered out server-side (typically the users already selected).
func (s *DirectSession) Spotlight(ctx context.Context, query string, excluded []string, opts SpotlightOptions) (*SpotlightResult, error) {
	params := url.Values{}
	params.Set("query", query)
	if len(excluded) > 0 {
		params.Set("excluded", strings.Join(excluded, ","))
	}
	params.Set("users", strconv.FormatBool(opts.Users))
	params.Set("rooms", strconv.FormatBool(opts.Rooms))

	body, err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/spotlight", s, nil, params)
	if err != nil {
		return nil, fmt.Errorf("remote: spotlight %q failed: %w", query, err)
	}

	var result SpotlightResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("remote: failed to parse spotlight response: %w", err)
	}
	return &result, nil
}

// readMessagesTimeout bounds the background read-mark call. The call
// is fire-and-forget, so it carries its own deadline instead of a
// caller context.
const readMessagesTimeout = 10 * time.Second

// ReadMessages marks a room read. Fire-and-forget: the request runs in
// a background goroutine with its own deadline, and failures are
// logged rather than returned. Read-marking is cosmetic state — a lost
// call corrects itself on the next open.
func (s *DirectSession) ReadMessages(roomID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), readMessagesTimeout)
		defer cancel()

		_, err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/subscriptions.read", s, map[string]string{"rid": roomID})
		if err != nil {
			s.client.logger.Warn("read messages failed",
				"room_id", roomID,
				"error", err,
			)
		}
	}()
}

// roomEvents performs one room events poll. since is the position
// token from the previous response (empty anchors at the current
// position), timeout is the server-side long-poll hold in
// milliseconds (zero returns immediately).
func (s *DirectSession) roomEvents(ctx context.Context, roomID, since string, timeout int) (*roomEventsResponse, error) {
	query := url.Values{}
	query.Set("rid", roomID)
	if since != "" {
		query.Set("since", since)
	}
	query.Set("timeout", strconv.Itoa(timeout))

	body, err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/rooms.events", s, nil, query)
	if err != nil {
		return nil, fmt.Errorf("remote: room events for %q failed: %w", roomID, err)
	}

	var response roomEventsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("remote: failed to parse room events response: %w", err)
	}
	return &response, nil
}
