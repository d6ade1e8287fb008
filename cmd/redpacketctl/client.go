package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	httptransport "redpacket/contexts/escrow/red-packet-service/transport/http"
)

// Client calls the red packet HTTP API.
type Client struct {
	baseURL string
	user    string
	http    *http.Client
}

// APIError is a non-2xx answer decoded from the API error body.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func NewClient(baseURL string, user string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		user:    user,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) CreatePacket(
	ctx context.Context,
	req httptransport.CreatePacketRequest,
	idempotencyKey string,
) (httptransport.CreatePacketResponse, error) {
	var resp httptransport.CreatePacketResponse
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}
	err := c.do(ctx, http.MethodPost, "/v1/red-packets", req, headers, &resp)
	return resp, err
}

func (c *Client) ClaimPacket(ctx context.Context, packetID uint64) (httptransport.ClaimPacketResponse, error) {
	var resp httptransport.ClaimPacketResponse
	err := c.do(ctx, http.MethodPost, packetPath(packetID, "claim"), nil, nil, &resp)
	return resp, err
}

func (c *Client) GetPacket(ctx context.Context, packetID uint64) (httptransport.GetPacketResponse, error) {
	var resp httptransport.GetPacketResponse
	err := c.do(ctx, http.MethodGet, packetPath(packetID, ""), nil, nil, &resp)
	return resp, err
}

func (c *Client) HasClaimed(ctx context.Context, packetID uint64, identity string) (httptransport.HasClaimedResponse, error) {
	var resp httptransport.HasClaimedResponse
	err := c.do(ctx, http.MethodGet, packetPath(packetID, "claims/"+url.PathEscape(identity)), nil, nil, &resp)
	return resp, err
}

func (c *Client) ShareAmounts(ctx context.Context, packetID uint64) (httptransport.ShareAmountsResponse, error) {
	var resp httptransport.ShareAmountsResponse
	err := c.do(ctx, http.MethodGet, packetPath(packetID, "shares"), nil, nil, &resp)
	return resp, err
}

func (c *Client) ListPackets(ctx context.Context, cursor string, limit int) (httptransport.ListPacketsResponse, error) {
	query := url.Values{}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	path := "/v1/red-packets"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var resp httptransport.ListPacketsResponse
	err := c.do(ctx, http.MethodGet, path, nil, nil, &resp)
	return resp, err
}

func (c *Client) PacketCount(ctx context.Context) (httptransport.PacketCountResponse, error) {
	var resp httptransport.PacketCountResponse
	err := c.do(ctx, http.MethodGet, "/v1/red-packets/count", nil, nil, &resp)
	return resp, err
}

func (c *Client) Activity(ctx context.Context, packetID uint64) (httptransport.PacketActivityResponse, error) {
	var resp httptransport.PacketActivityResponse
	err := c.do(ctx, http.MethodGet, packetPath(packetID, "activity"), nil, nil, &resp)
	return resp, err
}

func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body any,
	headers map[string]string,
	out any,
) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" {
		req.Header.Set("X-User-Id", c.user)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr httptransport.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			return &APIError{Status: resp.StatusCode, Code: "unknown", Message: resp.Status}
		}
		return &APIError{Status: resp.StatusCode, Code: apiErr.Code, Message: apiErr.Message}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func packetPath(packetID uint64, suffix string) string {
	path := "/v1/red-packets/" + strconv.FormatUint(packetID, 10)
	if suffix != "" {
		path += "/" + suffix
	}
	return path
}
