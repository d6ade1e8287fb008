package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httptransport "redpacket/contexts/escrow/red-packet-service/transport/http"
)

func TestClientSendsIdentityAndDecodesResponses(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/red-packets":
			if r.Header.Get("X-User-Id") != "0xabc" || r.Header.Get("Idempotency-Key") != "idem-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			var req httptransport.CreatePacketRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount != "100" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(httptransport.CreatePacketResponse{PacketID: 7, TotalAmount: req.Amount, PacketCount: 5})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/red-packets":
			_ = json.NewEncoder(w).Encode(httptransport.ListPacketsResponse{NextCursor: r.URL.Query().Get("cursor") + "|" + r.URL.Query().Get("limit")})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer api.Close()

	client := NewClient(api.URL+"/", "0xabc", time.Second)
	created, err := client.CreatePacket(context.Background(), httptransport.CreatePacketRequest{Amount: "100"}, "idem-1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.PacketID != 7 || created.PacketCount != 5 {
		t.Fatalf("unexpected create response: %+v", created)
	}

	listed, err := client.ListPackets(context.Background(), "abc", 3)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if listed.NextCursor != "abc|3" {
		t.Fatalf("query parameters not forwarded, got %q", listed.NextCursor)
	}
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/red-packets/1/claim" {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(httptransport.ErrorResponse{Code: "packet_exhausted", Message: "no packets remaining"})
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer api.Close()

	client := NewClient(api.URL, "0xabc", time.Second)

	_, err := client.ClaimPacket(context.Background(), 1)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict || apiErr.Code != "packet_exhausted" {
		t.Fatalf("expected decoded api error, got %v", err)
	}

	_, err = client.PacketCount(context.Background())
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway || apiErr.Code != "unknown" {
		t.Fatalf("expected opaque api error, got %v", err)
	}
}

func TestPacketPath(t *testing.T) {
	if got := packetPath(12, ""); got != "/v1/red-packets/12" {
		t.Fatalf("unexpected path %s", got)
	}
	if got := packetPath(12, "shares"); got != "/v1/red-packets/12/shares" {
		t.Fatalf("unexpected path %s", got)
	}
}
