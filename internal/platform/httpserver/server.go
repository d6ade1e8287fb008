package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	redpacketservice "redpacket/contexts/escrow/red-packet-service"
	redpacketerrors "redpacket/contexts/escrow/red-packet-service/domain/errors"
	redpackethttp "redpacket/contexts/escrow/red-packet-service/transport/http"
	_ "redpacket/internal/platform/httpserver/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

const maxRequestBodyBytes = 1 << 16

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	redPacket redpacketservice.Module
}

func New(
	redPacket redpacketservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		redPacket: redPacket,
	}
	s.registerRoutes()
	return s
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http server stopping",
			"event", "http_server_stopping",
			"module", "internal/platform/httpserver",
			"layer", "platform",
		)
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /v1/red-packets", s.handleCreatePacket)
	s.mux.HandleFunc("GET /v1/red-packets", s.handleListPackets)
	s.mux.HandleFunc("GET /v1/red-packets/count", s.handlePacketCount)
	s.mux.HandleFunc("GET /v1/red-packets/{packet_id}", s.handleGetPacket)
	s.mux.HandleFunc("POST /v1/red-packets/{packet_id}/claim", s.handleClaimPacket)
	s.mux.HandleFunc("GET /v1/red-packets/{packet_id}/claims/{identity}", s.handleHasClaimed)
	s.mux.HandleFunc("GET /v1/red-packets/{packet_id}/shares", s.handleGetShareAmounts)
	s.mux.HandleFunc("GET /v1/red-packets/{packet_id}/activity", s.handleGetPacketActivity)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreatePacket(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeRedPacketError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req redpackethttp.CreatePacketRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		writeRedPacketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.redPacket.Handler.CreatePacketHandler(
		r.Context(),
		userID,
		req,
		r.Header.Get("Idempotency-Key"),
	)
	if err != nil {
		s.writeRedPacketDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleClaimPacket(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeRedPacketError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.redPacket.Handler.ClaimPacketHandler(r.Context(), userID, r.PathValue("packet_id"))
	if err != nil {
		s.writeRedPacketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPacket(w http.ResponseWriter, r *http.Request) {
	resp, err := s.redPacket.Handler.GetPacketHandler(r.Context(), r.PathValue("packet_id"))
	if err != nil {
		s.writeRedPacketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHasClaimed(w http.ResponseWriter, r *http.Request) {
	resp, err := s.redPacket.Handler.HasClaimedHandler(
		r.Context(),
		r.PathValue("packet_id"),
		r.PathValue("identity"),
	)
	if err != nil {
		s.writeRedPacketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetShareAmounts(w http.ResponseWriter, r *http.Request) {
	resp, err := s.redPacket.Handler.GetShareAmountsHandler(r.Context(), r.PathValue("packet_id"))
	if err != nil {
		s.writeRedPacketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPackets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := redpackethttp.ListPacketsRequest{
		Cursor: query.Get("cursor"),
	}
	if limitRaw := query.Get("limit"); limitRaw != "" {
		limit, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeRedPacketError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		req.Limit = limit
	}

	resp, err := s.redPacket.Handler.ListPacketsHandler(r.Context(), req)
	if err != nil {
		s.writeRedPacketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePacketCount(w http.ResponseWriter, r *http.Request) {
	resp, err := s.redPacket.Handler.PacketCountHandler(r.Context())
	if err != nil {
		s.writeRedPacketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPacketActivity(w http.ResponseWriter, r *http.Request) {
	resp, err := s.redPacket.Handler.GetPacketActivityHandler(r.Context(), r.PathValue("packet_id"))
	if err != nil {
		s.writeRedPacketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeRedPacketDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, redpacketerrors.ErrInvalidCaller):
		writeRedPacketError(w, http.StatusBadRequest, "invalid_caller", err.Error())
	case errors.Is(err, redpacketerrors.ErrInvalidAmount):
		writeRedPacketError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, redpacketerrors.ErrWrongAmount):
		writeRedPacketError(w, http.StatusBadRequest, "wrong_amount", err.Error())
	case errors.Is(err, redpacketerrors.ErrInvalidCount):
		writeRedPacketError(w, http.StatusBadRequest, "invalid_count", err.Error())
	case errors.Is(err, redpacketerrors.ErrInvalidMessage):
		writeRedPacketError(w, http.StatusBadRequest, "invalid_message", err.Error())
	case errors.Is(err, redpacketerrors.ErrInvalidAllocation):
		writeRedPacketError(w, http.StatusBadRequest, "invalid_allocation", err.Error())
	case errors.Is(err, redpacketerrors.ErrInvalidPacketID):
		writeRedPacketError(w, http.StatusBadRequest, "invalid_packet_id", err.Error())
	case errors.Is(err, redpacketerrors.ErrInvalidListFilter):
		writeRedPacketError(w, http.StatusBadRequest, "invalid_list_filter", err.Error())
	case errors.Is(err, redpacketerrors.ErrPacketNotFound):
		writeRedPacketError(w, http.StatusNotFound, "packet_not_found", err.Error())
	case errors.Is(err, redpacketerrors.ErrSelfClaimForbidden):
		writeRedPacketError(w, http.StatusForbidden, "self_claim_forbidden", err.Error())
	case errors.Is(err, redpacketerrors.ErrPacketExhausted):
		writeRedPacketError(w, http.StatusConflict, "packet_exhausted", err.Error())
	case errors.Is(err, redpacketerrors.ErrAlreadyClaimed):
		writeRedPacketError(w, http.StatusConflict, "already_claimed", err.Error())
	case errors.Is(err, redpacketerrors.ErrIdempotencyKeyConflict):
		writeRedPacketError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	default:
		s.logger.Error("unmapped red packet error",
			"event", "http_internal_error",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeRedPacketError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRedPacketError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, redpackethttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
