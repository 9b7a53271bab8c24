// Package webhook exposes the HTTP boundary: Telegram updates in, order
// intake from the storefront, and a liveness probe.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/teleshop/core/logger"
	"github.com/m3rciful/teleshop/internal/bot"
	"github.com/m3rciful/teleshop/internal/shop"
)

const component = "webhook"

// UpdateProcessor consumes one decoded Telegram update.
type UpdateProcessor interface {
	ProcessUpdate(u tele.Update)
}

// OrderPlacer accepts a storefront checkout.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req bot.OrderRequest) (int64, error)
}

// Server is the HTTP listener shared by webhook and long-poll deployments:
// in webhook mode it also feeds Telegram updates into the bot.
type Server struct {
	srv    *http.Server
	bot    UpdateProcessor
	orders OrderPlacer
}

// New builds the server. A nil UpdateProcessor disables the update route
// (long-poll mode keeps only health and order intake).
func New(addr string, processor UpdateProcessor, orders OrderPlacer) *Server {
	s := &Server{bot: processor, orders: orders}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/bot", s.handleHealth)
	if processor != nil {
		mux.HandleFunc("POST /api/bot", s.handleUpdate)
	}
	mux.HandleFunc("POST /api/orders", s.handleOrder)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, component, "listen", slog.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook shutdown: %w", err)
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Bot is active"})
}

// handleUpdate feeds one Telegram update into the bot. Handler panics are
// converted to a 500 so a single bad update never kills the process.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error(ctx, component, "update.panic",
				slog.Any("err", rec),
				slog.String("stack", string(debug.Stack())),
			)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false})
		}
	}()

	var upd tele.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		logger.Warn(ctx, component, "update.decode_failed", slog.String("err", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false})
		return
	}

	s.bot.ProcessUpdate(upd)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type orderPayload struct {
	Items shop.OrderItems `json:"items"`
	Total float64         `json:"total"`
	User  struct {
		ID        int64  `json:"id"`
		FirstName string `json:"first_name"`
	} `json:"user"`
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload orderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid payload"})
		return
	}
	if payload.User.ID == 0 || len(payload.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "missing user or items"})
		return
	}

	orderID, err := s.orders.PlaceOrder(ctx, bot.OrderRequest{
		UserID:    payload.User.ID,
		FirstName: payload.User.FirstName,
		Items:     payload.Items,
		Total:     payload.Total,
	})
	if err != nil {
		logger.Error(ctx, component, "order.failed", slog.String("err", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "orderId": orderID})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
