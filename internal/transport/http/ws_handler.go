package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"poll-simulator/internal/app"
	"poll-simulator/internal/domain"
)

const defaultParticipants = 10

type WSHandler struct {
	service  *app.SimulationService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SimulationService, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		logger:  app.ResolveLogger(logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// NewMux wires the health check, websocket and statistics routes.
func NewMux(h *WSHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("GET /simulations/{id}/statistics", h.ServeStatistics)
	return mux
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type votedPayload struct {
	Round      int `json:"round"`
	Correct    int `json:"correct"`
	Incorrect  int `json:"incorrect"`
	Selections int `json:"selections"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets. With ?bankId= (and optional ?participants=)
// it starts a new simulation owned by the connection; with ?simulationId= it attaches to a
// running one. Clients send {"type":"vote"} to run a round and receive "statistics" pushes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	bankID := query.Get("bankId")
	simulationID := query.Get("simulationId")
	if bankID == "" && simulationID == "" {
		http.Error(w, "missing bankId or simulationId", http.StatusBadRequest)
		return
	}
	participants := defaultParticipants
	if raw := query.Get("participants"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "participants must be a positive integer", http.StatusBadRequest)
			return
		}
		participants = n
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	var info domain.SimulationInfo
	if simulationID == "" {
		info, err = h.service.Start(ctx, bankID, participants)
		if err == nil {
			defer h.service.Close(context.WithoutCancel(ctx), info.ID)
		}
	} else {
		info, err = h.service.Info(ctx, simulationID)
	}
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	updates, cancel, err := h.service.Subscribe(ctx, info.ID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer goroutine; gorilla connections do not allow concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", "simulation_id", info.ID, "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "statistics", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "started", Payload: info}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "vote":
			stats, err := h.service.Vote(ctx, info.ID)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "voted", Payload: votedPayload{
				Round:      stats.Round,
				Correct:    stats.Correct,
				Incorrect:  stats.Incorrect,
				Selections: stats.Total(),
			}}
		case "statistics":
			stats, err := h.service.Statistics(ctx, info.ID)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "statistics", Payload: stats}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// ServeStatistics returns the latest statistics of a simulation as JSON.
func (h *WSHandler) ServeStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context(), r.PathValue("id"))
	if err != nil {
		writeJSON(w, statusFor(err), errorPayload{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSimulationNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotYetVoted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
