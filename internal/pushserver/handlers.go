package pushserver

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dgnsrekt/parkgate-realtime/internal/realtime"
)

const maxEventBody = 64 * 1024

// Server serves the push endpoint and the fixture REST API.
type Server struct {
	hub     *Hub
	catalog *Catalog
	logger  *zap.Logger
}

func NewServer(hub *Hub, catalog *Catalog, logger *zap.Logger) *Server {
	return &Server{
		hub:     hub,
		catalog: catalog,
		logger:  logger,
	}
}

type publishResponse struct {
	Delivered int `json:"delivered"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status      string   `json:"status"`
	Clients     int      `json:"clients"`
	ActiveGates []string `json:"activeGates"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Clients:     s.hub.ClientCount(),
		ActiveGates: s.hub.ActiveGates(),
	})
}

// PublishAdminEvent broadcasts an admin-update to every connected client.
// Zone open/close actions are applied to the catalog first.
func (s *Server) PublishAdminEvent(w http.ResponseWriter, r *http.Request) {
	var update realtime.AdminUpdate
	if err := json.NewDecoder(io.LimitReader(r.Body, maxEventBody)).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if !update.Action.Valid() || !update.TargetType.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown action or targetType"})
		return
	}
	if update.Timestamp == "" {
		update.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	switch update.Action {
	case realtime.ActionZoneOpened, realtime.ActionZoneClosed:
		if !s.catalog.SetOpen(update.TargetID, update.Action == realtime.ActionZoneOpened) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "zone not found: " + update.TargetID})
			return
		}
	}

	frame, err := realtime.EncodeEvent(update)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	sent := s.hub.BroadcastAll(frame)
	s.logger.Info("admin event published",
		zap.String("action", string(update.Action)),
		zap.String("targetType", string(update.TargetType)),
		zap.String("targetId", update.TargetID),
		zap.Int("clients", sent),
	)
	writeJSON(w, http.StatusAccepted, publishResponse{Delivered: sent})
}

// PublishZoneUpdate broadcasts the request body as a zone-update payload
// to clients subscribed to the gate.
func (s *Server) PublishZoneUpdate(w http.ResponseWriter, r *http.Request) {
	gateID := chi.URLParam(r, "gateID")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
	if err != nil || !json.Valid(body) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	frame, err := realtime.EncodeEvent(realtime.ZoneUpdate{Payload: body})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	sent := s.hub.BroadcastGate(gateID, frame)
	s.logger.Debug("zone update published",
		zap.String("gate", gateID),
		zap.Int("clients", sent),
	)
	writeJSON(w, http.StatusAccepted, publishResponse{Delivered: sent})
}

func (s *Server) GetZones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Zones(r.URL.Query().Get("gateId")))
}

func (s *Server) GetCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Categories())
}

func (s *Server) GetRushHours(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.RushHours())
}

func (s *Server) GetVacations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Vacations())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
