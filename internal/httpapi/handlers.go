package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/hub"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/service"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error().Err(err).Str("op", op).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
}

// ── Enrollment ───────────────────────────────────────────────────────────────

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var req types.EnrollRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid request body")
		return
	}

	_, err := s.enrollment.Enroll(r.Context(), req.UserID)
	switch {
	case err == nil:
		respond(w, r, http.StatusOK, types.EnrollResponse{Success: true, Message: "Enrollment successful"})
	case errors.Is(err, service.ErrInvalidUserID):
		writeError(w, http.StatusBadRequest, "invalid_user_id", err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", "user not found")
	case errors.Is(err, hub.ErrDuplicateSlot):
		writeError(w, http.StatusConflict, "enrollment_pending", "an enrollment is already in progress for this user")
	case errors.Is(err, hub.ErrNoRecipient):
		writeError(w, http.StatusServiceUnavailable, "hardware_unavailable", "no lock controller connected")
	case errors.Is(err, hub.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "enrollment_timeout", "lock controller did not respond")
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful to write
		s.logger.Debug().Str("user_id", req.UserID).Msg("enroll request cancelled")
	case errors.Is(err, service.ErrEnrollmentFailed):
		respond(w, r, http.StatusInternalServerError, types.EnrollResponse{Success: false, Message: "Enrollment failed"})
	default:
		s.internalError(w, "enroll", err)
	}
}

// ── Door control ─────────────────────────────────────────────────────────────

func (s *Server) handleDoorControl(w http.ResponseWriter, r *http.Request) {
	var req types.DoorControlRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid request body")
		return
	}

	if c, ok := claimsFrom(r.Context()); ok {
		s.logger.Info().Str("user_id", c.UserID).Str("role", string(c.Role)).Str("action", req.Action).Msg("door control requested")
	}

	resp, err := s.door.Control(r.Context(), req.Action)
	switch {
	case err == nil, errors.Is(err, hub.ErrNoRecipient), errors.Is(err, service.ErrStorage):
		// The lock has moved even when no controller is connected or the
		// state could not be persisted.
		if errors.Is(err, service.ErrStorage) {
			s.logger.Warn().Err(err).Bool("delivered", resp.Delivered).Msg("door state not persisted")
		}
		respond(w, r, http.StatusOK, resp)
	case errors.Is(err, service.ErrInvalidAction):
		writeError(w, http.StatusBadRequest, "invalid_action", err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "device_not_found", "device not found")
	default:
		s.internalError(w, "door_control", err)
	}
}

// ── Users ────────────────────────────────────────────────────────────────────

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid request body")
		return
	}

	resp, err := s.users.Register(r.Context(), req)
	switch {
	case err == nil:
		respond(w, r, http.StatusCreated, envelope{Message: "User created successfully", Data: resp})
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidFullName),
		errors.Is(err, service.ErrInvalidPin):
		writeError(w, http.StatusBadRequest, "invalid_user", err.Error())
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "user_exists", "a user with this email already exists")
	default:
		s.internalError(w, "register", err)
	}
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.internalError(w, "list_users", err)
		return
	}
	respond(w, r, http.StatusOK, envelope{Message: "Users retrieved", Data: users})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	err := s.users.Delete(r.Context(), r.PathValue("userId"))
	switch {
	case err == nil:
		respond(w, r, http.StatusOK, envelope{Message: "User deleted"})
	case errors.Is(err, service.ErrInvalidUserID):
		writeError(w, http.StatusBadRequest, "invalid_user_id", err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", "user not found")
	default:
		s.internalError(w, "delete_user", err)
	}
}

// ── Device ───────────────────────────────────────────────────────────────────

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	dev, err := s.devices.Get(r.Context())
	switch {
	case err == nil:
		respond(w, r, http.StatusOK, envelope{Message: "Device retrieved", Data: dev})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "device_not_found", "device not found")
	default:
		s.internalError(w, "get_device", err)
	}
}

func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	var upd types.DeviceUpdate
	if err := decodeBody(r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid request body")
		return
	}

	dev, err := s.devices.Update(r.Context(), upd)
	switch {
	case err == nil:
		respond(w, r, http.StatusOK, envelope{Message: "Device updated", Data: dev})
	case errors.Is(err, service.ErrEmptyUpdate),
		errors.Is(err, service.ErrInvalidLockState),
		errors.Is(err, service.ErrInvalidBattery):
		writeError(w, http.StatusBadRequest, "invalid_update", err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "device_not_found", "device not found")
	default:
		s.internalError(w, "update_device", err)
	}
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	dev, err := s.devices.Diagnose(r.Context())
	switch {
	case err == nil:
		respond(w, r, http.StatusOK, types.DiagnosticsResponse{
			Success: true,
			Message: "Diagnostics completed successfully",
			Device:  dev,
		})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "device_not_found", "device not found")
	default:
		s.internalError(w, "diagnostics", err)
	}
}

// ── Access logs & dashboard ──────────────────────────────────────────────────

func (s *Server) handleAccessLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	logs, err := s.dashboard.AccessLogs(r.Context(), limit)
	if err != nil {
		s.internalError(w, "access_logs", err)
		return
	}
	respond(w, r, http.StatusOK, envelope{Message: "Access logs retrieved", Data: logs})
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.dashboard.Summary(r.Context())
	switch {
	case err == nil:
		respond(w, r, http.StatusOK, envelope{Data: sum})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "device_not_found", "device not found")
	default:
		s.internalError(w, "dashboard_summary", err)
	}
}

// ── Notifications ────────────────────────────────────────────────────────────

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	notes, err := s.notes.List(r.Context())
	if err != nil {
		s.internalError(w, "list_notifications", err)
		return
	}
	respond(w, r, http.StatusOK, envelope{Message: "Notifications fetched successfully", Data: notes})
}

func (s *Server) handleNotificationUpdate(w http.ResponseWriter, r *http.Request) {
	var req types.NotificationUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid request body")
		return
	}

	n, err := s.notes.MarkRead(r.Context(), req)
	switch {
	case err == nil:
		respond(w, r, http.StatusOK, envelope{Message: "Notification updated successfully", Data: n})
	case errors.Is(err, service.ErrInvalidNotificationID), errors.Is(err, service.ErrMissingRead):
		writeError(w, http.StatusBadRequest, "invalid_update", err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "notification_not_found", "notification not found")
	default:
		s.internalError(w, "update_notification", err)
	}
}

// ── Health ───────────────────────────────────────────────────────────────────

type healthResponse struct {
	OK             bool `json:"ok"`
	HardwareActive bool `json:"hardwareActive"`
	Sessions       int  `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, healthResponse{
		OK:             true,
		HardwareActive: s.registry.IsHardwarePresent(),
		Sessions:       s.registry.Len(),
	})
}
