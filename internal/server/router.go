package server

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"matcha-pos/internal/domain"
	"matcha-pos/internal/ws"
)

type handlerFunc func(ctx context.Context, c *ws.Conn, payload json.RawMessage) error

type command struct {
	handle handlerFunc
	// roles, when non-empty, gates the command behind a session with one of
	// the listed roles.
	roles []domain.Role
}

func (s *Server) commandTable() map[string]command {
	staff := []domain.Role{domain.RoleAdmin, domain.RoleKitchen}
	admin := []domain.Role{domain.RoleAdmin}

	return map[string]command{
		"PLACE_ORDER":       {handle: s.handlePlaceOrder},
		"UPDATE_STATUS":     {handle: s.handleUpdateStatus, roles: staff},
		"GET_ACTIVE_ORDERS": {handle: s.handleGetActiveOrders},
		"GET_ORDER_HISTORY": {handle: s.handleGetOrderHistory},
		"GET_PRODUCTS":      {handle: s.handleGetProducts},
		"GET_SALES_SUMMARY": {handle: s.handleGetSalesSummary},

		"AUTH_LOGIN":  {handle: s.handleAuthLogin},
		"AUTH_RESUME": {handle: s.handleAuthResume},
		"AUTH_LOGOUT": {handle: s.handleAuthLogout},

		"GET_USERS":            {handle: s.handleGetUsers},
		"CREATE_USER":          {handle: s.handleCreateUser, roles: admin},
		"UPDATE_USER_ROLE":     {handle: s.handleUpdateUserRole, roles: admin},
		"UPDATE_USER_PASSWORD": {handle: s.handleUpdateUserPassword, roles: admin},
		"DELETE_USER":          {handle: s.handleDeleteUser, roles: admin},

		"CREATE_PRODUCT": {handle: s.handleCreateProduct, roles: admin},
		"UPDATE_PRODUCT": {handle: s.handleUpdateProduct, roles: admin},
		"DELETE_PRODUCT": {handle: s.handleDeleteProduct, roles: admin},
		"ADJUST_STOCK":   {handle: s.handleAdjustStock, roles: admin},

		"GET_REPORT": {handle: s.handleGetReport, roles: admin},
	}
}

// dispatch decodes one envelope, authorizes it, and runs the handler. Every
// failure is converted to a SERVER_ERROR response here; nothing a single
// message does can take the loop down.
func (s *Server) dispatch(ctx context.Context, c *ws.Conn, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return
	}

	cmd, ok := s.commands[env.Type]
	if !ok {
		return
	}

	requestID := uuid.NewString()
	s.log.Debug("message_received", env.Type, requestID, map[string]any{"conn_id": c.ID()})

	if len(cmd.roles) > 0 {
		if err := s.authorize(c, cmd.roles); err != nil {
			s.sendError(c, clientMessage(err))
			return
		}
	}

	if err := cmd.handle(ctx, c, env.Payload); err != nil {
		s.log.Error("command_failed", env.Type, requestID,
			map[string]any{"conn_id": c.ID()}, err)
		s.sendError(c, clientMessage(err))
	}
}

// authorize requires a live session with one of the allowed roles. There is
// no fallback path: without a session the command is rejected outright.
func (s *Server) authorize(c *ws.Conn, allowed []domain.Role) error {
	sess := s.registry.Session(c)
	if sess == nil {
		return domain.ErrAuthRequired
	}
	for _, role := range allowed {
		if sess.Role == string(role) {
			return nil
		}
	}
	return domain.ErrPermissionDenied
}

// clientMessage maps an error to the text sent to the client.
func clientMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		return "Authentication required."
	case errors.Is(err, domain.ErrPermissionDenied):
		return "Permission denied."
	case errors.Is(err, domain.ErrOrderNotFound):
		return "Order not found."
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return err.Error()
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return &domain.ValidationError{Reason: "Missing payload."}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &domain.ValidationError{Reason: "Malformed payload."}
	}
	return nil
}
