package server

import (
	"context"
	"encoding/json"
	"fmt"

	"matcha-pos/internal/auth"
	"matcha-pos/internal/domain"
	"matcha-pos/internal/ws"
)

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type resumePayload struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

type sessionView struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

func (s *Server) handleAuthLogin(ctx context.Context, c *ws.Conn, payload json.RawMessage) error {
	var p loginPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}

	user, err := s.deps.Users.FindByUsername(ctx, p.Username)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		s.send(c, "LOGIN_FAILED", map[string]string{"message": "Invalid username or password."})
		return nil
	}

	ok, upgrade := auth.Verify(p.Password, user.Password)
	if !ok {
		s.send(c, "LOGIN_FAILED", map[string]string{"message": "Invalid username or password."})
		return nil
	}
	if upgrade {
		if hash, err := auth.Hash(p.Password); err == nil {
			if err := s.deps.Users.UpgradeCredential(ctx, user.ID, hash); err != nil {
				s.log.Error("credential_upgrade_failed", "Failed to upgrade stored credential", "",
					map[string]any{"user_id": user.ID}, err)
			}
		}
	}

	token := s.tokens.Issue(user.ID, user.Username)
	s.establishSession(c, user, token)
	s.send(c, "LOGIN_SUCCESS", sessionView{User: *user, Token: token})
	return nil
}

// handleAuthResume re-establishes a session after a reconnect. The token was
// handed out by a prior LOGIN_SUCCESS, so a bare username claim is never
// enough on its own.
func (s *Server) handleAuthResume(ctx context.Context, c *ws.Conn, payload json.RawMessage) error {
	var p resumePayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}

	if !s.tokens.Validate(p.Username, p.Token) {
		s.send(c, "LOGIN_FAILED", map[string]string{"message": "Session expired. Please log in again."})
		return nil
	}

	user, err := s.deps.Users.FindByUsername(ctx, p.Username)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		s.tokens.Revoke(p.Token)
		s.send(c, "LOGIN_FAILED", map[string]string{"message": "Session expired. Please log in again."})
		return nil
	}

	s.establishSession(c, user, p.Token)
	s.send(c, "LOGIN_SUCCESS", sessionView{User: *user, Token: p.Token})
	return nil
}

func (s *Server) handleAuthLogout(_ context.Context, c *ws.Conn, _ json.RawMessage) error {
	if sess := s.registry.Session(c); sess != nil {
		s.tokens.Revoke(sess.Token)
		s.registry.ClearSession(c)
	}
	s.send(c, "LOGOUT_SUCCESS", map[string]string{"message": "Logged out."})
	return nil
}

func (s *Server) establishSession(c *ws.Conn, user *domain.User, token string) {
	s.registry.SetSession(c, &ws.Session{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		Token:    token,
	})
	s.log.Info("session_established", "Client authenticated", "",
		map[string]any{"conn_id": c.ID(), "username": user.Username, "role": user.Role})
}
