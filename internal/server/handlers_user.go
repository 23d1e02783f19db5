package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"matcha-pos/internal/auth"
	"matcha-pos/internal/domain"
	"matcha-pos/internal/ws"
)

func (s *Server) handleGetUsers(ctx context.Context, c *ws.Conn, _ json.RawMessage) error {
	users, err := s.deps.Users.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	s.send(c, "USERS_LIST", users)
	return nil
}

type createUserPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) handleCreateUser(ctx context.Context, _ *ws.Conn, payload json.RawMessage) error {
	var p createUserPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}

	username := strings.TrimSpace(p.Username)
	if username == "" || p.Password == "" {
		return domain.Invalid("Username and password are required.")
	}
	role, err := domain.ParseRole(p.Role)
	if err != nil {
		return err
	}

	exists, err := s.deps.Users.ExistsUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return domain.Invalid("Username already exists.")
	}

	hash, err := auth.Hash(p.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.deps.Users.Create(ctx, username, hash, role); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	s.broadcastUsers(ctx)
	return nil
}

type updateUserRolePayload struct {
	ID   int    `json:"id"`
	Role string `json:"role"`
}

func (s *Server) handleUpdateUserRole(ctx context.Context, _ *ws.Conn, payload json.RawMessage) error {
	var p updateUserRolePayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	role, err := domain.ParseRole(p.Role)
	if err != nil {
		return err
	}

	updated, err := s.deps.Users.UpdateRole(ctx, p.ID, role)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}
	if !updated {
		return domain.Invalid("User not found.")
	}

	s.broadcastUsers(ctx)
	return nil
}

type updateUserPasswordPayload struct {
	ID       int    `json:"id"`
	Password string `json:"password"`
}

func (s *Server) handleUpdateUserPassword(ctx context.Context, _ *ws.Conn, payload json.RawMessage) error {
	var p updateUserPasswordPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	if p.Password == "" {
		return domain.Invalid("Password is required.")
	}

	hash, err := auth.Hash(p.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	updated, err := s.deps.Users.UpdatePassword(ctx, p.ID, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if !updated {
		return domain.Invalid("User not found.")
	}

	s.broadcastUsers(ctx)
	return nil
}

type deleteUserPayload struct {
	ID int `json:"id"`
}

func (s *Server) handleDeleteUser(ctx context.Context, c *ws.Conn, payload json.RawMessage) error {
	var p deleteUserPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	if sess := s.registry.Session(c); sess != nil && sess.UserID == p.ID {
		return domain.Invalid("You cannot delete your own account.")
	}

	deleted, err := s.deps.Users.Delete(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !deleted {
		return domain.Invalid("User not found.")
	}

	s.broadcastUsers(ctx)
	return nil
}

func (s *Server) broadcastUsers(ctx context.Context) {
	users, err := s.deps.Users.List(ctx)
	if err != nil {
		s.log.Error("broadcast_skipped", "User list refresh failed", "", nil, err)
		return
	}
	s.broadcast("USERS_LIST", users)
}
