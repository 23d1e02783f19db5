package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"matcha-pos/internal/domain"
	"matcha-pos/internal/ws"
)

type reportPayload struct {
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`
}

func (s *Server) handleGetReport(ctx context.Context, c *ws.Conn, payload json.RawMessage) error {
	var p reportPayload
	if len(payload) > 0 {
		if err := decodePayload(payload, &p); err != nil {
			return err
		}
	}

	// Default range is the current day.
	today := time.Now().Format("2006-01-02")
	if p.FromDate == "" {
		p.FromDate = today
	}
	if p.ToDate == "" {
		p.ToDate = today
	}
	from, err := time.Parse("2006-01-02", p.FromDate)
	if err != nil {
		return domain.Invalid("Invalid report date range.")
	}
	to, err := time.Parse("2006-01-02", p.ToDate)
	if err != nil {
		return domain.Invalid("Invalid report date range.")
	}
	if to.Before(from) {
		return domain.Invalid("Invalid report date range.")
	}

	report, err := s.deps.Reports.Report(ctx, p.FromDate, p.ToDate)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	s.send(c, "REPORT_DATA", report)
	return nil
}
