package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/kronos-automations/lead-engine/internal/repository"
)

// Service is a tiny façade over the lead repository that produces XLSX bytes
// for the lead book. Reporting aid only; it never mutates the store.
type Service struct {
	leads  repository.LeadRepository
	logger *slog.Logger
}

func NewService(leads repository.LeadRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{leads: leads, logger: logger}
}

// ExportLeadsXLSX returns an XLSX workbook with up to limit leads in
// insertion order, terminal states included. A zero limit exports the
// default 1000.
func (s *Service) ExportLeadsXLSX(ctx context.Context, limit int) ([]byte, error) {
	if limit <= 0 {
		limit = 1000
	}
	leads, err := s.leads.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Leads"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Company",
		"Sector",
		"Score",
		"City",
		"Phone",
		"Status",
		"Source URL",
		"Last Error",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, l := range leads {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, l.CompanyName)
		write(2, string(l.Sector))
		write(3, l.Score)
		write(4, l.City)
		write(5, l.Phone)
		write(6, string(l.Status))
		write(7, l.SourceURL)
		if l.LastError != nil {
			write(8, *l.LastError)
		}
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("lead book exported", "rows", row-2)
	return buf.Bytes(), nil
}
