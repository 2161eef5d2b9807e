package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lymau/lead-app/internal/presales/entity"
	"github.com/lymau/lead-app/internal/shared/apperror"
	"github.com/lymau/lead-app/internal/shared/objectstore"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// XLSXContentType MIME type of exported workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportHeaders = []string{
	"UID", "Opportunity ID", "Opportunity Name", "Company", "Vertical Industry",
	"Presales", "Sales Group", "Sales Name", "PAM", "Pillar", "Solution", "Service",
	"Brand", "Channel", "Distributor", "Cost", "Stage", "Notes", "Start Date", "Created At",
}

// ExportResult a generated workbook. URL is set when the file was archived.
type ExportResult struct {
	Data     []byte
	FileName string
	URL      string
}

// ExportService renders the visible opportunity list as xlsx
type ExportService struct {
	query    *QueryService
	archiver objectstore.Archiver
	loc      *time.Location
	logger   *zap.Logger
}

// NewExportService archiver may be nil.
func NewExportService(query *QueryService, archiver objectstore.Archiver, loc *time.Location, logger *zap.Logger) *ExportService {
	if loc == nil {
		loc = time.FixedZone("WIB", 7*60*60)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{query: query, archiver: archiver, loc: loc, logger: logger}
}

// ExportOpportunities builds the workbook for the acting user. Archiving is
// best-effort; the workbook is returned even when the upload fails.
func (s *ExportService) ExportOpportunities(ctx context.Context, user string) (*ExportResult, error) {
	const op = "export opportunities"

	lines, err := s.query.ListVisible(ctx, user)
	if err != nil {
		return nil, err
	}

	data, err := s.render(lines)
	if err != nil {
		return nil, apperror.Storage(op, "render workbook", err)
	}

	now := time.Now().In(s.loc)
	res := &ExportResult{
		Data:     data,
		FileName: fmt.Sprintf("opportunities_%s.xlsx", now.Format("20060102_150405")),
	}

	if s.archiver != nil {
		object := fmt.Sprintf("exports/%s/%s", sanitizeObjectSegment(user), res.FileName)
		url, err := s.archiver.Archive(ctx, object, XLSXContentType, data)
		if err != nil {
			s.logger.Warn("archive export failed", zap.String("object", object), zap.Error(err))
		} else {
			res.URL = url
		}
	}
	return res, nil
}

func (s *ExportService) render(lines []entity.Opportunity) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Opportunities"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range exportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, l := range lines {
		row := i + 2
		values := []interface{}{
			l.UID, l.OpportunityID, l.OpportunityName, l.CompanyName, l.VerticalIndustry,
			l.PresalesName, l.SalesGroupID, l.SalesName, l.ResponsibleName, l.Pillar, l.Solution, l.Service,
			l.Brand, l.Channel, l.DistributorName, FormatRupiah(l.Cost), l.Stage, l.Notes,
			time.Time(l.StartDate).Format("02-01-2006"),
			l.CreatedAt.In(s.loc).Format("02-01-2006 15:04"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}

	widths := []float64{36, 16, 30, 24, 16, 14, 12, 16, 16, 18, 22, 18, 12, 12, 18, 18, 12, 30, 12, 16}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sanitizeObjectSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ':
			return '_'
		}
		return r
	}, s)
}
