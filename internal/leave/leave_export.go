package leave

import (
	"context"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const ReportSheet = "Leave Reports"

var reportHeaders = []any{
	"Employee Name",
	"Leave Type",
	"Start Date",
	"End Date",
	"Date of Request",
	"Leave Days",
	"Reason",
	"Status",
}

func (s *service) Export(ctx context.Context, filter ListFilter) ([]byte, error) {
	rows, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("export leaves load failed", zap.Error(err))
		return nil, err
	}

	data, err := BuildReport(rows)
	if err != nil {
		s.logger.Error("export leaves render failed", zap.Error(err))
		return nil, err
	}
	s.logger.Info("export leaves success", zap.Int("rows", len(rows)))
	return data, nil
}

// BuildReport renders rows into an xlsx workbook with a single sheet.
func BuildReport(rows []LeaveRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReportSheet); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(ReportSheet, "A1", &reportHeaders); err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(ReportSheet, "A1", "H1", headerStyle); err != nil {
		return nil, err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []any{
			r.EmployeeName,
			r.LeaveTypeName,
			r.StartDate.Format(dateLayout),
			r.EndDate.Format(dateLayout),
			r.SubmittedAt.Format(dateLayout),
			r.TotalDays(),
			r.Reason,
			r.Status,
		}
		if err := f.SetSheetRow(ReportSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(ReportSheet, "A", "H", 18); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
