// Package export renders expense data into spreadsheet files for the
// accounting office.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jmquispe/viaticos-core/internal/application/service"
	"github.com/jmquispe/viaticos-core/internal/domain/entity"
)

const summarySheet = "Resumen"

// Service writes monthly summary workbooks.
type Service struct {
	outputDir string
	logger    *zap.Logger
}

// NewService creates an export service writing into outputDir.
func NewService(outputDir string, logger *zap.Logger) *Service {
	return &Service{outputDir: outputDir, logger: logger}
}

// MonthlySummary writes one workbook with the employee's monthly
// aggregate and the reports behind it, and returns the file path.
func (s *Service) MonthlySummary(summary *service.MonthlySummary, reports []*entity.ExpenseReport, states map[int64]string) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(summarySheet)
	if err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		s.logger.Warn("Failed to remove default sheet", zap.Error(err))
	}

	s.setCell(f, "A1", "Empleado")
	s.setCell(f, "B1", summary.EmployeeID)
	s.setCell(f, "A2", "Mes")
	s.setCell(f, "B2", summary.MonthStart.Format("2006-01"))
	s.setCell(f, "A3", "Total solicitado")
	s.setCell(f, "B3", summary.RequestedTotal.StringFixed(2))
	s.setCell(f, "A4", "Total aprobado")
	s.setCell(f, "B4", summary.ApprovedTotal.StringFixed(2))

	row := 6
	s.setCell(f, cell("A", row), "Estado")
	s.setCell(f, cell("B", row), "Rendiciones")
	row++
	for stateID, count := range summary.CountsByState {
		name := states[stateID]
		if name == "" {
			name = fmt.Sprintf("Estado %d", stateID)
		}
		s.setCell(f, cell("A", row), name)
		s.setCell(f, cell("B", row), fmt.Sprintf("%d", count))
		row++
	}

	row += 1
	headers := []string{"ID", "Descripción", "Localidad", "Total", "Estado", "Creado"}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		s.setCell(f, cell(col, row), h)
	}
	row++
	for _, report := range reports {
		name := states[report.StateID]
		if name == "" {
			name = fmt.Sprintf("Estado %d", report.StateID)
		}
		s.setCell(f, cell("A", row), fmt.Sprintf("%d", report.ID))
		s.setCell(f, cell("B", row), report.Description)
		s.setCell(f, cell("C", row), report.Locality)
		s.setCell(f, cell("D", row), report.RequestedTotal.StringFixed(2))
		s.setCell(f, cell("E", row), name)
		s.setCell(f, cell("F", row), report.CreatedAt.Format("2006-01-02"))
		row++
	}

	filename := fmt.Sprintf("viaticos_%s_%s.xlsx", summary.EmployeeID, summary.MonthStart.Format("200601"))
	outputPath := filepath.Join(s.outputDir, filename)
	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	s.logger.Info("Monthly summary exported", zap.String("path", outputPath))
	return outputPath, nil
}

func (s *Service) setCell(f *excelize.File, axis, value string) {
	if err := f.SetCellValue(summarySheet, axis, value); err != nil {
		s.logger.Warn("Failed to set cell value",
			zap.String("cell", axis),
			zap.Error(err))
	}
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
