package export

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jmquispe/viaticos-core/internal/application/service"
	"github.com/jmquispe/viaticos-core/internal/domain/entity"
)

func TestMonthlySummary_WritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir, zap.NewNop())

	summary := &service.MonthlySummary{
		EmployeeID:     "E001",
		MonthStart:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		RequestedTotal: decimal.RequireFromString("700.00"),
		ApprovedTotal:  decimal.RequireFromString("350.00"),
		CountsByState: map[int64]int64{
			entity.StateApproved: 1,
		},
	}
	reports := []*entity.ExpenseReport{
		{
			ID:             5,
			Description:    "Comisión Arequipa",
			Locality:       "Arequipa",
			RequestedTotal: decimal.RequireFromString("350.00"),
			StateID:        entity.StateApproved,
			CreatedAt:      time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		},
	}
	states := map[int64]string{entity.StateApproved: "Aprobado"}

	path, err := svc.MonthlySummary(summary, reports, states)
	require.NoError(t, err)
	assert.Contains(t, path, "viaticos_E001_202506.xlsx")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	employee, err := f.GetCellValue(summarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "E001", employee)

	requested, err := f.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "700.00", requested)

	approved, err := f.GetCellValue(summarySheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "350.00", approved)
}

func TestMonthlySummary_UnknownStateGetsPlaceholder(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir, zap.NewNop())

	summary := &service.MonthlySummary{
		EmployeeID:    "E001",
		MonthStart:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CountsByState: map[int64]int64{77: 2},
	}

	path, err := svc.MonthlySummary(summary, nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue(summarySheet, "A7")
	require.NoError(t, err)
	assert.Equal(t, "Estado 77", name)
}
