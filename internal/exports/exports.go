package exports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ductclean/internal/domain"
	"ductclean/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Exporter writes booking schedules to XLSX files for the office staff.
type Exporter struct {
	repo   domain.Repository
	dir    string
	logger *zerolog.Logger
}

func NewExporter(repo domain.Repository, dir string, logger *zerolog.Logger) *Exporter {
	if dir == "" {
		dir = "exports"
	}
	return &Exporter{repo: repo, dir: dir, logger: logger}
}

var columns = []string{"Booking ID", "Customer", "Service", "Date", "Time", "Status", "Notes"}

// BookingsToFile writes the bookings in [start, end] to an XLSX file and
// returns its path.
func (e *Exporter) BookingsToFile(ctx context.Context, start, end time.Time) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	fileName := fmt.Sprintf("bookings_%s_to_%s.xlsx",
		start.Format(models.DateLayout), end.Format(models.DateLayout))
	path := filepath.Join(e.dir, fileName)

	f, err := e.build(ctx, start, end)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save export file: %w", err)
	}

	e.logger.Info().Str("path", path).Msg("bookings exported")
	return path, nil
}

// BookingsToBytes renders the same workbook in memory for HTTP download.
func (e *Exporter) BookingsToBytes(ctx context.Context, start, end time.Time) ([]byte, error) {
	f, err := e.build(ctx, start, end)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Exporter) build(ctx context.Context, start, end time.Time) (*excelize.File, error) {
	bookings, err := e.repo.ListBookingsByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	f := excelize.NewFile()

	const sheetName = "Bookings"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Bookings %s - %s",
		start.Format(models.DateLayout), end.Format(models.DateLayout)))
	_ = f.MergeCell(sheetName, "A1", "G1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, col)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	// Customer and service names are resolved once per unique id.
	customerNames := map[string]string{}
	serviceNames := map[string]string{}

	for row, booking := range bookings {
		values := []interface{}{
			booking.ID,
			e.customerName(ctx, customerNames, booking.CustomerID),
			e.serviceName(ctx, serviceNames, booking.ServiceID),
			booking.ScheduledDate,
			booking.ScheduledTime,
			booking.Status,
			booking.Notes,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+3)
			_ = f.SetCellValue(sheetName, cell, value)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", "C", 25)
	_ = f.SetColWidth(sheetName, "D", "G", 14)

	return f, nil
}

func (e *Exporter) customerName(ctx context.Context, cache map[string]string, id string) string {
	if name, ok := cache[id]; ok {
		return name
	}
	name := id
	if customer, err := e.repo.GetCustomer(ctx, id); err == nil {
		name = customer.FullName
	}
	cache[id] = name
	return name
}

func (e *Exporter) serviceName(ctx context.Context, cache map[string]string, id string) string {
	if name, ok := cache[id]; ok {
		return name
	}
	name := id
	if svc, err := e.repo.GetService(ctx, id); err == nil {
		name = svc.Name
	}
	cache[id] = name
	return name
}
