package service

import (
	"context"
	"fmt"

	"github.com/civista/nirman/internal/works/repository"
	"github.com/xuri/excelize/v2"
)

// ExportService renders downloadable xlsx registers: the estimate abstract
// of a file and its movement (chain of custody) register.
type ExportService struct {
	fileRepo     *repository.FileRepository
	estimateRepo *repository.EstimateRepository
	movementRepo *repository.MovementRepository
	userRepo     *repository.UserRepository
}

func NewExportService(repos *repository.Repositories) *ExportService {
	return &ExportService{
		fileRepo:     repos.File,
		estimateRepo: repos.Estimate,
		movementRepo: repos.Movement,
		userRepo:     repos.User,
	}
}

var estimateExportHeaders = []string{
	"S.No", "Description", "Quantity", "Unit", "Rate", "Amount",
}

var movementExportHeaders = []string{
	"S.No", "Date", "Action", "From Role", "To Role", "By", "Remarks",
}

func headerStyle(f *excelize.File) int {
	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	return style
}

// EstimateAbstract renders the active estimate as an xlsx abstract of cost.
func (s *ExportService) EstimateAbstract(ctx context.Context, fileID string) (*excelize.File, string, error) {
	file, err := s.fileRepo.FindByID(ctx, fileID)
	if err != nil {
		return nil, "", err
	}
	est, err := s.estimateRepo.FindActiveByFile(ctx, fileID)
	if err != nil {
		return nil, "", fmt.Errorf("no estimate saved for this file: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Abstract of Cost"
	f.SetSheetName("Sheet1", sheet)

	f.SetCellValue(sheet, "A1", "Name of Work")
	f.SetCellValue(sheet, "B1", file.NameOfWork)
	f.SetCellValue(sheet, "A2", "Estimate Version")
	f.SetCellValue(sheet, "B2", est.Version)

	bold := headerStyle(f)
	headerRow := 4
	for i, h := range estimateExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s%d", col, headerRow)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, bold)
	}

	for idx, item := range est.Items {
		row := headerRow + 1 + idx
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), idx+1)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), item.Description)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), item.Quantity)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), item.Unit)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), item.Rate)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), item.Amount)
	}

	totalRow := headerRow + 1 + len(est.Items)
	totalStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellValue(sheet, fmt.Sprintf("B%d", totalRow), "Total")
	f.SetCellValue(sheet, fmt.Sprintf("F%d", totalRow), est.TotalAmount)
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("F%d", totalRow), totalStyle)

	colWidths := []float64{6, 50, 10, 8, 12, 14}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("Estimate_v%d_%s.xlsx", est.Version, file.ID[:8])
	return f, filename, nil
}

// MovementRegister renders the file's chain of custody as an xlsx register.
func (s *ExportService) MovementRegister(ctx context.Context, fileID string) (*excelize.File, string, error) {
	file, err := s.fileRepo.FindByID(ctx, fileID)
	if err != nil {
		return nil, "", err
	}
	logs, err := s.movementRepo.History(ctx, fileID)
	if err != nil {
		return nil, "", fmt.Errorf("load movements: %w", err)
	}

	ids := make([]string, 0, len(logs))
	for _, l := range logs {
		ids = append(ids, l.FromUserID)
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, "", fmt.Errorf("load users: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Movement Register"
	f.SetSheetName("Sheet1", sheet)

	f.SetCellValue(sheet, "A1", "Name of Work")
	f.SetCellValue(sheet, "B1", file.NameOfWork)

	bold := headerStyle(f)
	headerRow := 3
	for i, h := range movementExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s%d", col, headerRow)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, bold)
	}

	for idx, l := range logs {
		by := l.FromUserID
		if u, ok := users[l.FromUserID]; ok {
			by = u.Name
		}
		row := headerRow + 1 + idx
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), idx+1)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), l.CreatedAt.Format("02-01-2006 15:04"))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), l.Action)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), l.FromRole)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), l.ToRole)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), by)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), l.Remarks)
	}

	colWidths := []float64{6, 18, 10, 10, 10, 20, 40}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("Movements_%s.xlsx", file.ID[:8])
	return f, filename, nil
}
