package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/GopkoDev/invoiceForge-sub001/internal/models"
)

// ReportingService aggregates invoice totals for the dashboard. Sums are done
// in decimal arithmetic so a long list of float snapshots cannot drift by a
// cent.
type ReportingService struct {
	db *gorm.DB
}

func NewReportingService(db *gorm.DB) *ReportingService { return &ReportingService{db: db} }

// Revenue returns the summed total of the tenant's paid invoices.
func (s *ReportingService) Revenue(userID uint) (decimal.Decimal, error) {
	return s.sumTotals(userID, models.InvoiceStatusPaid)
}

// Outstanding returns the summed totals of unpaid invoices, keyed by status
// (pending and overdue).
func (s *ReportingService) Outstanding(userID uint) (map[models.InvoiceStatus]decimal.Decimal, error) {
	out := make(map[models.InvoiceStatus]decimal.Decimal, 2)
	for _, st := range []models.InvoiceStatus{models.InvoiceStatusPending, models.InvoiceStatusOverdue} {
		sum, err := s.sumTotals(userID, st)
		if err != nil {
			return nil, err
		}
		out[st] = sum
	}
	return out, nil
}

// CountByStatus returns how many invoices the tenant has per status.
func (s *ReportingService) CountByStatus(userID uint) (map[models.InvoiceStatus]int64, error) {
	type row struct {
		Status models.InvoiceStatus
		N      int64
	}
	var rows []row
	err := s.db.Model(&models.Invoice{}).
		Select("status, count(*) as n").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[models.InvoiceStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

func (s *ReportingService) sumTotals(userID uint, status models.InvoiceStatus) (decimal.Decimal, error) {
	var totals []float64
	err := s.db.Model(&models.Invoice{}).
		Where("user_id = ? AND status = ?", userID, status).
		Pluck("total", &totals).Error
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(decimal.NewFromFloat(t))
	}
	return sum, nil
}
