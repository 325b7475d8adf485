package services

import (
	"context"
	"fmt"
	"ridepool/src/apperr"
	"ridepool/src/config"
	"ridepool/src/models"
	"ridepool/src/repository"
	"ridepool/src/types"
	"ridepool/src/utils"
	"time"
)

const DEFAULT_EARNINGS_WEEKS = 4

type WeeklyEarnings struct {
	WeekStart string  `json:"week_start"`
	Payments  int     `json:"payments"`
	Gross     float64 `json:"gross"`
	Fees      float64 `json:"platform_fees"`
	Net       float64 `json:"net"`
}

type EarningsReport struct {
	DriverID uint             `json:"driver_id"`
	Weeks    []WeeklyEarnings `json:"weeks"`
	TotalNet float64          `json:"total_net"`
}

// weekStart is 00:00 on the Monday of t's week in loc.
func weekStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
}

// PaymentEarnings is what the driver keeps from p after refunds and the
// platform fee, together with the gross it was computed from.
func PaymentEarnings(p models.Payment) (gross, net float64) {
	switch p.Status {
	case types.PAYMENT_SUCCESS:
		gross = p.Amount
	case types.PAYMENT_PARTIALLY_REFUNDED:
		gross = p.CancellationFee
	default:
		return 0, 0
	}
	return gross, gross * (1 - p.PlatformFee)
}

func (e *Engine) DriverEarnings(ctx context.Context, driverID uint, now time.Time, weeks int) (*EarningsReport, error) {
	if weeks == 0 {
		weeks = DEFAULT_EARNINGS_WEEKS
	}
	if weeks < 1 || weeks > 52 {
		return nil, apperr.ValidationError{Field: "weeks", Msg: "must be between 1 and 52"}
	}
	loc := e.loc()
	first := weekStart(now, loc).AddDate(0, 0, -7*(weeks-1))

	payments, err := e.Store.ListPayments(ctx, repository.PaymentFilter{DriverID: driverID, Since: first})
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	report := &EarningsReport{DriverID: driverID, Weeks: make([]WeeklyEarnings, weeks)}
	index := map[string]int{}
	for i := range report.Weeks {
		start := first.AddDate(0, 0, 7*i).Format(config.DATE_FORMAT)
		report.Weeks[i].WeekStart = start
		index[start] = i
	}
	for _, p := range payments {
		i, ok := index[weekStart(p.PaidAt, loc).Format(config.DATE_FORMAT)]
		if !ok {
			continue
		}
		gross, net := PaymentEarnings(p)
		w := &report.Weeks[i]
		w.Payments++
		w.Gross += gross
		w.Fees += gross - net
		w.Net += net
	}
	for i := range report.Weeks {
		w := &report.Weeks[i]
		w.Gross = utils.RoundMoney(w.Gross)
		w.Fees = utils.RoundMoney(w.Fees)
		w.Net = utils.RoundMoney(w.Net)
		report.TotalNet += w.Net
	}
	report.TotalNet = utils.RoundMoney(report.TotalNet)
	return report, nil
}
