package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FinancialSnapshot holds period aggregates supplied by upstream reporting.
// NetProfit is taken as given and never recomputed from the other figures.
type FinancialSnapshot struct {
	Revenue   decimal.Decimal `json:"revenue"`
	COGS      decimal.Decimal `json:"cogs"`
	Opex      decimal.Decimal `json:"opex"`
	NetProfit decimal.Decimal `json:"netProfit"`
}

// NewSnapshot builds a snapshot from float figures, rejecting non-finite values.
func NewSnapshot(revenue, cogs, opex, netProfit float64) (FinancialSnapshot, error) {
	var s FinancialSnapshot
	var err error
	if s.Revenue, err = DecimalFromFloat("revenue", revenue); err != nil {
		return FinancialSnapshot{}, err
	}
	if s.COGS, err = DecimalFromFloat("cogs", cogs); err != nil {
		return FinancialSnapshot{}, err
	}
	if s.Opex, err = DecimalFromFloat("opex", opex); err != nil {
		return FinancialSnapshot{}, err
	}
	if s.NetProfit, err = DecimalFromFloat("netProfit", netProfit); err != nil {
		return FinancialSnapshot{}, err
	}
	return s, s.Validate()
}

// TotalExpenses returns COGS + Opex.
func (s FinancialSnapshot) TotalExpenses() decimal.Decimal {
	return s.COGS.Add(s.Opex)
}

// Validate rejects negative revenue and cost figures.
func (s FinancialSnapshot) Validate() error {
	if err := requireNonNegative("revenue", s.Revenue); err != nil {
		return err
	}
	if err := requireNonNegative("cogs", s.COGS); err != nil {
		return err
	}
	return requireNonNegative("opex", s.Opex)
}

// MonthlyPoint is one month of a trend series. Series are ordered oldest first.
type MonthlyPoint struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	COGS    decimal.Decimal `json:"cogs"`
}

// ReceivableStatus is the collection state of a receivable. The reporting
// service emits pending, overdue and paid; only overdue affects findings.
type ReceivableStatus string

const (
	ReceivablePending ReceivableStatus = "pending"
	ReceivableCurrent ReceivableStatus = "current"
	ReceivableOverdue ReceivableStatus = "overdue"
	ReceivablePaid    ReceivableStatus = "paid"
)

// ReceivableEntry is one accounts-receivable line item.
type ReceivableEntry struct {
	Counterparty string           `json:"customerName"`
	Amount       decimal.Decimal  `json:"amount"`
	Status       ReceivableStatus `json:"status"`
}

// PayableEntry is one accounts-payable line item.
type PayableEntry struct {
	VendorName string          `json:"vendorName"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status,omitempty"`
}

// ValidateTrend rejects negative monthly figures.
func ValidateTrend(trend []MonthlyPoint) error {
	for i, m := range trend {
		if err := requireNonNegative(fmt.Sprintf("trend[%d].revenue", i), m.Revenue); err != nil {
			return err
		}
		if err := requireNonNegative(fmt.Sprintf("trend[%d].cogs", i), m.COGS); err != nil {
			return err
		}
	}
	return nil
}

// ValidateReceivables rejects negative receivable amounts.
func ValidateReceivables(entries []ReceivableEntry) error {
	for i, e := range entries {
		if err := requireNonNegative(fmt.Sprintf("receivables[%d].amount", i), e.Amount); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePayables rejects negative payable amounts.
func ValidatePayables(entries []PayableEntry) error {
	for i, e := range entries {
		if err := requireNonNegative(fmt.Sprintf("payables[%d].amount", i), e.Amount); err != nil {
			return err
		}
	}
	return nil
}
