package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DecideApprovalRequest decisión de aprobación sobre una orden en un nivel.
type DecideApprovalRequest struct {
	Level    int             `json:"level"`
	Decision string          `json:"decision"` // approve | reject
	Amount   decimal.Decimal `json:"amount"`
	Comment  string          `json:"comment"`
}

// ApprovalResponse registro de aprobación en respuestas.
type ApprovalResponse struct {
	ID             string          `json:"id"`
	OrderID        string          `json:"order_id"`
	Level          int             `json:"level"`
	Status         string          `json:"status"`
	ApproverID     string          `json:"approver_id"`
	ApproverRole   string          `json:"approver_role"`
	Amount         decimal.Decimal `json:"amount"`
	LimitAmount    decimal.Decimal `json:"limit_amount"`
	NextApproverID string          `json:"next_approver_id,omitempty"`
	Comment        string          `json:"comment,omitempty"`
	DecidedAt      *time.Time      `json:"decided_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
