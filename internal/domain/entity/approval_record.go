package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un registro de aprobación.
const (
	ApprovalStatusPending   = "pending"
	ApprovalStatusApproved  = "approved"
	ApprovalStatusRejected  = "rejected"
	ApprovalStatusEscalated = "escalated"
)

// Decisiones que puede tomar un aprobador.
const (
	ApprovalDecisionApprove = "approve"
	ApprovalDecisionReject  = "reject"
)

// ApprovalRecord representa una decisión de aprobación sobre una orden de
// compra en un nivel de la cadena. Los niveles de una orden forman una
// secuencia estrictamente creciente: la orden no avanza del nivel n hasta
// que el nivel n esté approved. Amount se evalúa contra LimitAmount (límite
// configurado del nivel); si el monto excede el límite del aprobador, el
// registro queda escalated con NextApproverID, nunca aprobado en silencio.
type ApprovalRecord struct {
	ID             string
	OrderID        string
	Level          int // >= 1
	Status         string
	ApproverID     string
	ApproverRole   string
	Amount         decimal.Decimal
	LimitAmount    decimal.Decimal
	NextApproverID string
	ChainSnapshot  json.RawMessage // cadena configurada al momento de decidir
	Comment        string
	DecidedAt      *time.Time
	CreatedAt      time.Time
}
