// Package order define el ciclo de vida de una orden de compra: los estados
// legales y la tabla fija de transiciones. La lógica es despacho por tabla,
// no herencia por estado.
package order

// Status estados del ciclo de vida de una orden de compra.
const (
	StatusDraft             = "draft"
	StatusPendingApproval   = "pending_approval"
	StatusApproved          = "approved"
	StatusSentToSupplier    = "sent_to_supplier"
	StatusPartiallyReceived = "partially_received"
	StatusReceived          = "received"
	StatusClosed            = "closed"
	StatusRejected          = "rejected"
	StatusCancelled         = "cancelled"
	StatusReopened          = "reopened"
)

// transitions tabla fija de transiciones legales (actual → destinos).
// rejected y cancelled son alcanzables desde cualquier estado pre-closed;
// reopened solo desde closed o cancelled por acción autorizada explícita.
var transitions = map[string][]string{
	StatusDraft:             {StatusPendingApproval, StatusRejected, StatusCancelled},
	StatusPendingApproval:   {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:          {StatusSentToSupplier, StatusRejected, StatusCancelled},
	StatusSentToSupplier:    {StatusPartiallyReceived, StatusReceived, StatusRejected, StatusCancelled},
	StatusPartiallyReceived: {StatusPartiallyReceived, StatusReceived, StatusRejected, StatusCancelled},
	StatusReceived:          {StatusClosed, StatusRejected, StatusCancelled},
	StatusClosed:            {StatusReopened},
	StatusCancelled:         {StatusReopened},
	StatusRejected:          {StatusDraft, StatusCancelled},
	StatusReopened:          {StatusPendingApproval, StatusCancelled},
}

// receivingOnly destinos que solo el reconciliador de recepciones puede
// disparar; nunca por transición directa del caller.
var receivingOnly = map[string]bool{
	StatusPartiallyReceived: true,
	StatusReceived:          true,
}

// IsValid indica si s es un estado conocido.
func IsValid(s string) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition indica si la transición (from → to) está en la tabla.
func CanTransition(from, to string) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// ReceivingOnly indica si el destino está reservado al reconciliador.
func ReceivingOnly(to string) bool {
	return receivingOnly[to]
}

// IsTerminal indica si desde s no hay transición posible.
func IsTerminal(s string) bool {
	return len(transitions[s]) == 0
}

// PreClosed indica si s es un estado previo a closed (ni closed, ni
// cancelled, ni rejected, ni reopened).
func PreClosed(s string) bool {
	switch s {
	case StatusClosed, StatusCancelled, StatusRejected, StatusReopened:
		return false
	}
	return IsValid(s)
}
