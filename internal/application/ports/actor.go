package ports

// Actor identidad del usuario que ejecuta una operación, extraída del token
// por el middleware de auth. Toda mutación lleva actor: no hay camino
// anónimo ni puerta trasera de escritura.
type Actor struct {
	UserID    string
	CompanyID string
	Role      string
}
