package entity

// ProcessExpenseReport scopes workflow states to the expense-report flow.
const ProcessExpenseReport = "VIATICOS"

// Workflow state ids observed in the expense-report process.
// The catalog is open; these are the ids the lifecycle itself depends on.
const (
	StateRequested int64 = 1 // Solicitado: initial state on submission
	StateOpen      int64 = 2 // Abierto: under review
	StateApproved  int64 = 3 // Aprobado: terminal in practice
	StateObserved  int64 = 8 // Observado: returned for correction
)

// External-validation outcomes for a receipt.
const (
	ValidationPending = "PENDING"
	ValidationValid   = "VALID"
	ValidationInvalid = "INVALID"
)

// Receipt document types (SUNAT document classes).
const (
	DocTypeFactura     = "FACTURA"
	DocTypeBoleta      = "BOLETA"
	DocTypeTicket      = "TICKET"
	DocTypeHonorarios  = "RECIBO_HONORARIOS"
	DocTypeDeclaracion = "DECLARACION_JURADA"
)
