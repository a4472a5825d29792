package workflow

import "github.com/jmquispe/viaticos-core/internal/domain/entity"

// ExpenseReportBuilder configures the expense-report lifecycle over the
// enabled states of the process: Solicitado → Abierto → Aprobado, with
// Observado reachable from any state through the observe override and
// returning to review on reopen.
func ExpenseReportBuilder(states StateSet) *Builder {
	b := NewBuilder(states)

	b.Configure(State(entity.StateRequested)).
		Permit(TriggerOpen, State(entity.StateOpen))

	b.Configure(State(entity.StateOpen)).
		Permit(TriggerApprove, State(entity.StateApproved))

	b.Configure(State(entity.StateObserved)).
		Permit(TriggerReopen, State(entity.StateOpen))

	b.Override(TriggerObserve, State(entity.StateObserved))

	return b
}
