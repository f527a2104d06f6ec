package bookingflow

// ModalStatus enumerates the payment confirmation modal's states.
type ModalStatus string

const (
	ModalClosed    ModalStatus = "closed"
	ModalChecking  ModalStatus = "checking"
	ModalPaid      ModalStatus = "paid"
	ModalFailed    ModalStatus = "failed"
	ModalCancelled ModalStatus = "cancelled"
	// ModalPending is shown when the poll budget runs out while the
	// processor still reports the payment as processing. The guest is told
	// to check their email for the final outcome.
	ModalPending ModalStatus = "pending"
)

// ModalState is the confirmation modal view model. The modal is
// deliberately non-dismissible while checking; only Acknowledge on a
// terminal state closes it.
type ModalState struct {
	Status             ModalStatus
	SessionID          string
	ConfirmationNumber string
}

func (m ModalState) Open() bool {
	return m.Status != ModalClosed
}

// Terminal reports whether the modal requires guest acknowledgment.
func (m ModalState) Terminal() bool {
	switch m.Status {
	case ModalPaid, ModalFailed, ModalCancelled, ModalPending:
		return true
	default:
		return false
	}
}
