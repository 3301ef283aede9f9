package webhook

import "errors"

var (
	ErrJournalUnavailable       = errors.New("event could not be journaled")
	ErrChargebackWithoutPayment = errors.New("chargeback without payment id")
)
