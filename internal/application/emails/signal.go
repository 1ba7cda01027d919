package emails

import (
	"context"
	"errors"

	"github.com/oksasatya/amy-emails/internal/domain/signal"
)

// Receiver handles one signal variant for payload type P.
type Receiver[P any] func(ctx context.Context, req *Request, payload P) error

// Signal is an in-process channel with a fixed payload type.
type Signal[P any] struct {
	Name      signal.Name
	Variant   signal.Variant
	receivers []Receiver[P]
}

func NewSignal[P any](name signal.Name, variant signal.Variant) *Signal[P] {
	return &Signal[P]{Name: name, Variant: variant}
}

func (s *Signal[P]) Connect(r Receiver[P]) {
	s.receivers = append(s.receivers, r)
}

// Send calls every receiver in connection order. Receiver errors do not
// stop later receivers and are joined in the result.
func (s *Signal[P]) Send(ctx context.Context, req *Request, payload P) error {
	var errs []error
	for _, r := range s.receivers {
		if err := r(ctx, req, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Trio groups the create, update and cancel signals of one business event.
// Create-only events leave Update and Cancel nil.
type Trio[P any] struct {
	Name   signal.Name
	Create *Signal[P]
	Update *Signal[P]
	Cancel *Signal[P]
}

func NewTrio[P any](name signal.Name) *Trio[P] {
	return &Trio[P]{
		Name:   name,
		Create: NewSignal[P](name, signal.Create),
		Update: NewSignal[P](name, signal.Update),
		Cancel: NewSignal[P](name, signal.Cancel),
	}
}

func NewCreateOnly[P any](name signal.Name) *Trio[P] {
	return &Trio[P]{Name: name, Create: NewSignal[P](name, signal.Create)}
}

// For returns the signal dispatched for a strategy, nil for NOOP.
func (t *Trio[P]) For(s Strategy) (*Signal[P], error) {
	var sig *Signal[P]
	switch s {
	case StrategyNoop:
		return nil, nil
	case StrategyCreate:
		sig = t.Create
	case StrategyUpdate:
		sig = t.Update
	case StrategyCancel:
		sig = t.Cancel
	default:
		return nil, &StrategyError{Strategy: s, Signal: t.Name}
	}
	if sig == nil {
		return nil, &StrategyError{Strategy: s, Signal: t.Name}
	}
	return sig, nil
}

// RunStrategy dispatches the signal that matches result. NOOP only logs.
func RunStrategy[P any](ctx context.Context, result Strategy, trio *Trio[P], req *Request, payload P) error {
	sig, err := trio.For(result)
	if err != nil {
		return err
	}
	log := req.log().WithField("signal", trio.Name)
	if sig == nil {
		log.Debugf("Strategy %s for %s is a no-op", result, trio.Name)
		return nil
	}
	log.Debugf("Sending %s signal as result of strategy %s", sig.Variant, result)
	return sig.Send(ctx, req, payload)
}
