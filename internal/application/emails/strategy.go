package emails

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/domain/signal"
	"github.com/oksasatya/amy-emails/internal/metrics"
)

// Strategy is the decision a strategy function makes for one business
// event and one subject entity.
type Strategy string

const (
	StrategyNoop   Strategy = "noop"
	StrategyCreate Strategy = "create"
	StrategyUpdate Strategy = "update"
	StrategyCancel Strategy = "cancel"
)

// Decide maps the existence of a SCHEDULED email and the business
// predicate to a strategy.
func Decide(exists, shouldExist bool) Strategy {
	switch {
	case !exists && shouldExist:
		return StrategyCreate
	case exists && !shouldExist:
		return StrategyCancel
	case exists && shouldExist:
		return StrategyUpdate
	default:
		return StrategyNoop
	}
}

// StrategyError is returned when a strategy value has no signal mapping.
type StrategyError struct {
	Strategy Strategy
	Signal   signal.Name
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("unknown strategy %q for signal %s", string(e.Strategy), e.Signal)
}

// LogConditions records the predicate parts of a strategy decision at debug
// level, then the result.
func LogConditions(log logrus.FieldLogger, name signal.Name, conditions logrus.Fields, result Strategy) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithField("signal", name).WithFields(conditions).Debug("strategy conditions")
	log.WithFields(logrus.Fields{"signal": name, "strategy": result}).Debug("strategy result")
	metrics.StrategyResults.WithLabelValues(string(name), string(result)).Inc()
}
