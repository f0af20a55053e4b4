package retry

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retrier retries actions with a fixed set of strategies
type Retrier interface {
	Retry(action Action) (uint, error)
}

type retrier struct {
	strategies []Strategy
}

// NewRetrier returns a Retrier using strategies. Without strategies, actions
// are retried in a tight loop until they succeed.
func NewRetrier(strategies ...Strategy) Retrier {
	return &retrier{strategies: strategies}
}

func (r *retrier) Retry(action Action) (uint, error) {
	return Retry(action, r.strategies...)
}

// Retry runs action until it succeeds or a strategy declines another attempt,
// returning the number of attempts made and the last error.
//
// Strategies are consulted in order and the first refusal stops evaluation, so
// strategies that sleep belong last.
func Retry(action Action, strategies ...Strategy) (uint, error) {
	var attempts uint
	for {
		attempts++

		err := action()
		if err == nil {
			return attempts, nil
		}

		for _, strategy := range strategies {
			if !strategy(attempts, err) {
				return attempts, err
			}
		}
	}
}
