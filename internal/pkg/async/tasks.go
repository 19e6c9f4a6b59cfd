package async

import (
	"errors"
	"strings"
	"sync"
)

type Errors struct {
	E []error
}

var _ error = (*Errors)(nil)

func (e Errors) Wrapped() error {
	if len(e.E) == 0 {
		return nil
	}
	return e
}

// Is reports whether any of the collected errors matches target.
func (e Errors) Is(target error) bool {
	for _, err := range e.E {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (e Errors) Error() string {
	var sb strings.Builder
	l := len(e.E)
	for i, err := range e.E {
		sb.WriteString(err.Error())
		if i < l-1 {
			sb.WriteString(", ")
		}
	}
	return sb.String()
}

// Map applies f to every element with at most concurrencyLimit calls in
// flight. Results keep the order of src regardless of completion order.
// A non-positive limit runs every element concurrently.
func Map[T any, D any](src []T, concurrencyLimit int, f func(T) (D, error)) ([]D, error) {
	if len(src) == 0 {
		return []D{}, nil
	}

	if concurrencyLimit <= 0 {
		concurrencyLimit = len(src)
	}

	var wg sync.WaitGroup

	limiter := make(chan struct{}, concurrencyLimit)
	results := make([]D, len(src))
	failed := make([]error, len(src))

	wg.Add(len(src))
	for i, element := range src {
		limiter <- struct{}{}
		go func(i int, el T) {
			defer func() {
				<-limiter
				wg.Done()
			}()

			r, err := f(el)
			if err != nil {
				failed[i] = err
				return
			}
			results[i] = r
		}(i, element)
	}

	wg.Wait()

	errs := Errors{}
	for _, err := range failed {
		if err != nil {
			errs.E = append(errs.E, err)
		}
	}
	if err := errs.Wrapped(); err != nil {
		return nil, err
	}
	return results, nil
}

func FlatMap[T any, D any](src []T, concurrencyLimit int, f func(T) ([]D, error)) ([]D, error) {
	r, err := Map(src, concurrencyLimit, f)
	if err != nil {
		return nil, err
	}

	flattened := make([]D, 0, len(r))
	for _, v := range r {
		flattened = append(flattened, v...)
	}

	return flattened, nil
}
