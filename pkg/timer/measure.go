package timer

import "github.com/cockroachdb/errors"

// Measure runs fn inside a Tic/Toc pair. The toc resolves by label, so
// fn may open and close its own nested blocks freely. The toc runs even
// when fn fails; fn's error and any toc error are combined.
func (s *Session) Measure(label string, fn func() error) error {
	assigned := s.Tic(label)

	fnErr := fn()

	_, tocErr := s.Toc(assigned)

	return errors.CombineErrors(fnErr, tocErr)
}
