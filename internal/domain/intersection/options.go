package intersection

import "time"

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used to mint ids.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithListener registers listeners notified after every mutation.
func WithListener(listeners ...ChangeListener) Option {
	return func(s *Service) {
		for _, l := range listeners {
			if l != nil {
				s.listeners = append(s.listeners, l)
			}
		}
	}
}
