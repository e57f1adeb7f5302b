package store

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithClock sets the time source. Tests freeze it to pin cache expiry.
func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithClientID sets the device identity stamped onto new score records.
func WithClientID(id string) Option {
	return func(s *Store) {
		if id != "" {
			s.clientID = id
		}
	}
}
