package service

import (
	"fmt"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/connection"
)

// Watch makes observer receive a copy of target's output. The target's
// recent output is replayed to the observer first.
func (s *Service) Watch(observerID, targetID string) error {
	observer, ok := s.conns.Get(observerID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, observerID)
	}
	if _, ok := s.conns.Get(targetID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, targetID)
	}

	replay, err := s.spies.Watch(observerID, targetID)
	if err != nil {
		return err
	}
	if len(replay) > 0 {
		observer.Observe(string(replay))
	}
	s.debug("observer attached", "observer", observerID, "target", targetID)
	return nil
}

// Unwatch detaches observer and returns the id it was watching.
func (s *Service) Unwatch(observerID string) (string, error) {
	target, err := s.spies.Unwatch(observerID)
	if err != nil {
		return "", err
	}
	s.debug("observer detached", "observer", observerID, "target", target)
	return target, nil
}

// Watching returns the id observer is watching.
func (s *Service) Watching(observerID string) (string, bool) {
	return s.spies.Watching(observerID)
}

// Observers returns the number of observer links.
func (s *Service) Observers() int {
	return s.spies.Len()
}

// tap copies text queued for c to its observers and its replay history.
func (s *Service) tap(c *connection.Conn, text string) {
	s.spies.Record(c.ID(), []byte(text))
	for _, id := range s.spies.Watchers(c.ID()) {
		if o, ok := s.conns.Get(id); ok {
			o.Observe(text)
		}
	}
}
