package scheduler

import "github.com/jdziat/hris-replica/pkg/core"

// Events returns a channel receiving scheduler events. Slow consumers miss
// events rather than blocking the scheduler.
func (s *Scheduler) Events() <-chan core.Event {
	ch := make(chan core.Event, 100)
	s.subsMu.Lock()
	s.eventSubs = append(s.eventSubs, ch)
	s.subsMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel returned by Events.
func (s *Scheduler) Unsubscribe(ch <-chan core.Event) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for i, sub := range s.eventSubs {
		if sub == ch {
			s.eventSubs = append(s.eventSubs[:i], s.eventSubs[i+1:]...)
			close(sub)
			return
		}
	}
}

// Emit sends an event to every subscriber.
func (s *Scheduler) Emit(e core.Event) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.eventSubs {
		select {
		case sub <- e:
		default:
		}
	}
}
