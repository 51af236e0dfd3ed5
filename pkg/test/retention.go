package test

import (
	"github.com/rs/zerolog/log"
)

// Purge does a single pass over every inbox, deleting messages whose retention date has
// passed. It returns the number of messages deleted.
func (s *Service) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	purged, retained := 0, 0
	for _, acct := range s.accounts {
		kept := acct.messages[:0]
		for _, m := range acct.messages {
			if !m.Retention || now.Before(m.RetentionDate) {
				kept = append(kept, m)
				retained++
				continue
			}
			log.Debug().Str("module", "test").Str("address", acct.Address).Str("id", m.ID).
				Msg("Purging expired message")
			delete(acct.sources, m.ID)
			acct.Used -= m.Size
			purged++
		}
		acct.messages = kept
	}
	log.Debug().Str("module", "test").Int("purged", purged).Int("retained", retained).
		Msg("Retention scan completed")
	return purged
}
