package services

import "context"

type Pinger interface {
	Ping(ctx context.Context) error
}

type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthService reports process liveness plus the state of the hard
// dependencies the dashboard cannot serve without.
type HealthService struct {
	checks map[string]Pinger
}

func NewHealthService() *HealthService {
	return &HealthService{checks: make(map[string]Pinger)}
}

func (s *HealthService) Register(name string, p Pinger) {
	s.checks[name] = p
}

// Get returns per-dependency status; true means healthy.
func (s *HealthService) Get(ctx context.Context) map[string]bool {
	out := make(map[string]bool, len(s.checks))
	for name, p := range s.checks {
		out[name] = p.Ping(ctx) == nil
	}
	return out
}
