package health

import (
	"context"
	"time"
)

const checkTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Status is the health payload. Checks maps a dependency name to "ok" or
// the error it returned.
type Status struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Service reports whether the API's dependencies are reachable.
type Service struct {
	deps map[string]Pinger
}

// NewService constructs a health service. Nil pingers are ignored.
func NewService(deps map[string]Pinger) *Service {
	s := &Service{deps: map[string]Pinger{}}
	for name, p := range deps {
		if p != nil {
			s.deps[name] = p
		}
	}
	return s
}

// Status pings every dependency.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{OK: true}
	if s == nil || len(s.deps) == 0 {
		return st
	}
	st.Checks = make(map[string]string, len(s.deps))
	for name, p := range s.deps {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := p.PingContext(cctx)
		cancel()
		if err != nil {
			st.OK = false
			st.Checks[name] = err.Error()
			continue
		}
		st.Checks[name] = "ok"
	}
	return st
}
