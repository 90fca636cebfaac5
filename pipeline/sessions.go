package pipeline

import (
	"context"

	"github.com/use-agent/sitegrade/browser"
)

// RodPool adapts the concrete browser pool to the SessionPool seam.
type RodPool struct {
	Pool *browser.Pool
}

func (p RodPool) Acquire(ctx context.Context) (Session, error) {
	pg, err := p.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return pg, nil
}

func (p RodPool) Release(s Session, success bool) {
	if pg, ok := s.(*browser.Page); ok {
		p.Pool.Release(pg, success)
	}
}
