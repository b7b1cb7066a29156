package artifact

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// PublishError reports an artifact that could not be published — most
// commonly one that no step produced.
type PublishError struct {
	Ref string
	Err error
}

func (e *PublishError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("artifact %q was not produced by any step", e.Ref)
	}
	return fmt.Sprintf("publishing %q: %v", e.Ref, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Result summarizes a publish pass.
type Result struct {
	Published []string // refs pushed, in document order
	Duration  time.Duration
}

// Publisher pushes declared image artifacts after a successful run.
type Publisher struct {
	Client   Client
	Parallel int  // concurrent pushes; <=0 means 4
	DryRun   bool // validate and verify only, push nothing
}

// Publish validates, verifies, and pushes every declared image. All refs
// are validated and checked for existence before any push starts, so a
// missing artifact aborts with no partial uploads from this pass.
func (p *Publisher) Publish(ctx context.Context, images []string) (*Result, error) {
	start := time.Now()

	for _, img := range images {
		if _, err := ParseRef(img); err != nil {
			return nil, &PublishError{Ref: img, Err: err}
		}
	}

	for _, img := range images {
		ok, err := p.Client.Exists(ctx, img)
		if err != nil {
			return nil, &PublishError{Ref: img, Err: err}
		}
		if !ok {
			return nil, &PublishError{Ref: img}
		}
	}

	if p.DryRun {
		return &Result{Published: nil, Duration: time.Since(start)}, nil
	}

	limit := p.Parallel
	if limit <= 0 {
		limit = 4
	}

	var mu sync.Mutex
	order := make(map[string]int, len(images))
	for i, img := range images {
		order[img] = i
	}
	var published []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, img := range images {
		img := img
		g.Go(func() error {
			if err := p.Client.Push(gctx, img); err != nil {
				return &PublishError{Ref: img, Err: err}
			}
			mu.Lock()
			published = append(published, img)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(published, func(i, j int) bool {
		return order[published[i]] < order[published[j]]
	})

	return &Result{Published: published, Duration: time.Since(start)}, nil
}
