// Package memory provides in-process repository implementations backing
// tests and single-node development runs. Production deployments use the
// gorm repositories.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/terrizoaguimor/kore-shield/pkg/domain/alert"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/blockedip"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/visit"
)

type VisitRepository struct {
	mu     sync.RWMutex
	visits []visit.Visit
	// FailCreate forces Create to return this error, for degraded-path tests.
	FailCreate error
}

func NewVisitRepository() *VisitRepository {
	return &VisitRepository{}
}

func (r *VisitRepository) Create(_ context.Context, v *visit.Visit) error {
	if r.FailCreate != nil {
		return r.FailCreate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	r.visits = append(r.visits, *v)
	return nil
}

func (r *VisitRepository) CountSince(_ context.Context, ip, path string, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, v := range r.visits {
		if v.IPAddress == ip && v.Path == path && !v.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *VisitRepository) ListSince(_ context.Context, since time.Time) ([]visit.Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []visit.Visit
	for _, v := range r.visits {
		if !v.CreatedAt.Before(since) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *VisitRepository) All() []visit.Visit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]visit.Visit, len(r.visits))
	copy(out, r.visits)
	return out
}

type BlockedIPRepository struct {
	mu     sync.RWMutex
	blocks map[string]blockedip.BlockedIP
	// FailOps forces every operation to return this error.
	FailOps error
}

func NewBlockedIPRepository() *BlockedIPRepository {
	return &BlockedIPRepository{
		blocks: make(map[string]blockedip.BlockedIP),
	}
}

func (r *BlockedIPRepository) Upsert(_ context.Context, block *blockedip.BlockedIP) error {
	if r.FailOps != nil {
		return r.FailOps
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks[block.IPAddress] = *block
	return nil
}

func (r *BlockedIPRepository) Delete(_ context.Context, ip string) (bool, error) {
	if r.FailOps != nil {
		return false, r.FailOps
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blocks[ip]; !ok {
		return false, nil
	}
	delete(r.blocks, ip)
	return true, nil
}

func (r *BlockedIPRepository) ExistsActive(_ context.Context, ip string, now time.Time) (bool, error) {
	if r.FailOps != nil {
		return false, r.FailOps
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	block, ok := r.blocks[ip]
	if !ok {
		return false, nil
	}
	return block.Active(now), nil
}

func (r *BlockedIPRepository) ListActive(_ context.Context, now time.Time) ([]blockedip.BlockedIP, error) {
	if r.FailOps != nil {
		return nil, r.FailOps
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []blockedip.BlockedIP
	for _, block := range r.blocks {
		if block.Active(now) {
			out = append(out, block)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BlockedAt.After(out[j].BlockedAt) })
	return out, nil
}

func (r *BlockedIPRepository) Get(ip string) (blockedip.BlockedIP, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	block, ok := r.blocks[ip]
	return block, ok
}

type AlertRepository struct {
	mu     sync.RWMutex
	alerts []alert.Alert
}

func NewAlertRepository() *AlertRepository {
	return &AlertRepository{}
}

func (r *AlertRepository) Create(_ context.Context, a *alert.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	r.alerts = append(r.alerts, *a)
	return nil
}

func (r *AlertRepository) ListRecent(_ context.Context, limit int) ([]alert.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]alert.Alert, len(r.alerts))
	copy(out, r.alerts)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *AlertRepository) All() []alert.Alert {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]alert.Alert, len(r.alerts))
	copy(out, r.alerts)
	return out
}

func (r *AlertRepository) CountByType(alertType alert.Type) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, a := range r.alerts {
		if a.Type == alertType {
			count++
		}
	}
	return count
}
