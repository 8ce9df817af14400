package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/holiday"
)

type holidayRepository struct {
	s *Store
}

func (r *holidayRepository) Create(ctx context.Context, h holiday.Holiday) (holiday.Holiday, error) {
	defer r.s.begin(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("holiday.create"); err != nil {
		return holiday.Holiday{}, err
	}
	h.UpdatedAt = h.CreatedAt
	r.s.holidays[h.ID] = h
	return h, nil
}

func (r *holidayRepository) GetByID(ctx context.Context, id string) (holiday.Holiday, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.check("holiday.get"); err != nil {
		return holiday.Holiday{}, err
	}
	h, ok := r.s.holidays[id]
	if !ok {
		return holiday.Holiday{}, holiday.ErrHolidayNotFound
	}
	return h, nil
}

func (r *holidayRepository) List(ctx context.Context) ([]holiday.Holiday, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.check("holiday.list"); err != nil {
		return nil, err
	}
	out := make([]holiday.Holiday, 0, len(r.s.holidays))
	for _, h := range r.s.holidays {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *holidayRepository) Update(ctx context.Context, h holiday.Holiday) (holiday.Holiday, error) {
	defer r.s.begin(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("holiday.update"); err != nil {
		return holiday.Holiday{}, err
	}
	existing, ok := r.s.holidays[h.ID]
	if !ok {
		return holiday.Holiday{}, holiday.ErrHolidayNotFound
	}
	h.CreatedAt = existing.CreatedAt
	h.UpdatedAt = time.Now().UTC()
	r.s.holidays[h.ID] = h
	return h, nil
}

func (r *holidayRepository) Delete(ctx context.Context, id string) error {
	defer r.s.begin(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("holiday.delete"); err != nil {
		return err
	}
	if _, ok := r.s.holidays[id]; !ok {
		return holiday.ErrHolidayNotFound
	}
	delete(r.s.holidays, id)
	return nil
}
