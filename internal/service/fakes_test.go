package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/coworkdir/admin-api/internal/model"
	"github.com/coworkdir/admin-api/internal/queue"
	"github.com/coworkdir/admin-api/internal/repository"
)

var clock = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

type memSpaces struct {
	rows   map[uint64]*model.Space
	nextID uint64
	seq    int
	locs   *memLocations
}

func newMemSpaces(locs *memLocations) *memSpaces {
	return &memSpaces{rows: map[uint64]*model.Space{}, locs: locs}
}

func (m *memSpaces) live(id uint64) (*model.Space, bool) {
	sp, ok := m.rows[id]
	if !ok || sp.IsDeleted {
		return nil, false
	}
	return sp, true
}

func (m *memSpaces) withCity(sp model.Space) *model.Space {
	if l, ok := m.locs.rows[sp.CityID]; ok {
		sp.CityName = l.Name
	}
	return &sp
}

func (m *memSpaces) FindAll(_ context.Context, f repository.SpaceFilter, p repository.Page) ([]model.Space, int64, error) {
	var all []model.Space
	for _, sp := range m.rows {
		if sp.IsDeleted || (f.Status != "" && sp.Status != f.Status) {
			continue
		}
		all = append(all, *m.withCity(*sp))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	start := p.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (m *memSpaces) FindFeatured(context.Context) ([]model.Space, error) {
	var out []model.Space
	for _, sp := range m.rows {
		if !sp.IsDeleted && sp.IsFeatured {
			out = append(out, *m.withCity(*sp))
		}
	}
	return out, nil
}

func (m *memSpaces) FindByID(_ context.Context, id uint64) (*model.Space, error) {
	sp, ok := m.live(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m.withCity(*sp), nil
}

func (m *memSpaces) FindBySpaceID(_ context.Context, key string) (*model.Space, error) {
	for _, sp := range m.rows {
		if !sp.IsDeleted && sp.SpaceID == key {
			return m.withCity(*sp), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memSpaces) Create(_ context.Context, sp *model.Space) error {
	m.nextID++
	m.seq++
	sp.ID = m.nextID
	sp.SpaceID = repository.FormatID("SP", clock.Year(), m.seq)
	sp.CreatedAt, sp.UpdatedAt = clock, clock
	cp := *sp
	m.rows[sp.ID] = &cp
	*sp = *m.withCity(cp)
	return nil
}

func (m *memSpaces) UpdateByID(_ context.Context, id uint64, sp *model.Space) error {
	cur, ok := m.live(id)
	if !ok {
		return repository.ErrNotFound
	}
	next := *sp
	next.ID, next.SpaceID, next.CreatedAt = cur.ID, cur.SpaceID, cur.CreatedAt
	m.rows[id] = &next
	*sp = *m.withCity(next)
	return nil
}

func (m *memSpaces) SoftDeleteByID(_ context.Context, id uint64) error {
	sp, ok := m.live(id)
	if !ok {
		return repository.ErrNotFound
	}
	sp.IsDeleted = true
	return nil
}

func (m *memSpaces) HardDeleteByID(_ context.Context, id uint64) error {
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memSpaces) ExistsByNameAndCity(_ context.Context, name string, cityID, excludeID uint64) (bool, error) {
	for _, sp := range m.rows {
		if !sp.IsDeleted && sp.ID != excludeID && sp.CityID == cityID && strings.EqualFold(sp.SpaceName, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memSpaces) CountByCity(_ context.Context, cityID uint64) (int64, error) {
	var n int64
	for _, sp := range m.rows {
		if !sp.IsDeleted && sp.CityID == cityID {
			n++
		}
	}
	return n, nil
}

type memLocations struct {
	rows   map[uint64]*model.Location
	nextID uint64
}

func newMemLocations(names ...string) *memLocations {
	m := &memLocations{rows: map[uint64]*model.Location{}}
	for _, n := range names {
		m.nextID++
		m.rows[m.nextID] = &model.Location{ID: m.nextID, Name: n, IsActive: true, CreatedAt: clock}
	}
	return m
}

func (m *memLocations) List(_ context.Context, active *bool) ([]model.Location, error) {
	var out []model.Location
	for _, l := range m.rows {
		if active == nil || l.IsActive == *active {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memLocations) FindByID(_ context.Context, id uint64) (*model.Location, error) {
	l, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memLocations) ExistsByName(_ context.Context, name string, excludeID uint64) (bool, error) {
	for _, l := range m.rows {
		if l.ID != excludeID && strings.EqualFold(l.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memLocations) Create(_ context.Context, l *model.Location) error {
	m.nextID++
	l.ID = m.nextID
	l.CreatedAt, l.UpdatedAt = clock, clock
	cp := *l
	m.rows[l.ID] = &cp
	return nil
}

func (m *memLocations) Update(_ context.Context, l *model.Location) error {
	if _, ok := m.rows[l.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *l
	m.rows[l.ID] = &cp
	return nil
}

func (m *memLocations) Delete(_ context.Context, id uint64) error {
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memLocations) CountActive(context.Context) (int64, error) {
	var n int64
	for _, l := range m.rows {
		if l.IsActive {
			n++
		}
	}
	return n, nil
}

type memLeads struct {
	rows   map[uint64]*model.Lead
	nextID uint64
}

func newMemLeads() *memLeads { return &memLeads{rows: map[uint64]*model.Lead{}} }

func (m *memLeads) FindAll(_ context.Context, f repository.LeadFilter, p repository.Page) ([]model.Lead, int64, error) {
	var all []model.Lead
	for _, l := range m.rows {
		if !l.IsDeleted && (f.Status == "" || l.Status == f.Status) {
			all = append(all, *l)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	if p.Offset() >= len(all) {
		return nil, total, nil
	}
	end := p.Offset() + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[p.Offset():end], total, nil
}

func (m *memLeads) FindRecent(ctx context.Context, n int) ([]model.Lead, error) {
	rows, _, err := m.FindAll(ctx, repository.LeadFilter{}, repository.Page{Page: 1, Limit: n})
	return rows, err
}

func (m *memLeads) FindByID(_ context.Context, id uint64) (*model.Lead, error) {
	l, ok := m.rows[id]
	if !ok || l.IsDeleted {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memLeads) FindByLeadID(_ context.Context, key string) (*model.Lead, error) {
	for _, l := range m.rows {
		if !l.IsDeleted && l.LeadID == key {
			cp := *l
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memLeads) Create(_ context.Context, l *model.Lead) error {
	m.nextID++
	l.ID = m.nextID
	l.LeadID = repository.FormatID("LD", clock.Year(), int(m.nextID))
	l.CreatedAt, l.UpdatedAt = clock, clock
	cp := *l
	m.rows[l.ID] = &cp
	return nil
}

func (m *memLeads) UpdateByID(ctx context.Context, id uint64, l *model.Lead) error {
	cur, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	next := *l
	next.ID, next.LeadID = cur.ID, cur.LeadID
	m.rows[id] = &next
	*l = next
	return nil
}

func (m *memLeads) UpdateStatus(ctx context.Context, id uint64, status string) (*model.Lead, error) {
	if _, err := m.FindByID(ctx, id); err != nil {
		return nil, err
	}
	m.rows[id].Status = status
	return m.FindByID(ctx, id)
}

func (m *memLeads) SoftDeleteByID(ctx context.Context, id uint64) error {
	if _, err := m.FindByID(ctx, id); err != nil {
		return err
	}
	m.rows[id].IsDeleted = true
	return nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []queue.Event
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, ev queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type countingPurger struct{ n int }

func (c *countingPurger) Purge(context.Context) error {
	c.n++
	return nil
}

type memBlob struct {
	objects map[string][]byte
	types   map[string]string
	failPut string
}

func newMemBlob() *memBlob {
	return &memBlob{objects: map[string][]byte{}, types: map[string]string{}}
}

func (b *memBlob) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	if b.failPut != "" && strings.Contains(key, b.failPut) {
		return "", io.ErrUnexpectedEOF
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.objects[key] = data
	b.types[key] = contentType
	return b.ObjectURL(key), nil
}

func (b *memBlob) Delete(_ context.Context, key string) error {
	delete(b.objects, key)
	return nil
}

func (b *memBlob) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	return "https://signed.example/" + key + "?ttl=" + ttl.String(), nil
}

func (b *memBlob) PresignedPut(_ context.Context, key string, ttl time.Duration) (string, error) {
	return "https://put.example/" + key + "?ttl=" + ttl.String(), nil
}

func (b *memBlob) ObjectURL(key string) string { return "https://cdn.example/" + key }
