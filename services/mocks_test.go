package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rpupo63/portfolio-admin-backend/errs"
	"github.com/rpupo63/portfolio-admin-backend/models"
	"gorm.io/gorm"
)

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
)

// mockProjectStore is an in-memory ProjectStore. Transaction snapshots the
// state and restores it when fn fails.
type mockProjectStore struct {
	projects     map[uint]*models.Project
	links        map[uint][]uint
	technologies map[uint]models.Technology
	types        map[uint]models.Type
	nextID       uint
	clock        time.Time

	createErr  error
	updateErr  error
	attachErr  error
	syncErr    error
	purgeErr   error
	findErr    error
	listErr    error
	nameErr    error
	txDepth    int
	detachCall int
}

func newMockProjectStore() *mockProjectStore {
	return &mockProjectStore{
		projects: map[uint]*models.Project{},
		links:    map[uint][]uint{},
		technologies: map[uint]models.Technology{
			1: {ID: 1, Name: "Laravel"},
			2: {ID: 2, Name: "Vue"},
			3: {ID: 3, Name: "Go"},
		},
		types: map[uint]models.Type{
			1: {ID: 1, Name: "Web app"},
		},
		clock: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *mockProjectStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

// seed stores p as-is and returns its id.
func (m *mockProjectStore) seed(p models.Project, technologyIDs ...uint) uint {
	m.nextID++
	p.ID = m.nextID
	now := m.tick()
	p.CreatedAt, p.UpdatedAt = now, now
	m.projects[p.ID] = &p
	if len(technologyIDs) > 0 {
		m.links[p.ID] = append([]uint(nil), technologyIDs...)
	}
	return p.ID
}

func (m *mockProjectStore) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.txDepth > 0 {
		return fn(ctx)
	}

	projects := make(map[uint]*models.Project, len(m.projects))
	for id, p := range m.projects {
		cp := *p
		projects[id] = &cp
	}
	links := make(map[uint][]uint, len(m.links))
	for id, ids := range m.links {
		links[id] = append([]uint(nil), ids...)
	}
	nextID := m.nextID

	m.txDepth++
	err := fn(ctx)
	m.txDepth--
	if err != nil {
		m.projects, m.links, m.nextID = projects, links, nextID
	}
	return err
}

func (m *mockProjectStore) load(p *models.Project) *models.Project {
	cp := *p
	cp.Technologies = []models.Technology{}
	for _, id := range m.sortedLinks(p.ID) {
		cp.Technologies = append(cp.Technologies, m.technologies[id])
	}
	if p.TypeID != nil {
		if t, ok := m.types[*p.TypeID]; ok {
			cp.Type = &t
		}
	}
	return &cp
}

func (m *mockProjectStore) sortedLinks(id uint) []uint {
	ids := append([]uint(nil), m.links[id]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *mockProjectStore) Create(_ context.Context, project *models.Project) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	project.ID = m.nextID
	now := m.tick()
	project.CreatedAt, project.UpdatedAt = now, now
	cp := *project
	cp.Type, cp.Technologies = nil, nil
	m.projects[project.ID] = &cp
	return nil
}

func (m *mockProjectStore) Update(_ context.Context, project *models.Project) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if current, ok := m.projects[project.ID]; !ok || current.IsTrashed() {
		return errs.NewNotFound("project")
	}
	project.UpdatedAt = m.tick()
	cp := *project
	cp.Type, cp.Technologies = nil, nil
	m.projects[project.ID] = &cp
	return nil
}

func (m *mockProjectStore) FindByID(_ context.Context, id uint, includeTrashed bool) (*models.Project, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	p, ok := m.projects[id]
	if !ok || (p.IsTrashed() && !includeTrashed) {
		return nil, errs.NewNotFound("project")
	}
	return m.load(p), nil
}

func (m *mockProjectStore) FindTrashedByID(_ context.Context, id uint) (*models.Project, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	p, ok := m.projects[id]
	if !ok || !p.IsTrashed() {
		return nil, errs.NewNotFound("project")
	}
	return m.load(p), nil
}

func (m *mockProjectStore) ListActive(_ context.Context, filter models.StatusFilter, page, pageSize int) (*models.ProjectPage, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	published := filter.Published()
	var items []models.Project
	for _, p := range m.projects {
		if p.IsTrashed() || (published != nil && p.IsPublished != *published) {
			continue
		}
		items = append(items, *m.load(p))
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			return items[i].UpdatedAt.After(items[j].UpdatedAt)
		}
		return items[i].ID > items[j].ID
	})
	return pageOf(items, page, pageSize), nil
}

func (m *mockProjectStore) ListTrashed(_ context.Context, page, pageSize int) (*models.ProjectPage, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var items []models.Project
	for _, p := range m.projects {
		if p.IsTrashed() {
			items = append(items, *m.load(p))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].DeletedAt.Time.Equal(items[j].DeletedAt.Time) {
			return items[i].DeletedAt.Time.After(items[j].DeletedAt.Time)
		}
		return items[i].ID > items[j].ID
	})
	return pageOf(items, page, pageSize), nil
}

func pageOf(items []models.Project, page, pageSize int) *models.ProjectPage {
	total := int64(len(items))
	start := (page - 1) * pageSize
	if start > len(items) {
		start = len(items)
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return models.NewProjectPage(items[start:end], page, pageSize, total)
}

func (m *mockProjectStore) SoftDelete(_ context.Context, id uint) error {
	p, ok := m.projects[id]
	if !ok || p.IsTrashed() {
		return errs.NewNotFound("project")
	}
	p.DeletedAt = gorm.DeletedAt{Time: m.tick(), Valid: true}
	return nil
}

func (m *mockProjectStore) Restore(_ context.Context, id uint) error {
	p, ok := m.projects[id]
	if !ok || !p.IsTrashed() {
		return errs.NewNotFound("project")
	}
	p.DeletedAt = gorm.DeletedAt{}
	return nil
}

func (m *mockProjectStore) Purge(_ context.Context, id uint) error {
	if m.purgeErr != nil {
		return m.purgeErr
	}
	if _, ok := m.projects[id]; !ok {
		return errs.NewNotFound("project")
	}
	delete(m.projects, id)
	return nil
}

func (m *mockProjectStore) NameTaken(_ context.Context, name string, excludeID uint) (bool, error) {
	if m.nameErr != nil {
		return false, m.nameErr
	}
	for _, p := range m.projects {
		if p.Name == name && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockProjectStore) TechnologyIDs(_ context.Context, id uint) ([]uint, error) {
	return m.sortedLinks(id), nil
}

func (m *mockProjectStore) Attach(_ context.Context, id uint, technologyIDs []uint) error {
	if m.attachErr != nil {
		return m.attachErr
	}
	for _, techID := range technologyIDs {
		if !containsID(m.links[id], techID) {
			m.links[id] = append(m.links[id], techID)
		}
	}
	return nil
}

func (m *mockProjectStore) Sync(_ context.Context, id uint, technologyIDs []uint) error {
	if m.syncErr != nil {
		return m.syncErr
	}
	m.links[id] = append([]uint(nil), technologyIDs...)
	return nil
}

func (m *mockProjectStore) DetachAll(_ context.Context, id uint) error {
	m.detachCall++
	delete(m.links, id)
	return nil
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type mockTechnologyStore struct {
	store *mockProjectStore
	err   error
}

func (m *mockTechnologyStore) FindAll(_ context.Context) ([]models.Technology, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Technology
	for _, t := range m.store.technologies {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockTechnologyStore) MissingIDs(_ context.Context, ids []uint) ([]uint, error) {
	if m.err != nil {
		return nil, m.err
	}
	var missing []uint
	for _, id := range ids {
		if _, ok := m.store.technologies[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

type mockTypeStore struct {
	store *mockProjectStore
	err   error
}

func (m *mockTypeStore) FindAll(_ context.Context) ([]models.Type, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Type
	for _, t := range m.store.types {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTypeStore) Exists(_ context.Context, id uint) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.store.types[id]
	return ok, nil
}

type mockBlobStore struct {
	blobs     map[string][]byte
	deleted   []string
	putErr    error
	deleteErr error
	n         int
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{blobs: map[string][]byte{}}
}

func (m *mockBlobStore) Put(_ context.Context, namespace string, data []byte, contentType string) (string, error) {
	if m.putErr != nil {
		return "", m.putErr
	}
	m.n++
	ref := fmt.Sprintf("%s/blob-%d", namespace, m.n)
	m.blobs[ref] = data
	return ref, nil
}

func (m *mockBlobStore) Delete(_ context.Context, ref string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, ref)
	delete(m.blobs, ref)
	return nil
}

type mockMailQueue struct {
	messages []MailMessage
	err      error
}

func (m *mockMailQueue) Enqueue(_ context.Context, msg MailMessage) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

type serviceFixture struct {
	store *mockProjectStore
	blobs *mockBlobStore
	mails *mockMailQueue
	svc   *ProjectService
}

func newServiceFixture() *serviceFixture {
	store := newMockProjectStore()
	blobs := newMockBlobStore()
	mails := &mockMailQueue{}
	svc := NewProjectService(store, &mockTechnologyStore{store: store}, &mockTypeStore{store: store}, blobs, mails, "https://portfolio.example.com/")
	return &serviceFixture{store: store, blobs: blobs, mails: mails, svc: svc}
}

func strPtr(s string) *string { return &s }

func uintPtr(v uint) *uint { return &v }
