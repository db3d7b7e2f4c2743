package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tabulahq/tabula/internal/domain"
	"github.com/tabulahq/tabula/internal/notify"
)

// ---------------------------------------------------------------------------
// Capturing publisher
// ---------------------------------------------------------------------------

type capturePublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *capturePublisher) Publish(_ context.Context, ev notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

// ---------------------------------------------------------------------------
// Mock BoardRepository
// ---------------------------------------------------------------------------

type mockBoardRepo struct {
	createFunc      func(ctx context.Context, b *domain.Board) error
	getByIDFunc     func(ctx context.Context, id uuid.UUID) (*domain.Board, error)
	updateFunc      func(ctx context.Context, b *domain.Board) error
	deleteFunc      func(ctx context.Context, id uuid.UUID) error
	listPublicFunc  func(ctx context.Context, limit, offset int) ([]*domain.Board, error)
	listAllFunc     func(ctx context.Context, limit, offset int) ([]*domain.Board, error)
	listByOwnerFunc func(ctx context.Context, ownerID uuid.UUID) ([]*domain.Board, error)
	countListsFunc  func(ctx context.Context, boardID uuid.UUID) (int, error)
}

func (m *mockBoardRepo) Create(ctx context.Context, b *domain.Board) error {
	return m.createFunc(ctx, b)
}

func (m *mockBoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockBoardRepo) Update(ctx context.Context, b *domain.Board) error {
	return m.updateFunc(ctx, b)
}

func (m *mockBoardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockBoardRepo) ListPublic(ctx context.Context, limit, offset int) ([]*domain.Board, error) {
	return m.listPublicFunc(ctx, limit, offset)
}

func (m *mockBoardRepo) ListAll(ctx context.Context, limit, offset int) ([]*domain.Board, error) {
	return m.listAllFunc(ctx, limit, offset)
}

func (m *mockBoardRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Board, error) {
	return m.listByOwnerFunc(ctx, ownerID)
}

func (m *mockBoardRepo) CountLists(ctx context.Context, boardID uuid.UUID) (int, error) {
	return m.countListsFunc(ctx, boardID)
}

// ---------------------------------------------------------------------------
// Mock MembershipRepository
// ---------------------------------------------------------------------------

type mockMembershipRepo struct {
	isMemberFunc     func(ctx context.Context, boardID, userID uuid.UUID) (bool, error)
	addMemberFunc    func(ctx context.Context, boardID, userID uuid.UUID) error
	removeMemberFunc func(ctx context.Context, boardID, userID uuid.UUID) (bool, error)
	listMembersFunc  func(ctx context.Context, boardID uuid.UUID) ([]*domain.User, error)
	memberIDsFunc    func(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error)
}

func (m *mockMembershipRepo) IsMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error) {
	return m.isMemberFunc(ctx, boardID, userID)
}

func (m *mockMembershipRepo) AddMember(ctx context.Context, boardID, userID uuid.UUID) error {
	return m.addMemberFunc(ctx, boardID, userID)
}

func (m *mockMembershipRepo) RemoveMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error) {
	return m.removeMemberFunc(ctx, boardID, userID)
}

func (m *mockMembershipRepo) ListMembers(ctx context.Context, boardID uuid.UUID) ([]*domain.User, error) {
	return m.listMembersFunc(ctx, boardID)
}

func (m *mockMembershipRepo) MemberIDs(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error) {
	return m.memberIDsFunc(ctx, boardID)
}

// ---------------------------------------------------------------------------
// Mock UserRepository
// ---------------------------------------------------------------------------

type mockUserRepo struct {
	createFunc        func(ctx context.Context, u *domain.User) error
	getByIDFunc       func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	getByUsernameFunc func(ctx context.Context, username string) (*domain.User, error)
	getByEmailFunc    func(ctx context.Context, email string) (*domain.User, error)
	updateFunc        func(ctx context.Context, u *domain.User) error
	listFunc          func(ctx context.Context, limit, offset int) ([]*domain.User, error)
	countFunc         func(ctx context.Context) (int, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	return m.createFunc(ctx, u)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return m.getByUsernameFunc(ctx, username)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getByEmailFunc(ctx, email)
}

func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	return m.updateFunc(ctx, u)
}

func (m *mockUserRepo) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	return m.listFunc(ctx, limit, offset)
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	return m.countFunc(ctx)
}

// ---------------------------------------------------------------------------
// Mock ListRepository
// ---------------------------------------------------------------------------

type mockListRepo struct {
	createFunc      func(ctx context.Context, l *domain.List) error
	getByIDFunc     func(ctx context.Context, boardID, id uuid.UUID) (*domain.List, error)
	listByBoardFunc func(ctx context.Context, boardID uuid.UUID) ([]*domain.List, error)
	renameFunc      func(ctx context.Context, boardID, id uuid.UUID, name string) error
	moveFunc        func(ctx context.Context, boardID, id uuid.UUID, newPos int) error
	deleteFunc      func(ctx context.Context, boardID, id uuid.UUID) error
}

func (m *mockListRepo) Create(ctx context.Context, l *domain.List) error {
	return m.createFunc(ctx, l)
}

func (m *mockListRepo) GetByID(ctx context.Context, boardID, id uuid.UUID) (*domain.List, error) {
	return m.getByIDFunc(ctx, boardID, id)
}

func (m *mockListRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.List, error) {
	return m.listByBoardFunc(ctx, boardID)
}

func (m *mockListRepo) Rename(ctx context.Context, boardID, id uuid.UUID, name string) error {
	return m.renameFunc(ctx, boardID, id, name)
}

func (m *mockListRepo) Move(ctx context.Context, boardID, id uuid.UUID, newPos int) error {
	return m.moveFunc(ctx, boardID, id, newPos)
}

func (m *mockListRepo) Delete(ctx context.Context, boardID, id uuid.UUID) error {
	return m.deleteFunc(ctx, boardID, id)
}

// ---------------------------------------------------------------------------
// Mock CardRepository
// ---------------------------------------------------------------------------

type mockCardRepo struct {
	createFunc          func(ctx context.Context, c *domain.Card) error
	getByIDFunc         func(ctx context.Context, listID, id uuid.UUID) (*domain.Card, error)
	listByListFunc      func(ctx context.Context, listID uuid.UUID) ([]*domain.Card, error)
	countByListFunc     func(ctx context.Context, listID uuid.UUID) (int, error)
	updateFunc          func(ctx context.Context, c *domain.Card) error
	deleteFunc          func(ctx context.Context, listID, id uuid.UUID) error
	dueRemindersFunc    func(ctx context.Context, now time.Time) ([]*domain.Card, error)
	clearReminderFunc   func(ctx context.Context, cardID uuid.UUID) error
	addPerformerFunc    func(ctx context.Context, cardID, userID uuid.UUID) error
	removePerformerFunc func(ctx context.Context, cardID, userID uuid.UUID) (bool, error)
	listPerformersFunc  func(ctx context.Context, cardID uuid.UUID) ([]*domain.User, error)
}

func (m *mockCardRepo) Create(ctx context.Context, c *domain.Card) error {
	return m.createFunc(ctx, c)
}

func (m *mockCardRepo) GetByID(ctx context.Context, listID, id uuid.UUID) (*domain.Card, error) {
	return m.getByIDFunc(ctx, listID, id)
}

func (m *mockCardRepo) ListByList(ctx context.Context, listID uuid.UUID) ([]*domain.Card, error) {
	return m.listByListFunc(ctx, listID)
}

func (m *mockCardRepo) CountByList(ctx context.Context, listID uuid.UUID) (int, error) {
	return m.countByListFunc(ctx, listID)
}

func (m *mockCardRepo) Update(ctx context.Context, c *domain.Card) error {
	return m.updateFunc(ctx, c)
}

func (m *mockCardRepo) Delete(ctx context.Context, listID, id uuid.UUID) error {
	return m.deleteFunc(ctx, listID, id)
}

func (m *mockCardRepo) DueReminders(ctx context.Context, now time.Time) ([]*domain.Card, error) {
	return m.dueRemindersFunc(ctx, now)
}

func (m *mockCardRepo) ClearReminder(ctx context.Context, cardID uuid.UUID) error {
	return m.clearReminderFunc(ctx, cardID)
}

func (m *mockCardRepo) AddPerformer(ctx context.Context, cardID, userID uuid.UUID) error {
	return m.addPerformerFunc(ctx, cardID, userID)
}

func (m *mockCardRepo) RemovePerformer(ctx context.Context, cardID, userID uuid.UUID) (bool, error) {
	return m.removePerformerFunc(ctx, cardID, userID)
}

func (m *mockCardRepo) ListPerformers(ctx context.Context, cardID uuid.UUID) ([]*domain.User, error) {
	return m.listPerformersFunc(ctx, cardID)
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

// fixture is a private board with an owner, one plain member, an outsider,
// and a global admin.
type fixture struct {
	owner    *domain.User
	member   *domain.User
	outsider *domain.User
	admin    *domain.User

	board     *domain.Board
	memberIDs []uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		owner:    &domain.User{ID: uuid.New(), Username: "owner", Role: domain.RoleDefault, Active: true},
		member:   &domain.User{ID: uuid.New(), Username: "member", Role: domain.RoleDefault, Active: true},
		outsider: &domain.User{ID: uuid.New(), Username: "outsider", Role: domain.RoleDefault, Active: true},
		admin:    &domain.User{ID: uuid.New(), Username: "admin", Role: domain.RoleAdmin, Active: true},
	}

	f.board = &domain.Board{
		ID:         uuid.New(),
		Name:       "Roadmap",
		Visibility: domain.VisibilityPrivate,
		OwnerID:    f.owner.ID,
	}
	f.memberIDs = []uuid.UUID{f.member.ID}

	return f
}

// boardRepo returns a mock that serves the fixture board.
func (f *fixture) boardRepo() *mockBoardRepo {
	return &mockBoardRepo{
		getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.Board, error) {
			if id != f.board.ID {
				return nil, domain.ErrNotFound
			}
			return f.board, nil
		},
	}
}

// membershipRepo returns a mock that serves the fixture member set.
func (f *fixture) membershipRepo() *mockMembershipRepo {
	return &mockMembershipRepo{
		memberIDsFunc: func(context.Context, uuid.UUID) ([]uuid.UUID, error) {
			return f.memberIDs, nil
		},
	}
}

// userRepo returns a mock that resolves the fixture users by ID.
func (f *fixture) userRepo() *mockUserRepo {
	return &mockUserRepo{
		getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
			for _, u := range []*domain.User{f.owner, f.member, f.outsider, f.admin} {
				if u.ID == id {
					return u, nil
				}
			}
			return nil, domain.ErrNotFound
		},
	}
}
