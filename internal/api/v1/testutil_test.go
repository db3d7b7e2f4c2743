package v1_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"

	v1 "github.com/tabulahq/tabula/internal/api/v1"
	"github.com/tabulahq/tabula/internal/domain"
	"github.com/tabulahq/tabula/internal/notify"
	"github.com/tabulahq/tabula/internal/position"
	"github.com/tabulahq/tabula/internal/server/middleware"
	"github.com/tabulahq/tabula/internal/service"
)

// userCtx injects an authenticated user into the request context, standing in
// for the auth middleware.
func userCtx(userID uuid.UUID) context.Context {
	return context.WithValue(context.Background(), middleware.ContextKeyUserID, userID)
}

// ---------------------------------------------------------------------------
// In-memory DataStore
//
// The handlers delegate to the service layer, so handler tests run the full
// stack above a map-backed store instead of stubbing individual repo calls.
// ---------------------------------------------------------------------------

type memStore struct {
	mu         sync.Mutex
	users      map[uuid.UUID]*domain.User
	boards     map[uuid.UUID]*domain.Board
	members    map[uuid.UUID]map[uuid.UUID]bool // boardID -> member set
	lists      map[uuid.UUID]*domain.List
	cards      map[uuid.UUID]*domain.Card
	performers map[uuid.UUID]map[uuid.UUID]bool // cardID -> performer set
}

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[uuid.UUID]*domain.User),
		boards:     make(map[uuid.UUID]*domain.Board),
		members:    make(map[uuid.UUID]map[uuid.UUID]bool),
		lists:      make(map[uuid.UUID]*domain.List),
		cards:      make(map[uuid.UUID]*domain.Card),
		performers: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (s *memStore) Users() domain.UserRepository             { return memUsers{s} }
func (s *memStore) Boards() domain.BoardRepository           { return memBoards{s} }
func (s *memStore) Memberships() domain.MembershipRepository { return memMembers{s} }
func (s *memStore) Lists() domain.ListRepository             { return memLists{s} }
func (s *memStore) Cards() domain.CardRepository             { return memCards{s} }

var _ v1.DataStore = (*memStore)(nil)

// seedUser registers a user directly in the store.
func (s *memStore) seedUser(username string, role domain.Role) *domain.User {
	u := &domain.User{
		ID:       uuid.New(),
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
		Active:   true,
	}
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
	return u
}

// seedBoard creates a board with the given owner and members.
func (s *memStore) seedBoard(name string, visibility domain.Visibility, owner *domain.User, members ...*domain.User) *domain.Board {
	b := &domain.Board{
		ID:         uuid.New(),
		Name:       name,
		Visibility: visibility,
		OwnerID:    owner.ID,
	}
	s.mu.Lock()
	s.boards[b.ID] = b
	set := make(map[uuid.UUID]bool)
	for _, m := range members {
		set[m.ID] = true
	}
	s.members[b.ID] = set
	s.mu.Unlock()
	return b
}

// seedList appends a list to the board.
func (s *memStore) seedList(boardID uuid.UUID, name string) *domain.List {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := 0
	for _, l := range s.lists {
		if l.BoardID == boardID && l.Position > max {
			max = l.Position
		}
	}
	l := &domain.List{ID: uuid.New(), BoardID: boardID, Name: name, Position: max + 1}
	s.lists[l.ID] = l
	return l
}

// seedCard adds a card to the list.
func (s *memStore) seedCard(listID uuid.UUID, title string, responsible uuid.UUID) *domain.Card {
	c := &domain.Card{
		ID:            uuid.New(),
		ListID:        listID,
		Title:         title,
		Priority:      domain.PriorityMedium,
		ResponsibleID: responsible,
	}
	s.mu.Lock()
	s.cards[c.ID] = c
	s.mu.Unlock()
	return c
}

// --- UserRepository ---

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return domain.ErrConflict
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memUsers) Update(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r memUsers) List(_ context.Context, limit, offset int) ([]*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r memUsers) Count(context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.users), nil
}

// --- BoardRepository ---

type memBoards struct{ s *memStore }

func (r memBoards) Create(_ context.Context, b *domain.Board) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *b
	r.s.boards[b.ID] = &cp
	r.s.members[b.ID] = make(map[uuid.UUID]bool)
	return nil
}

func (r memBoards) GetByID(_ context.Context, id uuid.UUID) (*domain.Board, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.boards[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r memBoards) Update(_ context.Context, b *domain.Board) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.boards[b.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *b
	r.s.boards[b.ID] = &cp
	return nil
}

func (r memBoards) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.boards[id]; !ok {
		return domain.ErrNotFound
	}
	for lid, l := range r.s.lists {
		if l.BoardID != id {
			continue
		}
		for cid, c := range r.s.cards {
			if c.ListID == lid {
				delete(r.s.cards, cid)
				delete(r.s.performers, cid)
			}
		}
		delete(r.s.lists, lid)
	}
	delete(r.s.members, id)
	delete(r.s.boards, id)
	return nil
}

func (r memBoards) listWhere(keep func(*domain.Board) bool, limit, offset int) []*domain.Board {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Board
	for _, b := range r.s.boards {
		if keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if offset >= len(out) {
		return nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

func (r memBoards) ListPublic(_ context.Context, limit, offset int) ([]*domain.Board, error) {
	return r.listWhere(func(b *domain.Board) bool { return b.Visibility == domain.VisibilityPublic }, limit, offset), nil
}

func (r memBoards) ListAll(_ context.Context, limit, offset int) ([]*domain.Board, error) {
	return r.listWhere(func(*domain.Board) bool { return true }, limit, offset), nil
}

func (r memBoards) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Board, error) {
	return r.listWhere(func(b *domain.Board) bool { return b.OwnerID == ownerID }, 0, 0), nil
}

func (r memBoards) CountLists(_ context.Context, boardID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, l := range r.s.lists {
		if l.BoardID == boardID {
			n++
		}
	}
	return n, nil
}

// --- MembershipRepository ---

type memMembers struct{ s *memStore }

func (r memMembers) IsMember(_ context.Context, boardID, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.members[boardID][userID], nil
}

func (r memMembers) AddMember(_ context.Context, boardID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.members[boardID] == nil {
		r.s.members[boardID] = make(map[uuid.UUID]bool)
	}
	if r.s.members[boardID][userID] {
		return domain.ErrConflict
	}
	r.s.members[boardID][userID] = true
	return nil
}

func (r memMembers) RemoveMember(_ context.Context, boardID, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.members[boardID][userID] {
		return false, nil
	}
	delete(r.s.members[boardID], userID)
	return true, nil
}

func (r memMembers) ListMembers(_ context.Context, boardID uuid.UUID) ([]*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.User
	for id := range r.s.members[boardID] {
		if u, ok := r.s.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r memMembers) MemberIDs(_ context.Context, boardID uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []uuid.UUID
	for id := range r.s.members[boardID] {
		out = append(out, id)
	}
	return out, nil
}

// --- ListRepository ---

type memLists struct{ s *memStore }

func (r memLists) boardLists(boardID uuid.UUID) []*domain.List {
	var out []*domain.List
	for _, l := range r.s.lists {
		if l.BoardID == boardID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func (r memLists) Create(_ context.Context, l *domain.List) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	max := 0
	for _, existing := range r.s.lists {
		if existing.BoardID == l.BoardID && existing.Position > max {
			max = existing.Position
		}
	}
	l.Position = max + 1
	cp := *l
	r.s.lists[l.ID] = &cp
	return nil
}

func (r memLists) GetByID(_ context.Context, boardID, id uuid.UUID) (*domain.List, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lists[id]
	if !ok || l.BoardID != boardID {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r memLists) ListByBoard(_ context.Context, boardID uuid.UUID) ([]*domain.List, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.boardLists(boardID), nil
}

func (r memLists) Rename(_ context.Context, boardID, id uuid.UUID, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lists[id]
	if !ok || l.BoardID != boardID {
		return domain.ErrNotFound
	}
	l.Name = name
	return nil
}

func (r memLists) Move(_ context.Context, boardID, id uuid.UUID, newPos int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l, ok := r.s.lists[id]; !ok || l.BoardID != boardID {
		return domain.ErrNotFound
	}
	plan, err := position.PlanMove(r.boardLists(boardID), id, newPos)
	if err != nil {
		return err
	}
	for _, ch := range plan {
		r.s.lists[ch.ListID].Position = ch.Position
	}
	return nil
}

func (r memLists) Delete(_ context.Context, boardID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l, ok := r.s.lists[id]; !ok || l.BoardID != boardID {
		return domain.ErrNotFound
	}
	_, plan, err := position.PlanRemoval(r.boardLists(boardID), id)
	if err != nil {
		return err
	}
	for cid, c := range r.s.cards {
		if c.ListID == id {
			delete(r.s.cards, cid)
			delete(r.s.performers, cid)
		}
	}
	delete(r.s.lists, id)
	for _, ch := range plan {
		r.s.lists[ch.ListID].Position = ch.Position
	}
	return nil
}

// --- CardRepository ---

type memCards struct{ s *memStore }

func (r memCards) Create(_ context.Context, c *domain.Card) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *c
	r.s.cards[c.ID] = &cp
	return nil
}

func (r memCards) GetByID(_ context.Context, listID, id uuid.UUID) (*domain.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cards[id]
	if !ok || c.ListID != listID {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memCards) ListByList(_ context.Context, listID uuid.UUID) ([]*domain.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Card
	for _, c := range r.s.cards {
		if c.ListID == listID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r memCards) CountByList(_ context.Context, listID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, c := range r.s.cards {
		if c.ListID == listID {
			n++
		}
	}
	return n, nil
}

func (r memCards) Update(_ context.Context, c *domain.Card) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.cards[c.ID]; !ok || existing.ListID != c.ListID {
		return domain.ErrNotFound
	}
	cp := *c
	r.s.cards[c.ID] = &cp
	return nil
}

func (r memCards) Delete(_ context.Context, listID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.cards[id]; !ok || c.ListID != listID {
		return domain.ErrNotFound
	}
	delete(r.s.cards, id)
	delete(r.s.performers, id)
	return nil
}

func (r memCards) DueReminders(_ context.Context, now time.Time) ([]*domain.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Card
	for _, c := range r.s.cards {
		if c.ReminderAt != nil && !c.ReminderAt.After(now) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReminderAt.Before(*out[j].ReminderAt) })
	return out, nil
}

func (r memCards) ClearReminder(_ context.Context, cardID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.cards[cardID]; ok {
		c.ReminderAt = nil
	}
	return nil
}

func (r memCards) AddPerformer(_ context.Context, cardID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.performers[cardID] == nil {
		r.s.performers[cardID] = make(map[uuid.UUID]bool)
	}
	if r.s.performers[cardID][userID] {
		return domain.ErrConflict
	}
	r.s.performers[cardID][userID] = true
	return nil
}

func (r memCards) RemovePerformer(_ context.Context, cardID, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.performers[cardID][userID] {
		return false, nil
	}
	delete(r.s.performers[cardID], userID)
	return true, nil
}

func (r memCards) ListPerformers(_ context.Context, cardID uuid.UUID) ([]*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.User
	for id := range r.s.performers[cardID] {
		if u, ok := r.s.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// ---------------------------------------------------------------------------
// API assembly
// ---------------------------------------------------------------------------

// newTestAPI wires every board-facing route over a fresh in-memory store.
func newTestAPI(t *testing.T) (humatest.TestAPI, *memStore) {
	_, api := humatest.New(t)
	store := newMemStore()

	events := notify.Nop{}
	boardSvc := service.NewBoardService(store.Boards(), store.Memberships(), store.Users(), events)
	listSvc := service.NewListService(boardSvc, store.Lists(), store.Cards(), events)
	cardSvc := service.NewCardService(boardSvc, store.Lists(), store.Cards(), store.Users(), events)

	v1.RegisterUserRoutes(api, store)
	v1.RegisterBoardRoutes(api, store, boardSvc)
	v1.RegisterListRoutes(api, store, listSvc)
	v1.RegisterCardRoutes(api, store, cardSvc)

	return api, store
}
