package listing

import (
	"sync"

	"user-console/internal/domain"
)

// Ticket identifies one fetch issued by a View.
type Ticket struct {
	Page int
	Gen  uint64
}

// Snapshot is a read-only copy of a View's state.
type Snapshot struct {
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	Loaded     bool
	Users      []domain.User
	// Err is the last fetch failure. It is handed out by one Snapshot call only.
	Err error
}

// View is the listing screen of one session: the page cursor plus the raw
// page last fetched for it. Results are applied through tickets so that a
// response for an abandoned page or an older request is dropped.
type View struct {
	mu          sync.Mutex
	pager       Pager
	users       []domain.User
	gen         uint64
	lastApplied uint64
	// Tickets at or below floor were issued before the last Invalidate.
	floor       uint64
	loaded      bool
	stale       bool
	closed      bool
	fetchErr    error
}

func NewView() *View {
	return &View{pager: NewPager()}
}

// Begin issues a ticket for fetching the current page.
func (v *View) Begin() Ticket {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	return Ticket{Page: v.pager.Page(), Gen: v.gen}
}

// Apply stores the outcome of the fetch identified by t. It returns false
// and changes nothing when the view is closed, the page moved on since t was
// issued, or a newer fetch has already been applied.
func (v *View) Apply(t Ticket, page domain.UserPage, err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed || t.Page != v.pager.Page() || t.Gen <= v.lastApplied {
		return false
	}
	v.lastApplied = t.Gen
	v.loaded = true
	v.stale = t.Gen <= v.floor

	if err != nil {
		v.users = nil
		v.fetchErr = err
		return true
	}

	v.fetchErr = nil
	v.users = append([]domain.User(nil), page.Users...)
	if v.pager.SetTotal(page.TotalPages) {
		// The page shrank out from under us; fetch the clamped page next time.
		v.users = nil
		v.stale = true
	}
	return true
}

// NeedsFetch reports whether the current page has to be (re)loaded.
func (v *View) NeedsFetch() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.closed && (!v.loaded || v.stale)
}

// Invalidate marks the cached page stale, e.g. after a deletion. Fetches
// already in flight may still land but leave the page stale.
func (v *View) Invalidate() {
	v.mu.Lock()
	v.stale = true
	v.floor = v.gen
	v.mu.Unlock()
}

func (v *View) Next() int {
	return v.move(func(p *Pager) bool { return p.Next() })
}

func (v *View) Prev() int {
	return v.move(func(p *Pager) bool { return p.Prev() })
}

func (v *View) Goto(n int) int {
	return v.move(func(p *Pager) bool { return p.Goto(n) })
}

func (v *View) move(step func(p *Pager) bool) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if step(&v.pager) {
		v.stale = true
	}
	return v.pager.Page()
}

// Close detaches the view. Later Apply calls are ignored.
func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	v.users = nil
	v.mu.Unlock()
}

func (v *View) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	snap := Snapshot{
		Page:       v.pager.Page(),
		TotalPages: v.pager.TotalPages(),
		HasPrev:    v.pager.HasPrev(),
		HasNext:    v.pager.HasNext(),
		Loaded:     v.loaded,
		Users:      append([]domain.User(nil), v.users...),
		Err:        v.fetchErr,
	}
	v.fetchErr = nil
	return snap
}
