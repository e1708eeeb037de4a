package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/detour-routing/detour/pkg/concurrent"
	"github.com/detour-routing/detour/pkg/session"
)

type subscribeRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

// User is one websocket consumer of a session's event feed.
type User struct {
	io   sync.Mutex
	conn io.ReadWriteCloser

	id    uint
	hub   *Hub
	unsub func()
}

func (u *User) readRequest() (*subscribeRequest, error) {
	u.io.Lock()
	defer u.io.Unlock()

	h, r, err := wsutil.NextReader(u.conn, ws.StateServerSide)
	if err != nil {
		return nil, err
	}
	if h.OpCode.IsControl() {
		return nil, wsutil.ControlFrameHandler(u.conn, ws.StateServerSide)(h, r)
	}

	req := &subscribeRequest{}
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(req); err != nil {
		return nil, err
	}
	return req, nil
}

// SubscribeEvents reads the subscribe frame and hooks the connection onto
// the session's event bus. Every subsequent event is pushed as a JSON
// envelope through the hub's worker pool.
func (u *User) SubscribeEvents() error {
	req, err := u.readRequest()
	if err != nil {
		u.conn.Close()
		return err
	}

	if req == nil {
		return nil
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		vvString := []string{}
		for _, v := range vv {
			vvString = append(vvString, v.Error())
		}
		errResp := envelope{"error": map[string]string{
			"code":    http.StatusText(http.StatusBadRequest),
			"message": fmt.Sprintf("validation error: %v", vvString),
		}}
		return u.write(errResp)
	}

	unsub, err := u.hub.sessionService.Subscribe(req.SessionID, func(ev session.Event) {
		// runs on the session loop: hand off to the pool so a slow
		// consumer never stalls route recomputation
		u.hub.pool.TryAddJob(BroadcastJob{user: u, event: ev})
	})
	if err != nil {
		errResp := envelope{"error": map[string]string{
			"code":    http.StatusText(http.StatusNotFound),
			"message": err.Error(),
		}}
		return u.write(errResp)
	}

	u.unsub = unsub
	return u.write(envelope{"data": map[string]string{"subscribed": req.SessionID}})
}

func (u *User) write(x interface{}) error {
	w := wsutil.NewWriter(u.conn, ws.StateServerSide, ws.OpText)
	encoder := json.NewEncoder(w)

	u.io.Lock()
	defer u.io.Unlock()

	if err := encoder.Encode(x); err != nil {
		return err
	}

	return w.Flush()
}

type BroadcastJob struct {
	user  *User
	event session.Event
}

// Hub tracks every websocket consumer and fans event pushes out over the
// worker pool.
type Hub struct {
	mu             sync.RWMutex
	seq            uint
	us             []*User
	ns             map[uint]*User
	sessionService SessionService

	pool *concurrent.WorkerPool[BroadcastJob, error]
}

func NewHub(pool *concurrent.WorkerPool[BroadcastJob, error], sessionService SessionService) *Hub {
	hub := &Hub{
		pool:           pool,
		ns:             make(map[uint]*User),
		us:             make([]*User, 0),
		sessionService: sessionService,
	}

	return hub
}

// Deliver pushes one buffered event to its consumer; it is the pool's job
// function.
func Deliver(job BroadcastJob) error {
	return job.user.write(envelope{"data": job.event})
}

func (h *Hub) Register(conn net.Conn) *User {
	user := &User{
		hub:  h,
		conn: conn,
	}

	h.mu.Lock()
	user.id = h.seq
	h.ns[user.id] = user
	h.us = append(h.us, user)

	h.seq++
	h.mu.Unlock()

	return user
}

func (h *Hub) Remove(user *User) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, oki := h.ns[user.id]; !oki {
		return
	}
	delete(h.ns, user.id)

	if user.unsub != nil {
		user.unsub()
		user.unsub = nil
	}

	i := sort.Search(len(h.us), func(i int) bool {
		return h.us[i].id >= user.id
	})

	newUs := make([]*User, len(h.us)-1)
	copy(newUs[:i], h.us[:i])
	copy(newUs[i:], h.us[i+1:])
	h.us = newUs
}

func (h *Hub) RemoveAllUsers() {
	h.mu.RLock()
	users := make([]*User, len(h.us))
	copy(users, h.us)
	h.mu.RUnlock()

	for _, user := range users {
		h.Remove(user)
	}
}
