package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/lintang-b-s/courierx/pkg/concurrent"
	"go.uber.org/zap"
)

// User is one websocket subscriber on the closure feed.
type User struct {
	io   sync.Mutex
	conn io.ReadWriteCloser

	id  uint
	hub *Hub
}

func (u *User) readRequest() (*closureFeedRequest, error) {
	u.io.Lock()
	defer u.io.Unlock()

	h, r, err := wsutil.NextReader(u.conn, ws.StateServerSide)
	if err != nil {
		return nil, err
	}
	if h.OpCode.IsControl() {
		return nil, wsutil.ControlFrameHandler(u.conn, ws.StateServerSide)(h, r)
	}

	req := &closureFeedRequest{}
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(req); err != nil {
		return nil, err
	}
	return req, nil
}

// HandleRequest consumes one frame from the subscriber. Closure events flow
// the other way via Broadcast; inbound traffic is just liveness pings and
// subscribe handshakes.
func (u *User) HandleRequest() error {
	req, err := u.readRequest()
	if err != nil {
		u.conn.Close()
		return err
	}
	if req == nil {
		return nil
	}

	if err := validateRequest(req); err != nil {
		errResp := envelope{"error": map[string]string{
			"code":    http.StatusText(http.StatusBadRequest),
			"message": err.Error(),
		}}
		return u.write(errResp)
	}

	switch req.Action {
	case "ping":
		return u.write(envelope{"event": "pong"})
	case "subscribe":
		return u.write(envelope{"event": "subscribed"})
	default:
		errResp := envelope{"error": map[string]string{
			"code":    http.StatusText(http.StatusBadRequest),
			"message": fmt.Sprintf("unknown action %q", req.Action),
		}}
		return u.write(errResp)
	}
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

// Hub tracks closure feed subscribers and fans events out to them through
// the shared goroutine pool.
type Hub struct {
	mu  sync.RWMutex
	seq uint
	us  []*User
	ns  map[uint]*User

	pool *concurrent.WorkerPool[int, int]
	log  *zap.Logger
}

func NewHub(pool *concurrent.WorkerPool[int, int], log *zap.Logger) *Hub {
	return &Hub{
		pool: pool,
		ns:   make(map[uint]*User),
		us:   make([]*User, 0),
		log:  log,
	}
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

	if _, ok := h.ns[user.id]; !ok {
		return
	}
	delete(h.ns, user.id)

	// us stays sorted by id because ids are handed out monotonically
	i := sort.Search(len(h.us), func(i int) bool {
		return h.us[i].id >= user.id
	})

	newUs := make([]*User, len(h.us)-1)
	copy(newUs[:i], h.us[:i])
	copy(newUs[i:], h.us[i+1:])
	h.us = newUs
}

func (h *Hub) RemoveAllUser() {
	h.mu.RLock()
	users := make([]*User, len(h.us))
	copy(users, h.us)
	h.mu.RUnlock()

	for _, user := range users {
		user.conn.Close()
		h.Remove(user)
	}
}

func (h *Hub) NumberOfUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.us)
}

// Broadcast pushes one event to every subscriber. A subscriber whose write
// fails is dropped, the feed never blocks on a dead connection.
func (h *Hub) Broadcast(event interface{}) {
	h.mu.RLock()
	users := make([]*User, len(h.us))
	copy(users, h.us)
	h.mu.RUnlock()

	for _, user := range users {
		u := user
		h.pool.Schedule(func() {
			if err := u.write(envelope{"event": event}); err != nil {
				h.log.Warn("dropping closure feed subscriber",
					zap.Uint("id", u.id), zap.Error(err))
				u.conn.Close()
				h.Remove(u)
			}
		})
	}
}
