package ws

import (
	"net"
	"sort"
)

// Session binds an authenticated identity to a live connection. It never owns
// the connection; teardown removes the session with it.
type Session struct {
	ConnID   int64
	UserID   int
	Username string
	Role     string
	Token    string
}

// Conn is a registered client connection. Identity is the registry-assigned
// id, never the socket itself.
type Conn struct {
	id   int64
	nc   net.Conn
	tail []byte
}

func (c *Conn) ID() int64 { return c.id }

func (c *Conn) NetConn() net.Conn { return c.nc }

func (c *Conn) Read(p []byte) (int, error) { return c.nc.Read(p) }

func (c *Conn) Write(p []byte) (int, error) { return c.nc.Write(p) }

// TakeTail hands back the undecoded bytes left over from the previous read
// and clears them.
func (c *Conn) TakeTail() []byte {
	t := c.tail
	c.tail = nil
	return t
}

// SetTail stores undecoded trailing bytes until the next read. The bytes are
// copied; callers may reuse their buffer.
func (c *Conn) SetTail(b []byte) {
	if len(b) == 0 {
		c.tail = nil
		return
	}
	c.tail = append(c.tail[:0], b...)
}

// Registry tracks open connections and their sessions, keyed by the assigned
// connection id. It is owned by the event loop goroutine; every mutation goes
// through that single owner, so there is no locking.
type Registry struct {
	nextID   int64
	conns    map[int64]*Conn
	sessions map[int64]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		conns:    make(map[int64]*Conn),
		sessions: make(map[int64]*Session),
	}
}

// Register wraps nc with a fresh monotonically increasing connection id.
func (r *Registry) Register(nc net.Conn) *Conn {
	r.nextID++
	c := &Conn{id: r.nextID, nc: nc}
	r.conns[c.id] = c
	return c
}

// Remove drops the connection and its session and closes the socket.
func (r *Registry) Remove(c *Conn) {
	delete(r.conns, c.id)
	delete(r.sessions, c.id)
	c.nc.Close()
}

// Conns returns the registered connections ordered by id, so broadcast order
// is deterministic.
func (r *Registry) Conns() []*Conn {
	out := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (r *Registry) Len() int { return len(r.conns) }

func (r *Registry) Session(c *Conn) *Session {
	return r.sessions[c.id]
}

func (r *Registry) SetSession(c *Conn, s *Session) {
	s.ConnID = c.id
	r.sessions[c.id] = s
}

func (r *Registry) ClearSession(c *Conn) {
	delete(r.sessions, c.id)
}
