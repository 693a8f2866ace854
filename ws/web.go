package ws

import (
	"html/template"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/simplechat/relay/chat"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The status page and the socket share an origin; anything else is a
	// deliberate cross-origin client and welcome to connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Frontend upgrades websocket requests into connections for a Host and
// serves a status page over the shared registries.
type Frontend struct {
	hub     *chat.Hub
	conns   chan chat.Conn
	started time.Time
}

// New creates a Frontend over the hub shared with the other transports.
func New(hub *chat.Hub) *Frontend {
	return &Frontend{
		hub:     hub,
		conns:   make(chan chat.Conn),
		started: time.Now(),
	}
}

// Conns yields upgraded connections, ready for a Host's Serve.
func (f *Frontend) Conns() <-chan chat.Conn {
	return f.conns
}

// Router returns the front-end's HTTP routes.
func (f *Frontend) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", f.serveStatus)
	r.Get("/ws", f.serveWS)
	return r
}

func (f *Frontend) serveWS(w http.ResponseWriter, r *http.Request) {
	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Printf("Upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}
	logger.Printf("Upgraded connection from %s", r.RemoteAddr)
	f.conns <- NewConn(sock)
}

var statusTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head><title>relay status</title></head>
<body>
<h1>relay</h1>
<p>started {{.Uptime}}, {{.Users}} connected</p>
<table>
<tr><th>room</th><th>members</th><th>created</th></tr>
{{range .Rooms}}<tr><td>{{.Name}}</td><td>{{.Members}}</td><td>{{.Created}}</td></tr>
{{end}}</table>
<p>Connect a websocket to <code>/ws</code> to join.</p>
</body>
</html>
`))

type statusRoom struct {
	Name    string
	Members int
	Created string
}

type statusPage struct {
	Uptime string
	Users  int
	Rooms  []statusRoom
}

func (f *Frontend) serveStatus(w http.ResponseWriter, r *http.Request) {
	page := statusPage{
		Uptime: humanize.Time(f.started),
		Users:  f.hub.Users.Len(),
	}
	for _, room := range f.hub.Rooms.Active() {
		page.Rooms = append(page.Rooms, statusRoom{
			Name:    room.Name(),
			Members: room.Len(),
			Created: humanize.Time(room.Created()),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := statusTemplate.Execute(w, page); err != nil {
		logger.Printf("Status render failed: %v", err)
	}
}
