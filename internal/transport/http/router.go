package http

import (
	"net/http"
	"time"

	"github.com/cwrk-planet/chat-service/internal/transport/ws"
	"github.com/cwrk-planet/chat-service/pkg/httputil"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Deps struct {
	Handler        *Handler
	WS             *ws.Server
	Media          http.Handler // nil: /media/ не монтируется
	MediaPrefix    string       // /media/
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(httputil.MiddlewareTraceContext)
	r.Use(httputil.MiddlewareRequestID)
	r.Use(httputil.MiddlewareLogging)

	// WS: без таймаута и CORS, соединение живёт сколько угодно
	if d.WS != nil {
		r.Get(`/ws/chat/{chat_id:[\w-]+}/`, d.WS.HandleChat)
		r.Get(`/ws/group/{group_id:[\w-]+}/`, d.WS.HandleGroup)
		r.Get("/ws/broadcast/", d.WS.HandleBroadcast)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.OK(w, map[string]string{"status": "ok"})
	})

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r.Group(func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		api.Use(middlewareChi.Timeout(timeout))

		h := d.Handler
		api.Route("/Users", func(rt chi.Router) {
			rt.Post("/", h.CreateUser)
			rt.Get("/", h.ListUsers)
			rt.Get("/{username}/", h.GetUser)
		})
		api.Route("/Chats", func(rt chi.Router) {
			rt.Get("/", h.ListChats)
			rt.Get("/{id}/", h.GetChat)
		})
		api.Route("/Messages", func(rt chi.Router) {
			rt.Post("/", h.CreateMessage)
			rt.Get("/", h.ListMessages)
			rt.Get("/{id}/", h.GetMessage)
		})
		api.Route("/Groups", func(rt chi.Router) {
			rt.Post("/", h.CreateGroup)
			rt.Get("/", h.ListGroups)
			rt.Get("/{id}/", h.GetGroup)
		})
		api.Route("/GroupUsers", func(rt chi.Router) {
			rt.Post("/", h.AddGroupUser)
			rt.Get("/", h.ListGroupUsers)
		})
		api.Route("/GroupMessages", func(rt chi.Router) {
			rt.Post("/", h.CreateGroupMessage)
			rt.Get("/", h.ListGroupMessages)
			rt.Get("/{id}/", h.GetGroupMessage)
		})
		api.Route("/CommonMessages", func(rt chi.Router) {
			rt.Post("/", h.CreateCommonMessage)
			rt.Get("/", h.ListCommonMessages)
			rt.Get("/{id}/", h.GetCommonMessage)
		})

		if d.Media != nil {
			prefix := d.MediaPrefix
			if prefix == "" {
				prefix = "/media/"
			}
			api.Handle(prefix+"*", d.Media)
		}
	})

	return r
}
