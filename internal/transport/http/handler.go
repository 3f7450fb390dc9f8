package http

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/service"
	"github.com/cwrk-planet/chat-service/internal/store"
	"github.com/cwrk-planet/chat-service/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

// FileResolver превращает ключ вложения в URL.
type FileResolver interface {
	URL(key string) string
}

type Handler struct {
	svc       *service.ChatService
	files     FileResolver
	maxUpload int64
}

func NewHandler(svc *service.ChatService, files FileResolver, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Handler{svc: svc, files: files, maxUpload: maxUpload}
}

func (h *Handler) fileURL(key *string) *string {
	if key == nil || h.files == nil {
		return key
	}
	return lo.ToPtr(h.files.URL(*key))
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidJSON, err)
	}
	return nil
}

func pageFromQuery(r *http.Request) store.Page {
	q := r.URL.Query()
	p := store.Page{After: q.Get("after")}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		p.Limit = n
	}
	return p
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mt, "multipart/")
}

func parseReplyTo(v string) (*int64, error) {
	if v == "" || v == "null" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: reply_to must be an integer", domain.ErrInvalidInput)
	}
	return &id, nil
}

// ---- users / chats ----

// POST /Users/
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "CreateUser", err)
		return
	}
	u, err := h.svc.CreateUser(r.Context(), service.CreateUserInput{Username: req.Username, Name: req.Name})
	if err != nil {
		writeError(w, r, "CreateUser", err)
		return
	}
	httputil.Created(w, u)
}

// GET /Users/
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, "ListUsers", err)
		return
	}
	httputil.OK(w, lo.Ternary(users == nil, []domain.User{}, users))
}

// GET /Users/{username}/
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GetUser(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, r, "GetUser", err)
		return
	}
	httputil.OK(w, u)
}

// GET /Chats/?user=
func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.svc.ListChats(r.Context(), r.URL.Query().Get("user"))
	if err != nil {
		writeError(w, r, "ListChats", err)
		return
	}
	httputil.OK(w, lo.Ternary(chats == nil, []domain.Chat{}, chats))
}

// GET /Chats/{id}/
func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetChat(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "GetChat", err)
		return
	}
	httputil.OK(w, c)
}

// ---- direct messages ----

// POST /Messages/: JSON или multipart с файлом file_attachment
func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var in service.CreateMessageInput

	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
		if err := r.ParseMultipartForm(h.maxUpload); err != nil {
			writeError(w, r, "CreateMessage", fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		replyTo, err := parseReplyTo(r.FormValue("reply_to"))
		if err != nil {
			writeError(w, r, "CreateMessage", err)
			return
		}
		in = service.CreateMessageInput{
			ChatID:  r.FormValue("chat"),
			Sender:  r.FormValue("sender"),
			Content: r.FormValue("content"),
			ReplyTo: replyTo,
		}
		if f, hdr, err := r.FormFile("file_attachment"); err == nil {
			defer f.Close()
			in.Attachment = &service.Attachment{Name: hdr.Filename, Body: f}
		}
	} else {
		var req CreateMessageRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, "CreateMessage", err)
			return
		}
		in = service.CreateMessageInput{ChatID: req.Chat, Sender: req.Sender, Content: req.Content, ReplyTo: req.ReplyTo}
	}

	m, err := h.svc.CreateMessage(r.Context(), in)
	if err != nil {
		writeError(w, r, "CreateMessage", err)
		return
	}
	httputil.Created(w, h.messageItem(*m))
}

// GET /Messages/?chat=&after=&limit=
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	chatID := r.URL.Query().Get("chat")
	if chatID == "" {
		writeError(w, r, "ListMessages", fmt.Errorf("%w: chat is required", domain.ErrInvalidInput))
		return
	}
	msgs, next, err := h.svc.ListMessages(r.Context(), chatID, pageFromQuery(r))
	if err != nil {
		writeError(w, r, "ListMessages", err)
		return
	}
	httputil.OK(w, ListResponse[MessageItem]{Items: lo.Map(msgs, func(m domain.Message, _ int) MessageItem {
		return h.messageItem(m)
	}), NextCursor: next})
}

// GET /Messages/{id}/
func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "GetMessage")
	if !ok {
		return
	}
	m, err := h.svc.GetMessage(r.Context(), id)
	if err != nil {
		writeError(w, r, "GetMessage", err)
		return
	}
	httputil.OK(w, h.messageItem(*m))
}

// ---- groups ----

// POST /Groups/
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "CreateGroup", err)
		return
	}
	g, err := h.svc.CreateGroup(r.Context(), service.CreateGroupInput{ID: req.ID, Name: req.Name, Admin: req.Admin})
	if err != nil {
		writeError(w, r, "CreateGroup", err)
		return
	}
	httputil.Created(w, g)
}

// GET /Groups/
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.ListGroups(r.Context())
	if err != nil {
		writeError(w, r, "ListGroups", err)
		return
	}
	httputil.OK(w, lo.Ternary(groups == nil, []domain.Group{}, groups))
}

// GET /Groups/{id}/
func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.GetGroup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "GetGroup", err)
		return
	}
	httputil.OK(w, g)
}

// POST /GroupUsers/
func (h *Handler) AddGroupUser(w http.ResponseWriter, r *http.Request) {
	var req AddGroupUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "AddGroupUser", err)
		return
	}
	gu, err := h.svc.AddGroupUser(r.Context(), service.AddGroupUserInput{GroupID: req.Group, Username: req.User})
	if err != nil {
		writeError(w, r, "AddGroupUser", err)
		return
	}
	httputil.Created(w, gu)
}

// GET /GroupUsers/?group=&user=
func (h *Handler) ListGroupUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	members, err := h.svc.ListGroupUsers(r.Context(), q.Get("group"), q.Get("user"))
	if err != nil {
		writeError(w, r, "ListGroupUsers", err)
		return
	}
	httputil.OK(w, lo.Ternary(members == nil, []domain.GroupUser{}, members))
}

// POST /GroupMessages/: JSON или multipart
func (h *Handler) CreateGroupMessage(w http.ResponseWriter, r *http.Request) {
	var in service.CreateGroupMessageInput

	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
		if err := r.ParseMultipartForm(h.maxUpload); err != nil {
			writeError(w, r, "CreateGroupMessage", fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		replyTo, err := parseReplyTo(r.FormValue("reply_to"))
		if err != nil {
			writeError(w, r, "CreateGroupMessage", err)
			return
		}
		in = service.CreateGroupMessageInput{
			GroupID: r.FormValue("group"),
			Sender:  r.FormValue("sender"),
			Content: r.FormValue("content"),
			ReplyTo: replyTo,
		}
		if f, hdr, err := r.FormFile("file_attachment"); err == nil {
			defer f.Close()
			in.Attachment = &service.Attachment{Name: hdr.Filename, Body: f}
		}
	} else {
		var req CreateGroupMessageRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, "CreateGroupMessage", err)
			return
		}
		in = service.CreateGroupMessageInput{GroupID: req.Group, Sender: req.Sender, Content: req.Content, ReplyTo: req.ReplyTo}
	}

	m, err := h.svc.CreateGroupMessage(r.Context(), in)
	if err != nil {
		writeError(w, r, "CreateGroupMessage", err)
		return
	}
	httputil.Created(w, h.groupMessageItem(*m))
}

// GET /GroupMessages/?group=&after=&limit=
func (h *Handler) ListGroupMessages(w http.ResponseWriter, r *http.Request) {
	groupID := r.URL.Query().Get("group")
	if groupID == "" {
		writeError(w, r, "ListGroupMessages", fmt.Errorf("%w: group is required", domain.ErrInvalidInput))
		return
	}
	msgs, next, err := h.svc.ListGroupMessages(r.Context(), groupID, pageFromQuery(r))
	if err != nil {
		writeError(w, r, "ListGroupMessages", err)
		return
	}
	httputil.OK(w, ListResponse[GroupMessageItem]{Items: lo.Map(msgs, func(m domain.GroupMessage, _ int) GroupMessageItem {
		return h.groupMessageItem(m)
	}), NextCursor: next})
}

// GET /GroupMessages/{id}/
func (h *Handler) GetGroupMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "GetGroupMessage")
	if !ok {
		return
	}
	m, err := h.svc.GetGroupMessage(r.Context(), id)
	if err != nil {
		writeError(w, r, "GetGroupMessage", err)
		return
	}
	httputil.OK(w, h.groupMessageItem(*m))
}

// ---- common messages ----

// POST /CommonMessages/
func (h *Handler) CreateCommonMessage(w http.ResponseWriter, r *http.Request) {
	var req CreateCommonMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "CreateCommonMessage", err)
		return
	}
	m, err := h.svc.CreateCommonMessage(r.Context(), service.CreateCommonMessageInput{Sender: req.Sender, Content: req.Content})
	if err != nil {
		writeError(w, r, "CreateCommonMessage", err)
		return
	}
	httputil.Created(w, m)
}

// GET /CommonMessages/?after=&limit=
func (h *Handler) ListCommonMessages(w http.ResponseWriter, r *http.Request) {
	msgs, next, err := h.svc.ListCommonMessages(r.Context(), pageFromQuery(r))
	if err != nil {
		writeError(w, r, "ListCommonMessages", err)
		return
	}
	httputil.OK(w, ListResponse[domain.CommonMessage]{Items: lo.Ternary(msgs == nil, []domain.CommonMessage{}, msgs), NextCursor: next})
}

// GET /CommonMessages/{id}/
func (h *Handler) GetCommonMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "GetCommonMessage")
	if !ok {
		return
	}
	m, err := h.svc.GetCommonMessage(r.Context(), id)
	if err != nil {
		writeError(w, r, "GetCommonMessage", err)
		return
	}
	httputil.OK(w, m)
}

func idParam(w http.ResponseWriter, r *http.Request, op string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, op, fmt.Errorf("%w: id must be a positive integer", domain.ErrInvalidInput))
		return 0, false
	}
	return id, true
}
