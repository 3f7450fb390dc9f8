package fanout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrHandleClosed = errors.New("handle closed")
	ErrSlowConsumer = errors.New("handle send buffer is full")
)

// Handle — адрес живого соединения. Реестр им не владеет и никогда не закрывает.
type Handle interface {
	Deliver(env Envelope) error
}

// FrameHandle получает уже закодированный конверт. Hub кодирует конверт
// один раз на SendToGroup и раздаёт одни и те же байты всем таким handle.
type FrameHandle interface {
	Handle
	DeliverFrame(data []byte) error
}

type Sender interface {
	SendToGroup(group string, env Envelope) int
}

type Registry interface {
	Sender
	Join(group string, h Handle)
	Leave(group string, h Handle)
}

type members struct {
	// mu сериализует рассылки внутри группы: порядок вызовов SendToGroup
	// совпадает с порядком, который видит каждый участник
	mu  sync.Mutex
	set map[Handle]struct{}
	// dead: группа опустела и убирается из Hub, входить в неё нельзя
	dead bool
}

// Hub.mu защищает только карту групп и никогда не держится во время
// ожидания members.mu: долгая рассылка в одну группу не задерживает другие.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]*members // group name -> set of handles
}

var _ Registry = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{groups: make(map[string]*members)}
}

func (h *Hub) lookup(group string) *members {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.groups[group]
}

func (h *Hub) getOrCreate(group string) *members {
	h.mu.Lock()
	defer h.mu.Unlock()

	g, ok := h.groups[group]
	if !ok || g.dead {
		g = &members{set: make(map[Handle]struct{})}
		h.groups[group] = g
	}
	return g
}

func (h *Hub) Join(group string, c Handle) {
	for {
		g := h.getOrCreate(group)

		g.mu.Lock()
		if g.dead {
			// Leave как раз убирает эту группу; берём новую
			g.mu.Unlock()
			continue
		}
		g.set[c] = struct{}{}
		g.mu.Unlock()
		return
	}
}

// Leave для неизвестной группы или чужого handle — no-op.
func (h *Hub) Leave(group string, c Handle) {
	g := h.lookup(group)
	if g == nil {
		return
	}

	g.mu.Lock()
	delete(g.set, c)
	empty := len(g.set) == 0 && !g.dead
	if empty {
		g.dead = true
	}
	g.mu.Unlock()

	if !empty {
		return
	}

	h.mu.Lock()
	// за это время Join мог заменить мёртвую группу новой
	if h.groups[group] == g {
		delete(h.groups, group)
	}
	h.mu.Unlock()
}

// SendToGroup доставляет env всем текущим участникам группы и возвращает
// число успешных доставок. Ошибка одного handle не прерывает рассылку.
func (h *Hub) SendToGroup(group string, env Envelope) int {
	g := h.lookup(group)
	if g == nil {
		return 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var (
		frame     []byte
		encodeErr error
		encoded   bool
	)
	delivered := 0
	for c := range g.set {
		var err error
		if fh, ok := c.(FrameHandle); ok {
			if !encoded {
				frame, encodeErr = json.Marshal(env)
				encoded = true
			}
			err = encodeErr
			if err == nil {
				err = fh.DeliverFrame(frame)
			}
		} else {
			err = c.Deliver(env)
		}
		if err != nil {
			slog.Debug("fanout deliver failed", "group", group, "kind", env.Kind.String(), "err", err)
			continue
		}
		delivered++
	}
	return delivered
}

// Size — число участников группы.
func (h *Hub) Size(group string) int {
	g := h.lookup(group)
	if g == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.set)
}

func (h *Hub) Groups() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.groups)
}
