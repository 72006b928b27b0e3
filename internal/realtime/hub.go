// Package realtime 实现签到事件的 WebSocket 实时推送。
//
// Hub 维护进程内所有在线连接，事件以 {"type": ..., "data": ...} 信封广播。
// 投递尽力而为：不重放、不持久化，发送缓冲写满的连接直接断开。
package realtime

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/erciktiburak/school-attendance-api/pkg/metrics"
)

// 事件类型
const (
	EventConnected         = "Connected"
	EventStudentCheckedIn  = "StudentCheckedIn"
	EventStudentCheckedOut = "StudentCheckedOut"
	EventNewStudentAdded   = "NewStudentAdded"
)

// Envelope 推送消息信封
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub 连接注册表与广播器
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	logger     *zap.Logger
}

// NewHub 创建 Hub，需另起 goroutine 调用 Run
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run 事件循环，ctx 取消后关闭所有连接并返回
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.remove(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			metrics.HubViewers.Set(float64(len(h.clients)))
			h.logger.Debug("推送连接已注册", zap.String("connection_id", c.id))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.remove(c)
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// 缓冲已满，断开慢连接
					metrics.HubDropped.Inc()
					h.logger.Warn("推送缓冲已满，断开连接", zap.String("connection_id", c.id))
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	delete(h.clients, c)
	close(c.send)
	metrics.HubViewers.Set(float64(len(h.clients)))
}

// Broadcast 向所有在线连接推送事件，不阻塞调用方
// 序列化失败或广播队列已满时仅记录日志
func (h *Hub) Broadcast(event string, data interface{}) {
	msg, err := json.Marshal(Envelope{Type: event, Data: data})
	if err != nil {
		h.logger.Error("推送消息序列化失败", zap.String("event", event), zap.Error(err))
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("广播队列已满，丢弃事件", zap.String("event", event))
	}
}
