// Package notify carries user-facing failure notices out of the storefront
// core. Every network failure the session catches becomes exactly one Notice.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Kind classifies a notice by the operation that failed.
type Kind string

const (
	KindCatalogFetch Kind = "catalog-fetch"
	KindCartRead     Kind = "cart-read"
	KindCartAdd      Kind = "cart-add"
	KindCartUpdate   Kind = "cart-update"
	KindCartRemove   Kind = "cart-remove"
	KindCartClear    Kind = "cart-clear"
	KindOrderSubmit  Kind = "order-submit"
	KindEmptyCart    Kind = "empty-cart"
)

var messages = map[Kind]string{
	KindCatalogFetch: "取得產品失敗",
	KindCartRead:     "取得購物車物品錯誤",
	KindCartAdd:      "加入購物車失敗",
	KindCartUpdate:   "修改購物車物品數量錯誤",
	KindCartRemove:   "刪除購物車物品失敗",
	KindCartClear:    "清空購物車失敗",
	KindOrderSubmit:  "訂單送出錯誤",
	KindEmptyCart:    "購物車內無商品，請先加入商品再送出訂單",
}

// Message returns the shopper-facing text for k.
func (k Kind) Message() string {
	if m, ok := messages[k]; ok {
		return m
	}
	return string(k)
}

// Notice is one failure reported to the shopper.
type Notice struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}

// New builds a notice for kind. err, if any, becomes the detail.
func New(kind Kind, err error) Notice {
	n := Notice{Kind: kind, Message: kind.Message(), At: time.Now().UTC()}
	if err != nil {
		n.Detail = err.Error()
	}
	return n
}

// Notifier receives notices.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// LogNotifier writes every notice to a structured logger at warn level.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a LogNotifier writing to logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (l *LogNotifier) Notify(ctx context.Context, n Notice) {
	l.logger.WarnContext(ctx, "storefront notice",
		slog.String("kind", string(n.Kind)),
		slog.String("message", n.Message),
		slog.String("detail", n.Detail),
	)
}

// Recorder keeps the most recent notices in a bounded ring.
type Recorder struct {
	mu    sync.Mutex
	buf   []Notice
	next  int
	full  bool
	total uint64
}

// NewRecorder returns a Recorder holding up to size notices. A size below 1
// is treated as 1.
func NewRecorder(size int) *Recorder {
	if size < 1 {
		size = 1
	}
	return &Recorder{buf: make([]Notice, size)}
}

// Notify implements Notifier.
func (r *Recorder) Notify(_ context.Context, n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[r.next] = n
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
	r.total++
}

// Notices returns the retained notices, oldest first.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]Notice, r.next)
		copy(out, r.buf[:r.next])
		return out
	}
	out := make([]Notice, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	out = append(out, r.buf[:r.next]...)
	return out
}

// Total returns how many notices were ever recorded, including evicted ones.
func (r *Recorder) Total() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// Last returns the most recent notice.
func (r *Recorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.next == 0 && !r.full {
		return Notice{}, false
	}
	i := r.next - 1
	if i < 0 {
		i = len(r.buf) - 1
	}
	return r.buf[i], true
}

// Multi fans a notice out to several notifiers in order.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, n Notice) {
	for _, target := range m {
		target.Notify(ctx, n)
	}
}
