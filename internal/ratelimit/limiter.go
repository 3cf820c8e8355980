package ratelimit

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultLimit — допустимое число запросов с адреса внутри окна.
	DefaultLimit = 5
	// DefaultWindow — длительность fixed window.
	DefaultWindow = 60 * time.Second
)

var (
	rateLimitDenied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commande_rate_limit_denied_total",
		Help: "Total number of requests denied by the rate limiter.",
	})
	rateLimitEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "commande_rate_limit_entries",
		Help: "Current number of tracked client addresses.",
	})
)

// Decision — результат проверки адреса клиента.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

type entry struct {
	count       int
	windowStart time.Time
}

// Limiter — счётчик запросов на адрес клиента по схеме fixed window.
// Каждый вызов Admit мутирует состояние, независимо от исхода: это именно
// счётчик запросов, а не token bucket. Шестой запрос внутри одного окна
// отклоняется, каким бы ни был тип запроса.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   int
	window  time.Duration
	logger  *log.Entry

	// now подменяется в тестах.
	now func() time.Time
}

// NewLimiter создаёт limiter. Неположительные limit/window заменяются
// значениями по умолчанию.
func NewLimiter(limit int, window time.Duration, logger *log.Entry) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = log.WithField("component", "rate-limiter")
	}

	return &Limiter{
		entries: make(map[string]*entry),
		limit:   limit,
		window:  window,
		logger:  logger,
		now:     time.Now,
	}
}

// Admit решает, пропускать ли запрос с адреса addr.
// Первый запрос адреса и первый запрос после истечения окна открывают новое
// окно со счётчиком 1; внутри окна счётчик растёт на каждом вызове, и при
// превышении limit запрос отклоняется с подсказкой, когда окно закончится.
func (l *Limiter) Admit(addr string) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	ent, ok := l.entries[addr]
	if !ok || now.Sub(ent.windowStart) >= l.window {
		l.entries[addr] = &entry{count: 1, windowStart: now}
		rateLimitEntries.Set(float64(len(l.entries)))
		return Decision{Allowed: true}
	}

	ent.count++
	if ent.count > l.limit {
		rateLimitDenied.Inc()
		l.logger.WithFields(log.Fields{
			"client_addr": addr,
			"attempts":    ent.count,
		}).Warn("rate limit exceeded")
		return Decision{
			Allowed:    false,
			RetryAfter: l.window - now.Sub(ent.windowStart),
		}
	}

	return Decision{Allowed: true}
}

// Window возвращает длительность окна limiter'а.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Len возвращает текущее число отслеживаемых адресов.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// SweepBefore удаляет записи, чьё окно началось раньше cutoff, и возвращает
// число удалённых. Семантика Admit не меняется: удалённая запись неотличима
// от записи с истёкшим окном.
func (l *Limiter) SweepBefore(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	deleted := 0
	for addr, ent := range l.entries {
		if ent.windowStart.Before(cutoff) {
			delete(l.entries, addr)
			deleted++
		}
	}
	rateLimitEntries.Set(float64(len(l.entries)))
	return deleted
}
