package usecase

import (
	"context"
	"strings"
	"sync"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
	domrepo "github.com/Abdr007/prism-ai-sub001/internal/domain/repository"
	"github.com/Abdr007/prism-ai-sub001/pkg/logger"
)

// AnomalyLog is a fixed-capacity ring of recent validation rejections. It is
// the validation gate's sink: every rejection lands here for the API and is
// forwarded to the publisher best-effort.
type AnomalyLog struct {
	mu     sync.RWMutex
	buf    []*models.AnomalyEvent
	next   int
	filled bool

	publisher domrepo.RiskPublisher
	lgr       *logger.Logger
}

// NewAnomalyLog creates an anomaly ring holding the last capacity events.
func NewAnomalyLog(capacity int, publisher domrepo.RiskPublisher, lgr *logger.Logger) *AnomalyLog {
	if capacity <= 0 {
		capacity = 256
	}
	return &AnomalyLog{
		buf:       make([]*models.AnomalyEvent, capacity),
		publisher: publisher,
		lgr:       lgr,
	}
}

// Record adds one event. Publish failures are logged, never propagated: an
// anomaly about bad data must not fail the cycle that rejected the data.
func (l *AnomalyLog) Record(ev *models.AnomalyEvent) {
	if ev == nil {
		return
	}
	l.mu.Lock()
	l.buf[l.next] = ev
	l.next = (l.next + 1) % len(l.buf)
	if l.next == 0 {
		l.filled = true
	}
	l.mu.Unlock()

	if l.publisher != nil {
		if err := l.publisher.PublishAnomaly(context.Background(), ev); err != nil {
			l.lgr.Warn("anomaly publish failed",
				logger.String("rule", ev.Rule),
				logger.Error(err))
		}
	}
}

// Recent returns up to limit events, newest first, optionally filtered by rule.
func (l *AnomalyLog) Recent(limit int, rules []string) []*models.AnomalyEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	size := l.next
	if l.filled {
		size = len(l.buf)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	ruleSet := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		ruleSet[strings.ToUpper(r)] = struct{}{}
	}

	out := make([]*models.AnomalyEvent, 0, limit)
	for i := 1; i <= size && len(out) < limit; i++ {
		idx := (l.next - i + len(l.buf)) % len(l.buf)
		ev := l.buf[idx]
		if ev == nil {
			break
		}
		if len(ruleSet) > 0 {
			if _, ok := ruleSet[ev.Rule]; !ok {
				continue
			}
		}
		out = append(out, ev)
	}
	return out
}
