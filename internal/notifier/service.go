package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-lesson-booking.git/internal/booking"
	kafkax "github.com/ariefcatur/go-lesson-booking.git/internal/kafka"
	"github.com/ariefcatur/go-lesson-booking.git/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Service konsumsi event lesson.order.placed: log konfirmasi booking dan
// invalidate cache listing supaya reader cepat lihat spaces terbaru.
type Service struct {
	Redis       *redis.Client
	Log         *zap.Logger
	ServiceName string
}

// HandleOrderPlaced dipasang sebagai handler consumer.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	var env booking.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != booking.EventOrderPlaced {
		return nil
	} // ignore

	// 2) dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	// 3) decode payload
	p, err := kafkax.UnwrapPayload[booking.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}

	// 4) invalidate listing cache; reader berikutnya re-read dari DB
	_ = s.Redis.Del(ctx, redisx.KeyLessonList).Err()

	// 5) "kirim" konfirmasi. Di sini cukup structured log; channel email/sms
	// tinggal dicolok di titik ini.
	s.Log.Info("booking confirmed",
		zap.String("order_id", p.OrderID),
		zap.String("customer", p.CustomerName),
		zap.Int("lines", len(p.LineItems)),
		zap.Int("total_cents", p.TotalCents),
		zap.String("trace_id", env.TraceID),
	)
	return nil
}
