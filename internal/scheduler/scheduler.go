// Package scheduler drives the once-per-minute notification ticks. Trigger
// decisions are pure over an explicit last-sent state so they can be tested
// without timers.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"ramadan_diary_bot/internal/domain"
	"ramadan_diary_bot/internal/logging"
	"ramadan_diary_bot/internal/notify"
)

// All trigger times are evaluated in a fixed UTC+5 offset regardless of the
// host timezone.
var tashkent = time.FixedZone("Asia/Tashkent", 5*60*60)

// tickInterval is the poll period. A trigger minute the process sleeps
// through is missed, not retried.
const tickInterval = time.Minute

// sendTimeout bounds one slot's whole fan-out.
const sendTimeout = 5 * time.Minute

// State maps slot names to the date key of their last send. A slot fires at
// most once per key; the state resets on process restart, which is accepted.
type State map[string]string

// NewState returns an empty last-sent state.
func NewState() State {
	return State{}
}

func (s State) clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// DateKey renders the Tashkent-local calendar date as "YYYY-M-D" without zero
// padding. This matches the stored de-dup keys; see the design notes for the
// month-boundary caveat.
func DateKey(now time.Time) string {
	local := now.In(tashkent)
	return fmt.Sprintf("%d-%d-%d", local.Year(), int(local.Month()), local.Day())
}

// Due returns the slots that should fire at the given moment and the updated
// state with those slots marked sent for today. A slot fires when it is
// enabled, its configured hour/minute match the Tashkent-local time, and it
// has not already fired today.
func Due(cfg domain.NotificationConfig, state State, now time.Time) ([]string, State) {
	local := now.In(tashkent)
	key := DateKey(now)

	next := state.clone()
	var fires []string
	for _, name := range []string{domain.SlotMorning, domain.SlotEvening, domain.SlotDailyReport} {
		slot, _ := cfg.Slot(name)
		if !slot.Enabled {
			continue
		}
		if local.Hour() != slot.Hour || local.Minute() != slot.Minute {
			continue
		}
		if next[name] == key {
			continue
		}

		next[name] = key
		fires = append(fires, name)
	}

	return fires, next
}

// Service owns the gocron job and the in-process last-sent state.
type Service struct {
	notifier *notify.Notifier
	settings notify.SettingsSource
	logger   *logrus.Entry
	state    State
	now      func() time.Time
}

// NewService constructs a scheduler Service.
func NewService(notifier *notify.Notifier, settings notify.SettingsSource, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Service{
		notifier: notifier,
		settings: settings,
		logger:   logger,
		state:    NewState(),
		now:      time.Now,
	}
}

// Start registers the one-minute tick job and starts the scheduler. The
// returned scheduler should be shut down on exit.
func (s *Service) Start() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(tickInterval),
		gocron.NewTask(s.tick),
	); err != nil {
		return nil, fmt.Errorf("register tick job: %w", err)
	}

	sched.Start()

	s.logger.WithField("event", "scheduler_started").Info("notification scheduler running")
	return sched, nil
}

// tick evaluates the trigger table once. Send failures are logged per slot
// and do not clear the day's marker: a failed batch is not retried until the
// next day.
func (s *Service) tick() {
	fires, next := Due(s.settings.Notifications(), s.state, s.now())
	s.state = next

	for _, slot := range fires {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err := s.dispatch(ctx, slot)
		cancel()

		if err != nil {
			s.logger.WithFields(logging.Fields{
				"event": "slot_send_failed",
				"slot":  slot,
			}).WithError(err).Error("scheduled send failed")
			continue
		}

		s.logger.WithFields(logging.Fields{
			"event": "slot_sent",
			"slot":  slot,
		}).Info("scheduled send completed")
	}
}

func (s *Service) dispatch(ctx context.Context, slot string) error {
	switch slot {
	case domain.SlotMorning:
		return s.notifier.Morning(ctx)
	case domain.SlotEvening:
		return s.notifier.Evening(ctx)
	case domain.SlotDailyReport:
		return s.notifier.DailyReport(ctx)
	default:
		return fmt.Errorf("unknown slot %q", slot)
	}
}
