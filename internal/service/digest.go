package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/leadflow/leadflow/internal/lifecycle"
	"github.com/leadflow/leadflow/internal/repository"
)

// cronParser accepts standard 5-field expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// DigestService mails every verified user the tasks they have for the day.
type DigestService struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	tasks    *TaskService
	email    *EmailService
	now      func() time.Time
}

func NewDigestService(
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	tasks *TaskService,
	email *EmailService,
	now func() time.Time,
) *DigestService {
	return &DigestService{
		users:    users,
		profiles: profiles,
		tasks:    tasks,
		email:    email,
		now:      now,
	}
}

// Run sends one digest per user with a non-empty task list and returns how
// many were sent. A failure for one user is logged and does not stop the rest.
func (s *DigestService) Run(ctx context.Context) (int, error) {
	users, err := s.users.Verified(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	now := s.now()
	sent := 0
	for _, user := range users {
		err = ctx.Err()
		if err != nil {
			return sent, err
		}

		dashboard, err := s.tasks.Today(ctx, user.ID, now)
		if err != nil {
			slog.Error("failed to derive digest tasks", "error", err, "user_id", user.ID)
			continue
		}
		if len(dashboard.Tasks) == 0 {
			continue
		}

		lines := make([]string, 0, len(dashboard.Tasks))
		for _, task := range dashboard.Tasks {
			lines = append(lines, lifecycle.Describe(task))
		}

		name := ""
		profile, err := s.profiles.ByUserID(ctx, user.ID)
		if err == nil {
			name = profile.Name
		}

		err = s.email.SendDigestEmail(ctx, user.Email, name, lines)
		if err != nil {
			slog.Error("failed to send digest", "error", err, "user_id", user.ID)
			continue
		}
		sent++
	}

	slog.Info("daily digest finished", "users", len(users), "sent", sent)
	return sent, nil
}

// Schedule registers Run on a cron in loc. The caller starts and stops the
// returned cron.
func (s *DigestService) Schedule(spec string, loc *time.Location) (*cron.Cron, error) {
	c := cron.New(cron.WithParser(cronParser), cron.WithLocation(loc))

	_, err := c.AddFunc(spec, func() {
		_, err := s.Run(context.Background())
		if err != nil {
			slog.Error("daily digest failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", spec, err)
	}

	return c, nil
}

// NextRun returns the next time spec fires after from.
func NextRun(spec string, from time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(spec)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}
