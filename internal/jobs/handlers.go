package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/washtrack/washtrack/internal/mailer"
	"github.com/washtrack/washtrack/pkg/models"
)

// UserWelcomePayload is the body of a mail.user_created job.
type UserWelcomePayload struct {
	Email    string      `json:"email"`
	FullName string      `json:"full_name"`
	Role     models.Role `json:"role"`
}

// NewUserWelcomeHandler delivers the welcome mail for a manager-created
// account. A delivery failure is logged by the worker; the account already
// exists either way.
func NewUserWelcomeHandler(m mailer.Mailer, logger *slog.Logger) Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, j *Job) error {
		var p UserWelcomePayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return fmt.Errorf("decode welcome payload: %w", err)
		}

		if err := m.SendUserWelcome(p.Email, p.FullName, p.Role); err != nil {
			logger.Error("welcome mail delivery failed", "email", p.Email, "err", err)
			return err
		}

		logger.Info("welcome mail sent", "email", p.Email)
		return nil
	}
}
