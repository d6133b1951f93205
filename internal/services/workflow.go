package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/salimtrading/staffportal/internal/credential"
	staffmail "github.com/salimtrading/staffportal/internal/mail"
	"github.com/salimtrading/staffportal/internal/store"
	"github.com/salimtrading/staffportal/internal/token"
	"github.com/salimtrading/staffportal/types"
	"go.uber.org/zap"
)

// ErrInvalidEmail is returned when an invite address is empty or malformed.
var ErrInvalidEmail = errors.New("invalid email address")

// TokenService issues and verifies purpose-scoped tokens.
type TokenService interface {
	Issue(purpose token.Purpose, payload string) (string, error)
	Verify(purpose token.Purpose, tokenString string, maxAge time.Duration) (string, error)
}

// RedemptionLedger enforces single use of a token.
type RedemptionLedger interface {
	Claim(ctx context.Context, purpose, token string, ttl time.Duration) error
	Release(ctx context.Context, purpose, token string) error
}

// WorkflowConfig holds the settings the flows need.
type WorkflowConfig struct {
	OrgName     string
	Sender      string
	TokenMaxAge time.Duration
}

// Registration carries the validated fields of the self-registration form.
type Registration struct {
	BusinessID string
	FullName   string
	Department string
	Position   string
	Phone      string
	TaxID      string
	HireDate   *time.Time
	Password   string
}

// WorkflowService runs the invite/register and forgot/reset sequences.
type WorkflowService struct {
	repo      EmployeeRepository
	employees *EmployeeService
	hasher    *credential.Hasher
	tokens    TokenService
	ledger    RedemptionLedger
	mailer    staffmail.Sender
	cfg       WorkflowConfig
	log       *zap.Logger
}

func NewWorkflowService(
	repo EmployeeRepository,
	hasher *credential.Hasher,
	tokens TokenService,
	ledger RedemptionLedger,
	mailer staffmail.Sender,
	cfg WorkflowConfig,
	log *zap.Logger,
) *WorkflowService {
	if cfg.TokenMaxAge <= 0 {
		cfg.TokenMaxAge = time.Hour
	}
	return &WorkflowService{
		repo:      repo,
		employees: NewEmployeeService(repo, hasher, log),
		hasher:    hasher,
		tokens:    tokens,
		ledger:    ledger,
		mailer:    mailer,
		cfg:       cfg,
		log:       log,
	}
}

// TokenMaxAge is how long invite and reset links stay valid.
func (s *WorkflowService) TokenMaxAge() time.Duration {
	return s.cfg.TokenMaxAge
}

// Invite mails a registration link to email. Nothing is persisted, so a
// transport failure can be retried by inviting again.
func (s *WorkflowService) Invite(ctx context.Context, baseURL, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	tok, err := s.tokens.Issue(token.PurposeInvite, email)
	if err != nil {
		return fmt.Errorf("issue invite token: %w", err)
	}
	link := strings.TrimRight(baseURL, "/") + "/register/" + tok

	msg := staffmail.NewMessage(
		s.cfg.Sender,
		[]string{email},
		fmt.Sprintf("%s Staff Registration", s.cfg.OrgName),
		"Register here: "+link,
	)
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Error("send invite", zap.String("email", email), zap.Error(err))
		return err
	}
	s.log.Info("invite sent", zap.String("email", email), zap.String("message_id", msg.ID))
	return nil
}

// VerifyInvite returns the email bound to an invite token.
func (s *WorkflowService) VerifyInvite(tok string) (string, error) {
	return s.tokens.Verify(token.PurposeInvite, tok, s.cfg.TokenMaxAge)
}

// Register creates the employee for a verified invite. The email comes
// from the token only. Concurrent redemptions of one token race on the
// unique email; the loser gets ErrDuplicateEmployee.
func (s *WorkflowService) Register(ctx context.Context, tok string, reg Registration) (types.Employee, error) {
	email, err := s.VerifyInvite(tok)
	if err != nil {
		return types.Employee{}, err
	}

	employee := types.Employee{
		BusinessID: reg.BusinessID,
		FullName:   reg.FullName,
		Department: reg.Department,
		Position:   reg.Position,
		Email:      email,
		Phone:      reg.Phone,
		TaxID:      reg.TaxID,
		HireDate:   reg.HireDate,
		Status:     types.StatusActive,
	}
	if err := s.hasher.Set(&employee, reg.Password); err != nil {
		return types.Employee{}, err
	}

	created, err := s.employees.Create(ctx, employee)
	if err != nil {
		return types.Employee{}, err
	}
	s.log.Info("employee registered", zap.String("business_id", created.BusinessID), zap.String("email", email))
	return created, nil
}

// ForgotPassword mails a reset link when email belongs to an employee.
// Callers show the same confirmation whatever happens here, so unknown
// addresses and delivery failures are only logged.
func (s *WorkflowService) ForgotPassword(ctx context.Context, baseURL, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}

	employee, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log.Debug("password reset for unknown email")
			return nil
		}
		return fmt.Errorf("look up employee: %w", err)
	}

	tok, err := s.tokens.Issue(token.PurposePasswordReset, employee.Email)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	link := strings.TrimRight(baseURL, "/") + "/reset/" + tok

	msg := staffmail.NewMessage(s.cfg.Sender, []string{employee.Email}, "Reset Your Password", "Reset password: "+link)
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Error("send password reset", zap.String("business_id", employee.BusinessID), zap.Error(err))
		return nil
	}
	s.log.Info("password reset sent", zap.String("business_id", employee.BusinessID), zap.String("message_id", msg.ID))
	return nil
}

// VerifyReset returns the email bound to a reset token.
func (s *WorkflowService) VerifyReset(tok string) (string, error) {
	return s.tokens.Verify(token.PurposePasswordReset, tok, s.cfg.TokenMaxAge)
}

// ResetPassword spends a reset token and stores the new password. A
// token can be spent once; the claim is released if the update fails
// for a reason the user can retry.
func (s *WorkflowService) ResetPassword(ctx context.Context, tok, password string) (err error) {
	email, err := s.VerifyReset(tok)
	if err != nil {
		return err
	}
	if password == "" {
		return credential.ErrEmptyPassword
	}

	purpose := string(token.PurposePasswordReset)
	if err := s.ledger.Claim(ctx, purpose, tok, s.cfg.TokenMaxAge); err != nil {
		return err
	}
	defer func() {
		if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
			if releaseErr := s.ledger.Release(ctx, purpose, tok); releaseErr != nil {
				s.log.Warn("release reset token claim", zap.Error(releaseErr))
			}
		}
	}()

	employee, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrEmployeeNotFound
		}
		return fmt.Errorf("look up employee: %w", err)
	}

	if err := s.hasher.Set(&employee, password); err != nil {
		return err
	}
	if _, err := s.repo.Update(ctx, employee); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrEmployeeNotFound
		}
		return fmt.Errorf("save password: %w", err)
	}
	s.log.Info("password reset", zap.String("business_id", employee.BusinessID))
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
