// Package contact forwards contact-form submissions to the email function.
package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
	"github.com/IGSolution/carehappyfarmsdemo/pkg/logger"
	"github.com/shopspring/decimal"
)

const sendContactFunction = "send-contact-email"

// ErrDeliveryFailed is what the sender sees when the email could not be sent.
var ErrDeliveryFailed = errors.New("Please try again later or contact us directly.")

type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type Form struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (f *Form) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Subject = strings.TrimSpace(f.Subject)
	f.Message = strings.TrimSpace(f.Message)
}

func (f Form) Validate() error {
	switch {
	case f.Name == "":
		return &FieldError{Field: "name", Message: "Please enter your name"}
	case f.Email == "":
		return &FieldError{Field: "email", Message: "Please enter your email"}
	case f.Subject == "":
		return &FieldError{Field: "subject", Message: "Please enter a subject"}
	case f.Message == "":
		return &FieldError{Field: "message", Message: "Please enter a message"}
	case !domain.ValidEmail(f.Email):
		return &FieldError{Field: "email", Message: "Please enter a valid email address"}
	}
	return nil
}

const (
	investorSubject  = "Investor Inquiry"
	noDonationNote   = "No additional message provided."
	donationSubjectF = "Donation Inquiry - $%s"
)

// DonationInquiry is the donations page form. Message is optional.
type DonationInquiry struct {
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Amount  decimal.Decimal `json:"amount"`
	Message string          `json:"message,omitempty"`
}

// Form composes the email sent for a donation inquiry.
func (d DonationInquiry) Form() (Form, error) {
	if !d.Amount.IsPositive() {
		return Form{}, &FieldError{Field: "amount", Message: "Please enter a donation amount"}
	}
	note := strings.TrimSpace(d.Message)
	if note == "" {
		note = noDonationNote
	}
	amount := d.Amount.StringFixedBank(2)
	return Form{
		Name:    d.Name,
		Email:   d.Email,
		Subject: fmt.Sprintf(donationSubjectF, amount),
		Message: fmt.Sprintf("Donation Amount: $%s\n\nMessage: %s", amount, note),
	}, nil
}

type InvestorInquiry struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (i InvestorInquiry) Form() Form {
	return Form{Name: i.Name, Email: i.Email, Subject: investorSubject, Message: i.Message}
}

type FunctionInvoker interface {
	Invoke(ctx context.Context, name string, body any) (*gateway.Envelope, error)
}

type Service struct {
	functions FunctionInvoker
}

func NewService(functions FunctionInvoker) *Service {
	return &Service{functions: functions}
}

func (s *Service) Send(ctx context.Context, form Form) error {
	form.normalize()
	if err := form.Validate(); err != nil {
		return err
	}

	log := logger.FromContext(ctx).WithField("subject", form.Subject)
	env, err := s.functions.Invoke(ctx, sendContactFunction, form)
	if err == nil {
		_, err = env.Result()
	}
	if err != nil {
		log.WithError(err).Error("contact email failed")
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	log.Info("contact email sent")
	return nil
}

func (s *Service) SendDonationInquiry(ctx context.Context, inquiry DonationInquiry) error {
	form, err := inquiry.Form()
	if err != nil {
		return err
	}
	return s.Send(ctx, form)
}

func (s *Service) SendInvestorInquiry(ctx context.Context, inquiry InvestorInquiry) error {
	return s.Send(ctx, inquiry.Form())
}
