package service

import (
	"context"
	"fmt"
	"time"

	"github.com/calliope-studio/portal/internal/db"
	"github.com/calliope-studio/portal/internal/domain"
	"github.com/calliope-studio/portal/internal/engine"
	"github.com/calliope-studio/portal/internal/repository"
)

// webhookActorID is recorded as the completer for webhook-driven completions.
const webhookActorID = "stripe:webhook"

// successEventTypes are the payment event types that settle an invoice.
var successEventTypes = map[string]bool{
	"invoice.paid":             true,
	"payment_intent.succeeded": true,
}

type paymentWebhookService struct {
	uow      db.UnitOfWork
	eng      *engine.Engine
	observer UseCaseObserver
}

// NewPaymentWebhookService creates the payment-webhook adapter. All of its
// reads and writes run inside the trigger transaction, so it needs no
// standalone repositories.
func NewPaymentWebhookService(uow db.UnitOfWork, eng *engine.Engine, observers ...UseCaseObserver) PaymentWebhookService {
	return &paymentWebhookService{
		uow:      uow,
		eng:      eng,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *paymentWebhookService) HandleEvent(ctx context.Context, ev PaymentEvent) (result *WebhookResult, err error) {
	started := time.Now()
	defer func() {
		observe(ctx, s.observer, "payment_webhook", started, err, map[string]any{
			"event_id":   ev.ID,
			"event_type": ev.Type,
			"project_id": ev.ProjectID,
		})
	}()

	if !successEventTypes[ev.Type] {
		return &WebhookResult{Ignored: true}, nil
	}
	if ev.ID == "" || ev.ProjectID == "" {
		return nil, fmt.Errorf("payment event missing id or project metadata")
	}

	// The charge settles the payment requirement of the phase named in the
	// event metadata; Stripe checkout sessions without one default to the
	// final-invoice PAY phase.
	targetPhase := ev.PhaseKey
	if targetPhase == "" {
		targetPhase = domain.PhasePayment
	}
	if !domain.ValidPhaseKey(targetPhase) {
		return nil, fmt.Errorf("phase %q: %w", targetPhase, domain.ErrInvalidPhaseKey)
	}

	out := &WebhookResult{}
	var evaluation engine.Result
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, ev.ProjectID); err != nil {
			return err
		}

		// Idempotency under at-least-once delivery: a redelivered event hits
		// the ledger and commits without touching completions again.
		fresh, err := repository.NewSQLitePaymentEventRepo(tx).MarkProcessed(ctx, &domain.ProcessedPaymentEvent{
			EventID:     ev.ID,
			ProjectID:   ev.ProjectID,
			EventType:   ev.Type,
			ProcessedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if !fresh {
			out.AlreadyProcessed = true
			return nil
		}

		mandatory, err := domain.MandatoryRequirements(targetPhase)
		if err != nil {
			return err
		}
		completionRepo := repository.NewSQLiteCompletionRepo(tx)
		actor := webhookActorID
		now := time.Now().UTC()
		for _, def := range mandatory {
			if def.Kind != domain.KindPayment {
				continue
			}
			c := &domain.RequirementCompletion{
				ProjectID:     ev.ProjectID,
				RequirementID: def.ID,
				Completed:     true,
				CompletedBy:   &actor,
				CompletedAt:   &now,
				UpdatedAt:     now,
			}
			if err := completionRepo.Upsert(ctx, c); err != nil {
				return err
			}
		}

		var evalErr error
		evaluation, evalErr = s.eng.Evaluate(ctx, tx, ev.ProjectID)
		if evalErr != nil {
			return evalErr
		}
		out.Processed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.eng.Publish(ctx, evaluation.Transition)
	out.Evaluation = evaluation
	return out, nil
}
