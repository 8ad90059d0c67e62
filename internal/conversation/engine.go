// Package conversation drives one user turn: classify, update the session, prompt or search.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "food-ordering-agent/internal/common/errors"
	"food-ordering-agent/internal/common/logger"
	"food-ordering-agent/internal/common/metrics"
	"food-ordering-agent/internal/common/observability"
	"food-ordering-agent/internal/intent"
	"food-ordering-agent/internal/models"
	"food-ordering-agent/internal/session"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	promptAddress    = "Please provide your address."
	promptPreference = "Please provide your food preference."
	promptBudget     = "Please provide your budget."
	msgNotUnderstood = "Sorry, I didn't understand your intent. Could you please rephrase?"
	msgNoMatch       = "Sorry, I couldn't find a dish that matches your preference and budget."
	msgPayment       = "I'll order for you the preferred dish. Please provide payment details - they will sent directly to the payment provider and will not be stored."
	msgUnavailable   = "Sorry, I'm having trouble processing your request right now. Please try again in a moment."
)

// errKeepSession ends a turn that answered the user but must not change the session.
var errKeepSession = errors.New("keep session")

// Classifier maps an utterance onto an intent.
type Classifier interface {
	Classify(ctx context.Context, utterance, sessionContext string) (*intent.Result, error)
}

// TextService is the part of the LLM collaborator the engine calls directly.
type TextService interface {
	AnswerGeneralQuestion(ctx context.Context, utterance string) (string, error)
	SummarizeBudget(ctx context.Context, utterance string) (string, error)
	Rephrase(ctx context.Context, text string) (string, error)
}

// ItemRanker proposes an order, or nil when nothing fits.
type ItemRanker interface {
	Rank(ctx context.Context, address string, preferences []string, budget float64) (*models.OrderDetails, error)
}

type Config struct {
	// StepTimeout bounds each collaborator step of a turn.
	StepTimeout time.Duration
}

type Dependencies struct {
	Sessions      *session.Store
	Classifier    Classifier
	LLM           TextService
	Ranker        ItemRanker
	Observability *observability.Observability
}

type Engine struct {
	config     Config
	sessions   *session.Store
	classifier Classifier
	llm        TextService
	ranker     ItemRanker
	obs        *observability.Observability
	logger     logger.Logger
}

func NewEngine(cfg Config, deps Dependencies, log logger.Logger) *Engine {
	obs := deps.Observability
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &Engine{
		config:     cfg,
		sessions:   deps.Sessions,
		classifier: deps.Classifier,
		llm:        deps.LLM,
		ranker:     deps.Ranker,
		obs:        obs,
		logger:     logger.Component(log, "conversation-engine"),
	}
}

// HandleInput processes one utterance for the session. It always returns a response; the error
// is non-nil only when a collaborator or the session store failed, in which case the response is
// an ERROR and the session is left as it was.
func (e *Engine) HandleInput(ctx context.Context, sessionKey, utterance string) (*models.Response, error) {
	start := time.Now()
	ctx, span := e.obs.StartSpan(ctx, "conversation.HandleInput", attribute.String("session", sessionKey))
	defer span.End()

	var resp *models.Response
	err := e.sessions.Update(ctx, sessionKey, func(sess *models.Session) error {
		r, err := e.turn(ctx, sess, utterance)
		resp = r
		return err
	})
	if errors.Is(err, errKeepSession) {
		err = nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Error("turn failed", map[string]interface{}{
			"session": sessionKey,
			"code":    string(apperrors.CodeOf(err)),
			"error":   err.Error(),
		})
		resp = &models.Response{Status: models.StatusError, Response: msgUnavailable}
	}

	span.SetAttributes(attribute.String("status", string(resp.Status)))
	metrics.RequestsTotal.WithLabelValues(string(resp.Status)).Inc()
	e.obs.RecordTurn(ctx, string(resp.Status), time.Since(start))

	e.logger.Info("turn handled", map[string]interface{}{
		"session":  sessionKey,
		"status":   string(resp.Status),
		"duration": time.Since(start).String(),
	})
	return resp, err
}

// PendingOrder returns the order awaiting payment details, or nil.
func (e *Engine) PendingOrder(ctx context.Context, sessionKey string) (*models.OrderDetails, error) {
	return e.sessions.PendingOrder(ctx, sessionKey)
}

func (e *Engine) turn(ctx context.Context, sess *models.Session, utterance string) (*models.Response, error) {
	stepCtx, cancel := e.step(ctx)
	result, err := e.classifier.Classify(stepCtx, utterance, intent.SessionContext(sess))
	cancel()
	if err != nil {
		return nil, upstream("intent", "classify", err)
	}

	e.logger.Debug("intent", map[string]interface{}{
		"session": sess.ID,
		"intent":  string(result.Intent),
	})

	switch result.Intent {
	case models.IntentGeneralQuestion:
		stepCtx, cancel := e.step(ctx)
		defer cancel()
		answer, err := e.llm.AnswerGeneralQuestion(stepCtx, utterance)
		metrics.ObserveCall("llm", "answer", err)
		if err != nil {
			return nil, upstream("llm", "answer", err)
		}
		return &models.Response{Status: models.StatusAnswer, Response: answer}, errKeepSession

	case models.IntentProvideBudget:
		if !sess.HasBudget() {
			stepCtx, cancel := e.step(ctx)
			summary, err := e.llm.SummarizeBudget(stepCtx, utterance)
			cancel()
			metrics.ObserveCall("llm", "summarizeBudget", err)
			if err != nil {
				return nil, upstream("llm", "summarizeBudget", err)
			}
			amount, ok := ParseBudget(summary)
			if !ok {
				e.logger.Info("budget not parsed", map[string]interface{}{
					"session": sess.ID,
					"code":    string(apperrors.NewBudgetUnparsableError(summary).Code),
				})
				return e.reply(ctx, models.StatusError, msgNotUnderstood), errKeepSession
			}
			sess.SetBudget(amount)
		}
		return e.searchOrPrompt(ctx, sess)

	case models.IntentProvideAddress:
		sess.SetAddress(utterance)
		return e.searchOrPrompt(ctx, sess)

	case models.IntentProvidePreferences:
		sess.AddPreference(utterance)
		return e.searchOrPrompt(ctx, sess)

	default:
		stdErr := apperrors.NewUnclassifiableIntentError(string(result.Intent))
		e.logger.Warn("unhandled intent", map[string]interface{}{
			"session": sess.ID,
			"code":    string(stdErr.Code),
			"details": stdErr.Details,
		})
		return e.reply(ctx, models.StatusError, msgNotUnderstood), errKeepSession
	}
}

// searchOrPrompt asks for the first missing field in address, preference, budget order,
// and searches once all three are known.
func (e *Engine) searchOrPrompt(ctx context.Context, sess *models.Session) (*models.Response, error) {
	switch {
	case !sess.HasAddress():
		return e.reply(ctx, models.StatusRequestAddress, promptAddress), nil
	case !sess.HasPreferences():
		return e.reply(ctx, models.StatusRequestPreference, promptPreference), nil
	case !sess.HasBudget():
		return e.reply(ctx, models.StatusRequestBudget, promptBudget), nil
	}

	stepCtx, cancel := e.step(ctx)
	stepCtx, span := e.obs.StartSpan(stepCtx, "ranking.Rank")
	order, err := e.ranker.Rank(stepCtx, *sess.Address, sess.Preferences, *sess.Budget)
	span.End()
	cancel()
	if err != nil {
		return nil, upstream("ranker", "rank", err)
	}

	if order == nil {
		stdErr := apperrors.NewNoMatchingItemError(*sess.Budget)
		e.logger.Info("no matching item", map[string]interface{}{
			"session": sess.ID,
			"code":    string(stdErr.Code),
			"budget":  *sess.Budget,
		})
		sess.ResetSearch()
		return e.reply(ctx, models.StatusError, msgNoMatch), nil
	}

	sess.PendingOrder = order
	resp := e.reply(ctx, models.StatusRequestPaymentDetails, msgPayment)
	resp.Order = order
	return resp, nil
}

// reply rephrases literal through the LLM, keeping literal when that fails.
func (e *Engine) reply(ctx context.Context, status models.ResponseStatus, literal string) *models.Response {
	stepCtx, cancel := e.step(ctx)
	defer cancel()

	text, err := e.llm.Rephrase(stepCtx, literal)
	metrics.ObserveCall("llm", "rephrase", err)
	if err != nil || text == "" {
		e.logger.Warn("rephrase failed, using literal text", map[string]interface{}{
			"status": string(status),
			"error":  fmt.Sprint(err),
		})
		text = literal
	}
	return &models.Response{Status: status, Response: text}
}

func (e *Engine) step(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.config.StepTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.config.StepTimeout)
}

func upstream(collaborator, operation string, err error) error {
	if _, ok := apperrors.AsStandard(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.NewUpstreamTimeoutError(collaborator, operation, err)
	}
	return apperrors.NewUpstreamFailureError(collaborator, operation, err)
}
