package services

import (
	"context"
	"strings"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/apperrors"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/models"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/store"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// QuestionService is the append-only question/answer workflow embedded in a
// tender. A question is answered at most once; answering never reverts.
type QuestionService struct {
	store    store.Store
	notifier *NotificationService
}

func NewQuestionService(s store.Store, n *NotificationService) *QuestionService {
	return &QuestionService{store: s, notifier: n}
}

func (s *QuestionService) Add(ctx context.Context, sess models.SessionContext, tenderID bson.ObjectID, text string) (*models.Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.Invalid("question text is required")
	}
	t, err := s.store.GetTender(ctx, tenderID)
	if err != nil {
		return nil, storeErr("load tender", err)
	}
	if t.Status != models.TenderStatusOpen {
		return nil, apperrors.Invalid("questions can only be asked while the tender is open")
	}

	askerID := sess.EffectiveID()
	company := ""
	if asker, err := s.store.GetUser(ctx, askerID); err == nil {
		company = asker.CompanyName
	}

	q := models.Question{
		ID:             bson.NewObjectID(),
		TenderID:       t.ID,
		Text:           text,
		AskedBy:        askerID,
		AskedByCompany: company,
		CreatedAt:      time.Now().UTC(),
	}
	t.Questions = append(t.Questions, q)
	t.UpdatedAt = time.Now().UTC()
	if err := s.store.ReplaceTender(ctx, t); err != nil {
		return nil, storeErr("save tender", err)
	}
	s.notifier.NotifyQuestionAsked(ctx, t, &q)
	return &q, nil
}

func (s *QuestionService) Answer(ctx context.Context, sess models.SessionContext, tenderID, questionID bson.ObjectID, answer string) (*models.Question, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, apperrors.Invalid("answer text is required")
	}
	t, err := s.store.GetTender(ctx, tenderID)
	if err != nil {
		return nil, storeErr("load tender", err)
	}
	if !sess.CanActOn(t.CreatedBy) {
		return nil, apperrors.Forbidden("only the tender owner may answer questions")
	}
	q := t.QuestionByID(questionID)
	if q == nil {
		return nil, apperrors.NotFound("question")
	}
	if q.Answered() {
		return nil, apperrors.Invalid("question is already answered")
	}

	now := time.Now().UTC()
	q.Answer = &answer
	q.AnsweredAt = &now
	t.UpdatedAt = now
	if err := s.store.ReplaceTender(ctx, t); err != nil {
		return nil, storeErr("save tender", err)
	}
	s.notifier.NotifyQuestionAnswered(ctx, t, q)
	return q, nil
}
