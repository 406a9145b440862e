package services

import (
	"context"
	"testing"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/apperrors"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/models"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestAskQuestionOnOpenTender(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	owner := e.addUser(t, models.RoleSender, "byggherre")
	supplier := e.addUser(t, models.RoleSupplier, "entreprenor")

	tender := e.openTender(t, owner)

	q, err := e.questions.Add(ctx, sessFor(supplier), tender.ID, "Is the site accessible by truck?")
	require.NoError(t, err)
	require.Equal(t, supplier.ID, q.AskedBy)
	require.Equal(t, supplier.CompanyName, q.AskedByCompany)
	require.False(t, q.Answered())

	// the owner is notified and the link goes to the tender page
	notifs := e.notificationsFor(t, owner.ID)
	require.Len(t, notifs, 1)
	require.Equal(t, models.NotificationQuestionAsked, notifs[0].Type)
	require.Equal(t, "/tenders/"+tender.ID.Hex(), notifs[0].ActionURL)
}

func TestQuestionsOnlyWhileOpen(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	owner := e.addUser(t, models.RoleSender, "byggherre")
	supplier := e.addUser(t, models.RoleSupplier, "entreprenor")

	tender := e.openTender(t, owner)
	_, err := e.tenders.Close(ctx, sessFor(owner), tender.ID)
	require.NoError(t, err)

	_, err = e.questions.Add(ctx, sessFor(supplier), tender.ID, "Too late?")
	require.ErrorIs(t, err, apperrors.ErrInvalidOperation)
}

func TestAnswerQuestionOnce(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	owner := e.addUser(t, models.RoleSender, "byggherre")
	supplier := e.addUser(t, models.RoleSupplier, "entreprenor")

	tender := e.openTender(t, owner)
	q, err := e.questions.Add(ctx, sessFor(supplier), tender.ID, "Deadline extension possible?")
	require.NoError(t, err)

	// only the owner answers
	_, err = e.questions.Answer(ctx, sessFor(supplier), tender.ID, q.ID, "no")
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	answered, err := e.questions.Answer(ctx, sessFor(owner), tender.ID, q.ID, "No, the deadline is fixed.")
	require.NoError(t, err)
	require.True(t, answered.Answered())
	require.NotNil(t, answered.AnsweredAt)

	// the one answer never reverts
	_, err = e.questions.Answer(ctx, sessFor(owner), tender.ID, q.ID, "changed my mind")
	require.ErrorIs(t, err, apperrors.ErrInvalidOperation)

	// the asker hears back
	notifs := e.notificationsFor(t, supplier.ID)
	require.Len(t, notifs, 1)
	require.Equal(t, models.NotificationQuestionAnswered, notifs[0].Type)
}

func TestAnswerUnknownQuestion(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	owner := e.addUser(t, models.RoleSender, "byggherre")

	tender := e.openTender(t, owner)
	_, err := e.questions.Answer(ctx, sessFor(owner), tender.ID, bson.NewObjectID(), "answering nothing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
