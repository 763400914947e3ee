package quiz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"quizmaker/internal/apperr"
	"quizmaker/internal/models"
	"quizmaker/internal/testdb"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

type fixture struct {
	db         *gorm.DB
	svc        *Service
	instructor *models.User
	other      *models.User
	student    *models.User
}

func newFixture(t *testing.T) *fixture {
	db := testdb.New(t)
	return &fixture{
		db:         db,
		svc:        NewService(NewRepository(db)),
		instructor: testdb.SeedUser(t, db, "owner@example.com", models.RoleInstructor),
		other:      testdb.SeedUser(t, db, "other@example.com", models.RoleInstructor),
		student:    testdb.SeedUser(t, db, "student@example.com", models.RoleStudent),
	}
}

func (f *fixture) createQuiz(t *testing.T, in CreateQuizInput) *models.Quiz {
	t.Helper()
	if in.InstructorID == "" {
		in.InstructorID = f.instructor.ID
	}
	if in.Title == "" {
		in.Title = "Go basics"
	}
	quiz, err := f.svc.CreateQuiz(context.Background(), in)
	require.NoError(t, err)
	return quiz
}

func (f *fixture) addQuestion(t *testing.T, quizID string) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.Question{
		QuizID:       quizID,
		QuestionText: "Q?",
		QuestionType: models.ShortAnswer,
		Points:       1,
	}).Error)
}

func TestCreateQuizStoresDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.createQuiz(t, CreateQuizInput{Title: "Minimal"})
	got, err := f.svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.False(t, got.IsPublished)
	require.Equal(t, "Minimal", got.Title)
	require.Equal(t, f.instructor.ID, got.InstructorID)
	require.Nil(t, got.Description)
	require.Nil(t, got.DurationMinutes)
	require.Nil(t, got.PassingScore)

	full := f.createQuiz(t, CreateQuizInput{
		Title:           "Full",
		Description:     strPtr("desc"),
		DurationMinutes: intPtr(30),
		PassingScore:    intPtr(70),
	})
	got, err = f.svc.GetByID(ctx, full.ID)
	require.NoError(t, err)
	require.Equal(t, "desc", *got.Description)
	require.Equal(t, 30, *got.DurationMinutes)
	require.Equal(t, 70, *got.PassingScore)
}

func TestCreateQuizRequiresInstructor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateQuiz(ctx, CreateQuizInput{Title: "T", InstructorID: f.student.ID})
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.CreateQuiz(ctx, CreateQuizInput{Title: "T", InstructorID: "missing"})
	require.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestGetByIDMissing(t *testing.T) {
	f := newFixture(t)
	quiz, err := f.svc.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, quiz)
}

func TestUpdateQuizByNonOwnerIsForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz := f.createQuiz(t, CreateQuizInput{Title: "Original"})

	_, err := f.svc.UpdateQuiz(ctx, quiz.ID, f.other.ID, UpdateQuizInput{Title: models.Some("Hijacked")})
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	got, err := f.svc.GetByID(ctx, quiz.ID)
	require.NoError(t, err)
	require.Equal(t, "Original", got.Title)

	_, err = f.svc.UpdateQuiz(ctx, "missing", f.instructor.ID, UpdateQuizInput{})
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateQuizAppliesOnlySuppliedFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz := f.createQuiz(t, CreateQuizInput{
		Title:           "Original",
		Description:     strPtr("keep me"),
		DurationMinutes: intPtr(20),
		PassingScore:    intPtr(50),
	})
	time.Sleep(10 * time.Millisecond)

	updated, err := f.svc.UpdateQuiz(ctx, quiz.ID, f.instructor.ID, UpdateQuizInput{
		Title:        models.Some("Renamed"),
		PassingScore: models.Some[*int](nil),
	})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Title)
	require.Equal(t, "keep me", *updated.Description)
	require.Equal(t, 20, *updated.DurationMinutes)
	require.Nil(t, updated.PassingScore, "explicit null clears the field")
	require.True(t, updated.UpdatedAt.After(quiz.UpdatedAt))
}

func TestPublishGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz := f.createQuiz(t, CreateQuizInput{})

	check, err := f.svc.CanPublish(ctx, quiz.ID)
	require.NoError(t, err)
	require.False(t, check.CanPublish)
	require.NotEmpty(t, check.Reason)

	f.addQuestion(t, quiz.ID)
	check, err = f.svc.CanPublish(ctx, quiz.ID)
	require.NoError(t, err)
	require.True(t, check.CanPublish)

	published, err := f.svc.PublishQuiz(ctx, quiz.ID, f.instructor.ID)
	require.NoError(t, err)
	require.True(t, published.IsPublished)

	list, err := f.svc.ListPublished(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Test instructor", list[0].InstructorName)
	require.Equal(t, "owner@example.com", list[0].InstructorEmail)

	unpublished, err := f.svc.UnpublishQuiz(ctx, quiz.ID, f.instructor.ID)
	require.NoError(t, err)
	require.False(t, unpublished.IsPublished)
}

func TestListByInstructorNewestFirst(t *testing.T) {
	f := newFixture(t)
	first := f.createQuiz(t, CreateQuizInput{Title: "First"})
	time.Sleep(10 * time.Millisecond)
	second := f.createQuiz(t, CreateQuizInput{Title: "Second"})
	f.createQuiz(t, CreateQuizInput{Title: "Theirs", InstructorID: f.other.ID})

	quizzes, err := f.svc.ListByInstructor(context.Background(), f.instructor.ID)
	require.NoError(t, err)
	require.Len(t, quizzes, 2)
	require.Equal(t, second.ID, quizzes[0].ID)
	require.Equal(t, first.ID, quizzes[1].ID)
}

func TestDeleteQuizCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz := f.createQuiz(t, CreateQuizInput{})

	q := &models.Question{QuizID: quiz.ID, QuestionText: "Q", QuestionType: models.TrueFalse, Points: 1}
	require.NoError(t, f.db.Create(q).Error)
	require.NoError(t, f.db.Create(&models.AnswerOption{QuestionID: q.ID, OptionText: "True", IsCorrect: true}).Error)
	require.NoError(t, f.db.Create(&models.QuizAttempt{QuizID: quiz.ID, StudentID: f.student.ID, StartedAt: time.Now(), Status: models.AttemptInProgress}).Error)

	require.True(t, apperr.Is(f.svc.DeleteQuiz(ctx, quiz.ID, f.other.ID), apperr.KindForbidden))
	require.NoError(t, f.svc.DeleteQuiz(ctx, quiz.ID, f.instructor.ID))

	for _, model := range []interface{}{&models.Quiz{}, &models.Question{}, &models.AnswerOption{}, &models.QuizAttempt{}} {
		var n int64
		require.NoError(t, f.db.Model(model).Count(&n).Error)
		require.Zero(t, n, "%T", model)
	}
}

func TestGetStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz := f.createQuiz(t, CreateQuizInput{PassingScore: intPtr(6)})

	stats, err := f.svc.GetStats(ctx, quiz.ID)
	require.NoError(t, err)
	require.Zero(t, stats.TotalAttempts)
	require.Nil(t, stats.AverageScore)
	require.Nil(t, stats.PassRate)

	now := time.Now()
	for _, a := range []models.QuizAttempt{
		{Score: intPtr(8), TotalPoints: intPtr(10), Status: models.AttemptCompleted, CompletedAt: &now},
		{Score: intPtr(5), TotalPoints: intPtr(10), Status: models.AttemptCompleted, CompletedAt: &now},
		{Status: models.AttemptAbandoned},
	} {
		a.QuizID = quiz.ID
		a.StudentID = f.student.ID
		a.StartedAt = now
		require.NoError(t, f.db.Create(&a).Error)
	}

	stats, err = f.svc.GetStats(ctx, quiz.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, stats.TotalAttempts)
	require.EqualValues(t, 2, stats.CompletedAttempts)
	require.InDelta(t, 6.5, *stats.AverageScore, 0.0001)
	require.InDelta(t, 50.0, *stats.PassRate, 0.0001)

	_, err = f.svc.GetStats(ctx, "missing")
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestPassRateNeedsPassingScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz := f.createQuiz(t, CreateQuizInput{})

	now := time.Now()
	require.NoError(t, f.db.Create(&models.QuizAttempt{
		QuizID: quiz.ID, StudentID: f.student.ID, StartedAt: now, CompletedAt: &now,
		Score: intPtr(3), TotalPoints: intPtr(4), Status: models.AttemptCompleted,
	}).Error)

	stats, err := f.svc.GetStats(ctx, quiz.ID)
	require.NoError(t, err)
	require.NotNil(t, stats.AverageScore)
	require.Nil(t, stats.PassRate)
}
