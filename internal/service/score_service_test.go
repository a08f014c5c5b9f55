package service

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholar-ledger-api/internal/dto"
	"github.com/noah-isme/scholar-ledger-api/internal/events"
	"github.com/noah-isme/scholar-ledger-api/internal/models"
	"github.com/noah-isme/scholar-ledger-api/internal/repository"
)

func TestScoreServiceUpdateRowCreatesRecordLazily(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	class := f.createClass(t, "Primary 3", models.ClassStagePrimary)
	student := f.createStudent(t, "Ada Obi", class.ID)
	svc := f.scoreService(nil)

	before, err := svc.GetRecord(ctx, student.ID, dto.ScopeQuery{})
	require.NoError(t, err)
	require.False(t, before.Exists)
	require.Empty(t, before.Rows)
	require.Equal(t, testTerm, before.Term)

	record, err := svc.UpdateRow(ctx, student.ID, dto.ScopeQuery{}, dto.ScoreRowRequest{
		Subject: "Mathematics",
		CA1:     ptrFloat(15),
		CA2:     ptrFloat(18),
		Exam:    ptrFloat(50),
	}, teacher)
	require.NoError(t, err)
	require.True(t, record.Exists)
	require.Len(t, record.Rows, 1)
	require.Equal(t, 83.0, record.Rows[0].Total)
	require.Equal(t, "A", record.Rows[0].Grade)
	require.Equal(t, "Excellent", record.Rows[0].Comment)
	require.Equal(t, 83.0, record.Average)
	require.Equal(t, 83.0, record.TotalScore)

	stored, err := f.scores.GetByScope(ctx, student.ID, testSession, testTerm)
	require.NoError(t, err)
	require.Equal(t, class.ID, stored.ClassID)
	require.Len(t, stored.Rows, 1)

	require.Equal(t, []string{events.TypeScoresUpdated}, f.publisher.Types())
	envelope := f.publisher.Events()[0]
	require.Equal(t, testSession, envelope.Session)
	require.Equal(t, testTerm, envelope.Term)

	logs, _, err := f.logs.List(ctx, repository.ActivityLogFilter{Action: "scores.row_updated"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, "teacher", logs[0].ActorRole)
}

func TestScoreServiceUpdateRowKeepsOmittedComponents(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	class := f.createClass(t, "Primary 3", models.ClassStagePrimary)
	student := f.createStudent(t, "Ada Obi", class.ID)
	svc := f.scoreService(nil)

	_, err := svc.UpdateRow(ctx, student.ID, dto.ScopeQuery{}, dto.ScoreRowRequest{Subject: "Mathematics", CA1: ptrFloat(10), CA2: ptrFloat(10), Exam: ptrFloat(30)}, teacher)
	require.NoError(t, err)
	_, err = svc.UpdateRow(ctx, student.ID, dto.ScopeQuery{}, dto.ScoreRowRequest{Subject: "English Language", Exam: ptrFloat(40)}, teacher)
	require.NoError(t, err)

	record, err := svc.UpdateRow(ctx, student.ID, dto.ScopeQuery{}, dto.ScoreRowRequest{Subject: "Mathematics", Exam: ptrFloat(45)}, teacher)
	require.NoError(t, err)
	require.Len(t, record.Rows, 2)
	require.Equal(t, 10.0, record.Rows[0].CA1)
	require.Equal(t, 65.0, record.Rows[0].Total)
	require.Equal(t, "B", record.Rows[0].Grade)
	require.Equal(t, 40.0, record.Rows[1].Total)
	require.Equal(t, "D", record.Rows[1].Grade)
	require.Equal(t, 105.0, record.TotalScore)
	require.Equal(t, 52.5, record.Average)
}

func TestScoreServiceUpdateRowRejectsInvalidEntries(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	class := f.createClass(t, "Primary 3", models.ClassStagePrimary, "Mathematics")
	student := f.createStudent(t, "Ada Obi", class.ID)
	svc := f.scoreService(nil)

	_, err := svc.UpdateRow(ctx, student.ID, dto.ScopeQuery{}, dto.ScoreRowRequest{Subject: "Mathematics", CA1: ptrFloat(21)}, teacher)
	require.ErrorIs(t, err, ErrScoreExceedsMax)

	_, err = svc.UpdateRow(ctx, student.ID, dto.ScopeQuery{}, dto.ScoreRowRequest{Subject: "Mathematics", Exam: ptrFloat(-1)}, teacher)
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)

	_, err = svc.UpdateRow(ctx, student.ID, dto.ScopeQuery{}, dto.ScoreRowRequest{Subject: "Basic Science", CA1: ptrFloat(5)}, teacher)
	require.ErrorIs(t, err, ErrSubjectNotOffered)

	_, err = svc.UpdateRow(ctx, 999, dto.ScopeQuery{}, dto.ScoreRowRequest{Subject: "Mathematics"}, teacher)
	require.ErrorIs(t, err, ErrStudentNotFound)

	_, err = f.scores.GetByScope(ctx, student.ID, testSession, testTerm)
	require.Error(t, err, "rejected updates must not create a record")
	require.Empty(t, f.publisher.Types())
}

func TestScoreServiceTraitsAttendanceAndRemarks(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	class := f.createClass(t, "Nursery 1", models.ClassStagePreschool)
	student := f.createStudent(t, "Bola Ade", class.ID)
	svc := f.scoreService(nil)

	_, err := svc.UpdateTraits(ctx, student.ID, dto.ScopeQuery{}, dto.TraitsRequest{Affective: map[string]int{"Punctuality": 6}}, teacher)
	require.Error(t, err)

	_, err = svc.UpdateTraits(ctx, student.ID, dto.ScopeQuery{}, dto.TraitsRequest{Affective: map[string]int{"Charisma": 3}}, teacher)
	require.ErrorIs(t, err, ErrUnknownTrait)

	_, err = svc.UpdateTraits(ctx, student.ID, dto.ScopeQuery{}, dto.TraitsRequest{
		Affective:   map[string]int{"Punctuality": 4, "Neatness": 5},
		Psychomotor: map[string]int{"Handwriting": 3},
	}, teacher)
	require.NoError(t, err)

	record, err := svc.UpdateTraits(ctx, student.ID, dto.ScopeQuery{}, dto.TraitsRequest{Affective: map[string]int{"Neatness": 2}}, teacher)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"Punctuality": 4, "Neatness": 2}, record.Affective)
	require.Equal(t, map[string]int{"Handwriting": 3}, record.Psychomotor)

	_, err = svc.UpdateAttendance(ctx, student.ID, dto.ScopeQuery{}, dto.AttendanceRequest{Present: 60, Total: 58}, teacher)
	require.Error(t, err)

	record, err = svc.UpdateAttendance(ctx, student.ID, dto.ScopeQuery{}, dto.AttendanceRequest{Present: 55, Total: 58}, teacher)
	require.NoError(t, err)
	require.Equal(t, dto.AttendanceView{Present: 55, Total: 58}, record.Attendance)

	record, err = svc.UpdateRemarks(ctx, student.ID, dto.ScopeQuery{}, dto.RemarksRequest{
		TeacherRemark: ptrString(`<script>alert(1)</script><b>A focused pupil.</b>`),
	}, teacher)
	require.NoError(t, err)
	require.Equal(t, "A focused pupil.", record.TeacherRemark)
	require.Empty(t, record.HeadTeacherRemark)

	record, err = svc.UpdateRemarks(ctx, student.ID, dto.ScopeQuery{}, dto.RemarksRequest{HeadTeacherRemark: ptrString("Promoted.")}, teacher)
	require.NoError(t, err)
	require.Equal(t, "A focused pupil.", record.TeacherRemark)
	require.Equal(t, "Promoted.", record.HeadTeacherRemark)
	require.Empty(t, record.Rows)
	require.Equal(t, 0.0, record.Average)
}

func TestScoreServiceScopesRecordsBySessionAndTerm(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	class := f.createClass(t, "Primary 3", models.ClassStagePrimary)
	student := f.createStudent(t, "Ada Obi", class.ID)
	svc := f.scoreService(nil)

	_, err := svc.UpdateRow(ctx, student.ID, dto.ScopeQuery{}, dto.ScoreRowRequest{Subject: "Mathematics", Exam: ptrFloat(50)}, teacher)
	require.NoError(t, err)

	second := dto.ScopeQuery{Term: "Second Term"}
	record, err := svc.UpdateRow(ctx, student.ID, second, dto.ScoreRowRequest{Subject: "Mathematics", Exam: ptrFloat(30)}, teacher)
	require.NoError(t, err)
	require.Equal(t, "Second Term", record.Term)
	require.Equal(t, 30.0, record.TotalScore)

	first, err := svc.GetRecord(ctx, student.ID, dto.ScopeQuery{})
	require.NoError(t, err)
	require.Equal(t, 50.0, first.TotalScore)
}

func TestScoreServiceInvalidatesCachedRanking(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	class := f.createClass(t, "Primary 3", models.ClassStagePrimary)
	student := f.createStudent(t, "Ada Obi", class.ID)

	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer client.Close()

	cache := NewRankingCache(client, 0, testLogger())
	scope := Scope{Session: testSession, Term: testTerm}
	cache.Set(ctx, class.ID, scope, dto.ClassRankingResponse{Session: testSession, Term: testTerm})
	cache.Set(ctx, class.ID+10, scope, dto.ClassRankingResponse{})
	require.True(t, mini.Exists(rankingKey(class.ID, scope)))

	_, err = f.scoreService(cache).UpdateRow(ctx, student.ID, dto.ScopeQuery{}, dto.ScoreRowRequest{Subject: "Mathematics", Exam: ptrFloat(50)}, teacher)
	require.NoError(t, err)

	require.False(t, mini.Exists(rankingKey(class.ID, scope)))
	require.True(t, mini.Exists(rankingKey(class.ID+10, scope)), "other classes keep their cache")
}

func TestScoreServiceEditFollowsStudentClass(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	from := f.createClass(t, "Primary 3", models.ClassStagePrimary)
	to := f.createClass(t, "Primary 4", models.ClassStagePrimary)
	student := f.createStudent(t, "Ada Obi", from.ID)
	svc := f.scoreService(nil)

	_, err := svc.UpdateRow(ctx, student.ID, dto.ScopeQuery{}, dto.ScoreRowRequest{Subject: "Mathematics", Exam: ptrFloat(40)}, teacher)
	require.NoError(t, err)

	_, err = f.students.UpdateClass(ctx, student.ID, to.ID)
	require.NoError(t, err)

	stored, err := f.scores.GetByScope(ctx, student.ID, testSession, testTerm)
	require.NoError(t, err)
	require.Equal(t, from.ID, stored.ClassID, "moving a student leaves the record untouched")

	_, err = svc.UpdateAttendance(ctx, student.ID, dto.ScopeQuery{}, dto.AttendanceRequest{Present: 40, Total: 60}, teacher)
	require.NoError(t, err)

	stored, err = f.scores.GetByScope(ctx, student.ID, testSession, testTerm)
	require.NoError(t, err)
	require.Equal(t, to.ID, stored.ClassID)
	require.Len(t, stored.Rows, 1)
}
