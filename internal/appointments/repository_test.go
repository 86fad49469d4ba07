package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/admission"
)

func newMockRepo(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepositoryWithDB(mock), mock
}

func apptRows(appt *Appointment) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "patient_id", "scheduled_at", "duration_mins",
		"reason", "status", "notes", "created_at", "updated_at",
	}).AddRow(
		appt.ID, appt.PatientID, appt.ScheduledAt, appt.DurationMins,
		appt.Reason, string(appt.Status), appt.Notes, appt.CreatedAt, appt.UpdatedAt,
	)
}

func sampleAppointment() *Appointment {
	ts := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	return &Appointment{
		ID:           uuid.New(),
		PatientID:    uuid.New(),
		ScheduledAt:  ts,
		DurationMins: 30,
		Reason:       ReasonHernia,
		Status:       admission.StatusScheduled,
		CreatedAt:    ts.Add(-48 * time.Hour),
		UpdatedAt:    ts.Add(-48 * time.Hour),
	}
}

func TestRepositoryCreate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), 30,
			ReasonHernia, string(admission.StatusScheduled), "",
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	appt := &Appointment{
		PatientID:   uuid.New(),
		ScheduledAt: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
		Reason:      ReasonHernia,
		Status:      admission.StatusScheduled,
	}
	err := repo.Create(context.Background(), appt)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, appt.ID, "id is assigned on insert")
	assert.Equal(t, 30, appt.DurationMins, "default duration applies")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	want := sampleAppointment()

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs(want.ID).
		WillReturnRows(apptRows(want))

	got, err := repo.GetByID(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, admission.StatusScheduled, got.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdateStatus(t *testing.T) {
	repo, mock := newMockRepo(t)
	appt := sampleAppointment()
	updated := *appt
	updated.Status = admission.StatusCheckedIn
	updated.UpdatedAt = time.Now().UTC()

	mock.ExpectQuery("UPDATE appointments").
		WithArgs(string(admission.StatusCheckedIn), pgxmock.AnyArg(), appt.ID, appt.UpdatedAt).
		WillReturnRows(apptRows(&updated))

	got, err := repo.UpdateStatus(context.Background(), appt.ID, admission.StatusCheckedIn, appt.UpdatedAt)
	require.NoError(t, err)
	assert.Equal(t, admission.StatusCheckedIn, got.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Two racing writers: the loser's compare-and-set matches no row while the
// appointment itself still exists.
func TestRepositoryUpdateStatus_Stale(t *testing.T) {
	repo, mock := newMockRepo(t)
	appt := sampleAppointment()
	staleAt := appt.UpdatedAt.Add(-time.Minute)

	mock.ExpectQuery("UPDATE appointments").
		WithArgs(string(admission.StatusCheckedIn), pgxmock.AnyArg(), appt.ID, staleAt).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs(appt.ID).
		WillReturnRows(apptRows(appt))

	_, err := repo.UpdateStatus(context.Background(), appt.ID, admission.StatusCheckedIn, staleAt)
	assert.ErrorIs(t, err, ErrStaleAppointment)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdateStatus_RowGone(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()
	ts := time.Now().UTC()

	mock.ExpectQuery("UPDATE appointments").
		WithArgs(string(admission.StatusCancelled), pgxmock.AnyArg(), id, ts).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.UpdateStatus(context.Background(), id, admission.StatusCancelled, ts)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryListBetween(t *testing.T) {
	repo, mock := newMockRepo(t)
	first := sampleAppointment()
	second := sampleAppointment()
	second.ScheduledAt = first.ScheduledAt.Add(time.Hour)

	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(start, end).
		WillReturnRows(apptRows(first).AddRow(
			second.ID, second.PatientID, second.ScheduledAt, second.DurationMins,
			second.Reason, string(second.Status), second.Notes, second.CreatedAt, second.UpdatedAt,
		))

	got, err := repo.ListBetween(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryReschedule(t *testing.T) {
	repo, mock := newMockRepo(t)
	old := sampleAppointment()
	newTime := old.ScheduledAt.AddDate(0, 0, 7)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE appointments").
		WithArgs(string(admission.StatusRescheduled), pgxmock.AnyArg(), old.ID, old.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), old.PatientID, newTime, old.DurationMins,
			old.Reason, string(admission.StatusScheduled), old.Notes,
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	replacement, err := repo.Reschedule(context.Background(), old, newTime)
	require.NoError(t, err)
	assert.Equal(t, admission.StatusScheduled, replacement.Status)
	assert.Equal(t, newTime, replacement.ScheduledAt)
	assert.NotEqual(t, old.ID, replacement.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryReschedule_StaleRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	old := sampleAppointment()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE appointments").
		WithArgs(string(admission.StatusRescheduled), pgxmock.AnyArg(), old.ID, old.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err := repo.Reschedule(context.Background(), old, old.ScheduledAt.AddDate(0, 0, 7))
	assert.ErrorIs(t, err, ErrStaleAppointment)
	require.NoError(t, mock.ExpectationsWereMet())
}
