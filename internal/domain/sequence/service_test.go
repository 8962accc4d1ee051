package sequence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
)

// memCounterRepo is an in-memory Repository for exercising the sequencer.
type memCounterRepo struct {
	counter   *Counter
	resets    int
	increrr   error
	decrCalls int
}

func (m *memCounterRepo) Create(_ context.Context, c *Counter) error {
	if m.counter != nil {
		return apperror.NewConflict("counter already exists")
	}
	cp := *c
	m.counter = &cp
	return nil
}

func (m *memCounterRepo) Get(_ context.Context, _ id.ID, _ string) (*Counter, error) {
	if m.counter == nil {
		return nil, apperror.NewNotFound("voucher_counter", "")
	}
	cp := *m.counter
	return &cp, nil
}

func (m *memCounterRepo) Increment(_ context.Context, _ id.ID, _ string) (int64, error) {
	if m.increrr != nil {
		return 0, m.increrr
	}
	if m.counter == nil {
		return 0, apperror.NewNotFound("voucher_counter", "")
	}
	m.counter.CurrentNumber++
	return m.counter.CurrentNumber, nil
}

func (m *memCounterRepo) Decrement(_ context.Context, _ id.ID, _ string) (int64, error) {
	m.decrCalls++
	if m.counter == nil {
		return 0, apperror.NewNotFound("voucher_counter", "")
	}
	if m.counter.CurrentNumber > m.counter.StartingNumber {
		m.counter.CurrentNumber--
	}
	return m.counter.CurrentNumber, nil
}

func (m *memCounterRepo) Reset(_ context.Context, _ id.ID, _ string, boundary, _ time.Time) error {
	if m.counter == nil {
		return apperror.NewNotFound("voucher_counter", "")
	}
	if !m.counter.LastReset.Before(boundary) {
		return nil
	}
	m.counter.CurrentNumber = m.counter.StartingNumber
	m.counter.LastReset = boundary
	m.resets++
	return nil
}

func newInitializedSequencer(t *testing.T, mutate func(*Counter)) (*Sequencer, *memCounterRepo, *Counter) {
	t.Helper()
	repo := &memCounterRepo{}
	seq := NewSequencer(repo)

	c := NewCounter(id.New(), "Sales")
	c.Prefix = "INV"
	if mutate != nil {
		mutate(c)
	}
	require.NoError(t, seq.Initialize(context.Background(), c))
	return seq, repo, c
}

func TestSequencer_ReserveSequence(t *testing.T) {
	seq, _, c := newInitializedSequencer(t, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, want := range []string{"INV-0001", "INV-0002", "INV-0003"} {
		res, err := seq.Reserve(ctx, c.CompanyID, c.VoucherType, now)
		require.NoError(t, err)
		assert.EqualValues(t, i+1, res.Value)
		assert.Equal(t, want, res.Formatted)
	}
}

func TestSequencer_ReserveWithStartingNumber(t *testing.T) {
	seq, _, c := newInitializedSequencer(t, func(c *Counter) {
		c.StartingNumber = 1000
	})

	res, err := seq.Reserve(context.Background(), c.CompanyID, c.VoucherType, time.Now().UTC())
	require.NoError(t, err)
	assert.EqualValues(t, 1001, res.Value)
	assert.Equal(t, "INV-1001", res.Formatted)
}

func TestSequencer_ReleaseRewinds(t *testing.T) {
	seq, repo, c := newInitializedSequencer(t, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := seq.Reserve(ctx, c.CompanyID, c.VoucherType, now)
	require.NoError(t, err)

	require.NoError(t, seq.Release(ctx, c.CompanyID, c.VoucherType))
	assert.Equal(t, 1, repo.decrCalls)

	// The released number is handed out again.
	res, err := seq.Reserve(ctx, c.CompanyID, c.VoucherType, now)
	require.NoError(t, err)
	assert.Equal(t, "INV-0001", res.Formatted)
}

func TestSequencer_ReleaseClampsAtStartingNumber(t *testing.T) {
	seq, repo, c := newInitializedSequencer(t, nil)
	ctx := context.Background()

	require.NoError(t, seq.Release(ctx, c.CompanyID, c.VoucherType))
	require.NoError(t, seq.Release(ctx, c.CompanyID, c.VoucherType))
	assert.EqualValues(t, 0, repo.counter.CurrentNumber)

	res, err := seq.Reserve(ctx, c.CompanyID, c.VoucherType, time.Now().UTC())
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Value)
}

func TestSequencer_YearlyResetOnReserve(t *testing.T) {
	seq, repo, c := newInitializedSequencer(t, func(c *Counter) {
		c.ResetFrequency = ResetYearly
		c.LastReset = time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	})
	ctx := context.Background()

	// Counter has been running during 2025.
	stillIn2025 := time.Date(2025, time.December, 31, 23, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := seq.Reserve(ctx, c.CompanyID, c.VoucherType, stillIn2025)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, repo.resets)

	// First reservation of the new year rewinds to 1.
	newYear := time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC)
	res, err := seq.Reserve(ctx, c.CompanyID, c.VoucherType, newYear)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.resets)
	assert.Equal(t, "INV-0001", res.Formatted)

	// The reset happens once per boundary, not once per reservation.
	res, err = seq.Reserve(ctx, c.CompanyID, c.VoucherType, newYear.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, repo.resets)
	assert.Equal(t, "INV-0002", res.Formatted)
}

func TestSequencer_InitializeRejectsInvalid(t *testing.T) {
	seq := NewSequencer(&memCounterRepo{})

	c := NewCounter(id.Nil(), "Sales")
	err := seq.Initialize(context.Background(), c)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestSequencer_InitializeConflict(t *testing.T) {
	repo := &memCounterRepo{}
	seq := NewSequencer(repo)
	companyID := id.New()

	require.NoError(t, seq.Initialize(context.Background(), NewCounter(companyID, "Sales")))

	err := seq.Initialize(context.Background(), NewCounter(companyID, "Sales"))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
}

func TestSequencer_ReserveUnknownCounter(t *testing.T) {
	seq := NewSequencer(&memCounterRepo{})

	_, err := seq.Reserve(context.Background(), id.New(), "Sales", time.Now().UTC())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
