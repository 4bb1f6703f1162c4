package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/venuealloc/internal/contract"
	"github.com/alexanderramin/venuealloc/internal/db"
	"github.com/alexanderramin/venuealloc/internal/domain"
	"github.com/alexanderramin/venuealloc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingLedger answers from canned values and records what the engine
// asks of it. Methods the engine must not use are left to the nil embed.
type recordingLedger struct {
	AllocationLedger

	live       *domain.VenueAssign
	reserveErr error
	calls      []string
	bound      []db.DBTX
}

func (l *recordingLedger) WithTx(tx db.DBTX) AllocationLedger {
	l.bound = append(l.bound, tx)
	return l
}

func (l *recordingLedger) Reserve(_ context.Context, userID, _, nodeID string, _ *int) (string, error) {
	l.calls = append(l.calls, "reserve "+userID+" "+nodeID)
	if l.reserveErr != nil {
		return "", l.reserveErr
	}
	return "a-new", nil
}

func (l *recordingLedger) Release(_ context.Context, assignmentID string, reason domain.ReleaseReason) error {
	l.calls = append(l.calls, "release "+assignmentID+" "+string(reason))
	return nil
}

func (l *recordingLedger) FindByUser(_ context.Context, userID, _ string) (*domain.VenueAssign, bool, error) {
	l.calls = append(l.calls, "find "+userID)
	return l.live, l.live != nil, nil
}

func newRecordingEngine(t *testing.T, ledger *recordingLedger) AllocationEngine {
	t.Helper()
	return NewAllocationEngine(testutil.NewTestUoW(testutil.NewTestDB(t)), nil, nil, ledger)
}

func TestEngine_Assign_ReservesThroughBoundLedger(t *testing.T) {
	ledger := &recordingLedger{}
	engine := newRecordingEngine(t, ledger)

	res, err := engine.Assign(context.Background(), contract.AssignRequest{UserID: "u1", EventID: "e1", NodeID: "n1"})
	require.NoError(t, err)
	assert.Equal(t, "a-new", res.AssignmentID)
	assert.Equal(t, []string{"reserve u1 n1"}, ledger.calls)
	require.Len(t, ledger.bound, 1)
	assert.NotNil(t, ledger.bound[0])
}

func TestEngine_Reassign_ReleasesThenReserves(t *testing.T) {
	ledger := &recordingLedger{live: &domain.VenueAssign{ID: "a-old", UserID: "u1"}}
	engine := newRecordingEngine(t, ledger)

	res, err := engine.Reassign(context.Background(), contract.AssignRequest{UserID: "u1", EventID: "e1", NodeID: "n2"})
	require.NoError(t, err)
	assert.Equal(t, "a-new", res.AssignmentID)
	assert.Equal(t, []string{"find u1", "release a-old reassigned", "reserve u1 n2"}, ledger.calls)
	assert.Len(t, ledger.bound, 1, "release and reserve share one transaction")
}

func TestEngine_Cancel_PassesReason(t *testing.T) {
	tests := []struct {
		name   string
		reason domain.ReleaseReason
		want   string
	}{
		{"default", "", "release a-old cancelled"},
		{"refunded", domain.ReleaseRefunded, "release a-old refunded"},
		{"admin", domain.ReleaseAdmin, "release a-old admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &recordingLedger{live: &domain.VenueAssign{ID: "a-old", UserID: "u1"}}
			engine := newRecordingEngine(t, ledger)

			require.NoError(t, engine.Cancel(context.Background(), "u1", "e1", tt.reason))
			assert.Equal(t, []string{"find u1", tt.want}, ledger.calls)
		})
	}
}

func TestEngine_Cancel_RejectsReason(t *testing.T) {
	ledger := &recordingLedger{live: &domain.VenueAssign{ID: "a-old", UserID: "u1"}}
	engine := newRecordingEngine(t, ledger)

	for _, reason := range []domain.ReleaseReason{domain.ReleaseReassigned, "lost"} {
		err := engine.Cancel(context.Background(), "u1", "e1", reason)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, reason)
	}
	assert.Empty(t, ledger.calls)
}

func TestEngine_Cancel_NothingHeld(t *testing.T) {
	ledger := &recordingLedger{}
	engine := newRecordingEngine(t, ledger)

	err := engine.Cancel(context.Background(), "u1", "e1", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, []string{"find u1"}, ledger.calls)
}

func TestEngine_LedgerErrorsClassified(t *testing.T) {
	ledger := &recordingLedger{reserveErr: domain.ErrSlotTaken}
	engine := newRecordingEngine(t, ledger)
	req := contract.AssignRequest{UserID: "u1", EventID: "e1", NodeID: "n1"}

	_, err := engine.Assign(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrSlotTaken)
	assert.NotErrorIs(t, err, domain.ErrStorageUnavailable)

	ledger.reserveErr = errors.New("disk I/O error")
	_, err = engine.Assign(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.Contains(t, err.Error(), "disk I/O error")
}
