package collision

import (
	"testing"

	"github.com/canlab/blfview/errs"
	"github.com/canlab/blfview/internal/hash"
	"github.com/stretchr/testify/require"
)

func TestTracker_TrackDistinctNames(t *testing.T) {
	tracker := NewTracker()

	require.NoError(t, tracker.Track("CAN1.Speed", hash.ID("CAN1.Speed")))
	require.NoError(t, tracker.Track("CAN1.RPM", hash.ID("CAN1.RPM")))
	require.Equal(t, 2, tracker.Len())
}

func TestTracker_SameNameTwiceIsNoop(t *testing.T) {
	tracker := NewTracker()
	id := hash.ID("CAN1.Speed")

	require.NoError(t, tracker.Track("CAN1.Speed", id))
	require.NoError(t, tracker.Track("CAN1.Speed", id))
	require.Equal(t, 1, tracker.Len())
}

func TestTracker_CollisionIsError(t *testing.T) {
	tracker := NewTracker()

	require.NoError(t, tracker.Track("CAN1.Speed", 42))

	err := tracker.Track("CAN1.RPM", 42)
	require.Error(t, err)
	require.ErrorIs(t, err, errs.ErrHashCollision)
	require.Contains(t, err.Error(), "CAN1.Speed")
	require.Contains(t, err.Error(), "CAN1.RPM")
}
