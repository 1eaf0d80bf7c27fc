package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveDirection(t *testing.T) {
	cases := []struct {
		name     string
		kind     MovementKind
		hasDest  bool
		outbound bool
		want     Direction
		wantErr  bool
	}{
		{name: "receive", kind: KindReceive, want: DirectionIn},
		{name: "return", kind: KindReturn, want: DirectionIn},
		{name: "issue", kind: KindIssue, want: DirectionOut},
		{name: "transfer", kind: KindTransfer, hasDest: true, want: DirectionInternal},
		{name: "transfer without destination", kind: KindTransfer, wantErr: true},
		{name: "adjustment inbound", kind: KindAdjustment, want: DirectionIn},
		{name: "adjustment outbound", kind: KindAdjustment, outbound: true, want: DirectionOut},
		{name: "manufacturing consumption", kind: KindManufacturing, want: DirectionOut},
		{name: "manufacturing with destination", kind: KindManufacturing, hasDest: true, want: DirectionInternal},
		{name: "unknown kind", kind: "teleport", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DeriveDirection(tc.kind, tc.hasDest, tc.outbound)
			if tc.wantErr {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestSignedEffect(t *testing.T) {
	in := Movement{Direction: DirectionIn, SourceWarehouseID: 10, Quantity: qty("5")}
	require.True(t, in.SignedEffect(10).Equal(qty("5")))
	require.True(t, in.SignedEffect(0).Equal(qty("5")))
	require.True(t, in.SignedEffect(20).IsZero())

	out := Movement{Direction: DirectionOut, SourceWarehouseID: 10, Quantity: qty("5")}
	require.True(t, out.SignedEffect(10).Equal(qty("-5")))
	require.True(t, out.SignedEffect(0).Equal(qty("-5")))
	require.True(t, out.SignedEffect(20).IsZero())

	internal := Movement{Direction: DirectionInternal, SourceWarehouseID: 10, DestWarehouseID: 20, Quantity: qty("5")}
	require.True(t, internal.SignedEffect(10).Equal(qty("-5")))
	require.True(t, internal.SignedEffect(20).Equal(qty("5")))
	require.True(t, internal.SignedEffect(0).IsZero())
	require.True(t, internal.SignedEffect(30).IsZero())
}

func TestStateTerminal(t *testing.T) {
	require.False(t, StateDraft.Terminal())
	require.False(t, StateConfirmed.Terminal())
	require.True(t, StateDone.Terminal())
	require.True(t, StateCancelled.Terminal())
}

func TestMovementKindValid(t *testing.T) {
	for _, kind := range []MovementKind{KindReceive, KindIssue, KindTransfer, KindAdjustment, KindReturn, KindManufacturing} {
		require.True(t, kind.Valid())
	}
	require.False(t, MovementKind("teleport").Valid())
	require.False(t, MovementKind("").Valid())
}
