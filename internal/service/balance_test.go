package service_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"wallet-manager/internal/mocks"
	"wallet-manager/internal/service"
)

func tokens(amount int64) *big.Int {
	exp := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return new(big.Int).Mul(big.NewInt(amount), exp)
}

func TestSyncWritesHumanReadableBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	directory := mocks.NewMockDirectory(ctrl)
	ledger := mocks.NewMockLedger(ctrl)

	ledger.EXPECT().
		TokenBalance(gomock.Any(), "0xabc").
		Return(tokens(25), nil)
	directory.EXPECT().
		SetUserField(gomock.Any(), "user-1", "TokenBalance", "25").
		Return(nil)

	s := service.NewBalanceSyncer(directory, ledger, 18)
	balance, err := s.Sync(context.Background(), "user-1", "0xabc")

	require.NoError(t, err)
	assert.Equal(t, 25.0, balance)
}

// Syncing twice against an unchanged ledger writes the same value twice; the
// cache converges rather than drifting.
func TestSyncIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	directory := mocks.NewMockDirectory(ctrl)
	ledger := mocks.NewMockLedger(ctrl)

	ledger.EXPECT().
		TokenBalance(gomock.Any(), "0xabc").
		Return(tokens(7), nil).
		Times(2)
	directory.EXPECT().
		SetUserField(gomock.Any(), "user-1", "TokenBalance", "7").
		Return(nil).
		Times(2)

	s := service.NewBalanceSyncer(directory, ledger, 18)
	first, err := s.Sync(context.Background(), "user-1", "0xabc")
	require.NoError(t, err)
	second, err := s.Sync(context.Background(), "user-1", "0xabc")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSyncLedgerFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	directory := mocks.NewMockDirectory(ctrl)
	ledger := mocks.NewMockLedger(ctrl)

	ledger.EXPECT().
		TokenBalance(gomock.Any(), "0xabc").
		Return(nil, errors.New("rpc timeout"))

	s := service.NewBalanceSyncer(directory, ledger, 18)
	_, err := s.Sync(context.Background(), "user-1", "0xabc")

	assert.ErrorIs(t, err, service.ErrUpstreamUnavailable)
}

func TestCached(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		found     bool
		want      float64
		wantFound bool
		wantErr   error
	}{
		{name: "present", value: "12.5", found: true, want: 12.5, wantFound: true},
		{name: "never synced", found: false},
		{name: "corrupt", value: "not-a-number", found: true, wantErr: service.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			directory := mocks.NewMockDirectory(ctrl)
			directory.EXPECT().
				GetUserField(gomock.Any(), "user-1", "TokenBalance").
				Return(tt.value, tt.found, nil)

			s := service.NewBalanceSyncer(directory, mocks.NewMockLedger(ctrl), 18)
			balance, found, err := s.Cached(context.Background(), "user-1")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.want, balance)
		})
	}
}
