package domain

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_Valid(t *testing.T) {
	for _, s := range AllSources {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, Source("bridge").Valid())
	assert.False(t, Source("").Valid())
}

func TestCursor_After(t *testing.T) {
	tests := []struct {
		name     string
		a        Cursor
		b        Cursor
		expected bool
	}{
		{
			name:     "later block",
			a:        Cursor{BlockNumber: 11, LogIndex: 0},
			b:        Cursor{BlockNumber: 10, LogIndex: 5},
			expected: true,
		},
		{
			name:     "same block later log",
			a:        Cursor{BlockNumber: 10, LogIndex: 6},
			b:        Cursor{BlockNumber: 10, LogIndex: 5},
			expected: true,
		},
		{
			name:     "same position",
			a:        Cursor{BlockNumber: 10, LogIndex: 5},
			b:        Cursor{BlockNumber: 10, LogIndex: 5},
			expected: false,
		},
		{
			name:     "earlier block",
			a:        Cursor{BlockNumber: 9, LogIndex: 99},
			b:        Cursor{BlockNumber: 10, LogIndex: 0},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.After(tt.b))
		})
	}
}

func TestParseCursor(t *testing.T) {
	c, err := ParseCursor(SourceStaking, Cursor{BlockNumber: 123456, LogIndex: 7}.String())
	require.NoError(t, err)
	assert.Equal(t, Cursor{Source: SourceStaking, BlockNumber: 123456, LogIndex: 7}, c)

	for _, value := range []string{"", "12", "a:1", "1:b", "1:-1"} {
		_, err := ParseCursor(SourceStaking, value)
		assert.Error(t, err, value)
	}
}

func TestNormalizeAddress(t *testing.T) {
	addr, err := NormalizeAddress("0x52908400098527886e0f7030069857d2e4169ee7")
	require.NoError(t, err)
	assert.Equal(t, "0x52908400098527886E0F7030069857D2E4169EE7", addr)

	_, err = NormalizeAddress("not-an-address")
	assert.True(t, errors.Is(err, ErrInvalidAddress))
}

func TestEvent_ArgsJSON(t *testing.T) {
	ev := &Event{
		Args: map[string]interface{}{
			"from":    common.HexToAddress(ETHEREUM_ZERO_ADDRESS),
			"tokenId": big.NewInt(7),
		},
	}

	raw, err := ev.ArgsJSON()
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, ETHEREUM_ZERO_ADDRESS, decoded["from"])
	assert.Equal(t, "7", decoded["tokenId"])
}
