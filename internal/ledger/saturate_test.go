package ledger

import "testing"

func TestClampAdd(t *testing.T) {
	cases := []struct {
		a, b, want uint32
	}{
		{0, 0, 0},
		{0, 42, 42},
		{100, 50, 150},
		{MaxCoins - 1, 1, MaxCoins},
		{MaxCoins, 1, MaxCoins},
		{MaxCoins, MaxCoins, MaxCoins},
		{1 << 31, 1 << 31, MaxCoins},
	}
	for _, tc := range cases {
		if got := clampAdd(tc.a, tc.b); got != tc.want {
			t.Errorf("clampAdd(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestClampSub(t *testing.T) {
	cases := []struct {
		a, b, want uint32
	}{
		{0, 1, 0},
		{1, 1, 0},
		{101, 1, 100},
		{MaxCoins, 1, MaxCoins - 1},
		{5, MaxCoins, 0},
	}
	for _, tc := range cases {
		if got := clampSub(tc.a, tc.b); got != tc.want {
			t.Errorf("clampSub(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
