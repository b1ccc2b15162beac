package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultUniverse(t *testing.T) {
	u := Default()

	sectors := u.Sectors()
	require.Len(t, sectors, 10)
	assert.Equal(t, "materials", sectors[0].Key)
	assert.Equal(t, "Materials", sectors[0].Name)
	assert.Equal(t, "Information Technology", sectors[7].Name)

	all := u.Symbols()
	assert.Len(t, all, 60)
	assert.Equal(t, "AEM.TO", all[0])
	assert.Equal(t, "H.TO", all[len(all)-1])
}

func TestSectorLookup(t *testing.T) {
	u := Default()

	for _, key := range []string{"real-estate", "Real Estate", "REAL_ESTATE", " real estate "} {
		s, ok := u.Sector(key)
		require.True(t, ok, key)
		assert.Equal(t, []string{"CAR.UN.TO", "FSV.TO"}, s.Symbols)
	}

	_, ok := u.Sector("crypto")
	assert.False(t, ok)
}

func TestSectorsReturnsCopies(t *testing.T) {
	u := Default()
	sectors := u.Sectors()
	sectors[0].Symbols[0] = "MUTATED"

	s, _ := u.Sector("materials")
	assert.Equal(t, "AEM.TO", s.Symbols[0])
}

func TestExpand(t *testing.T) {
	u := Default()

	symbols, err := u.Expand([]string{"utilities", "real-estate"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AQN.TO", "BIP.UN.TO", "EMA.TO", "FTS.TO", "H.TO", "CAR.UN.TO", "FSV.TO"}, symbols)

	_, err = u.Expand([]string{"utilities", "crypto"})
	assert.Error(t, err)
}

func TestUnion(t *testing.T) {
	got := Union(
		[]string{"ry.to", "TD.TO", " "},
		[]string{"TD.TO", "BCE.TO"},
		nil,
		[]string{"RY.TO ", "ENB.TO"},
	)
	assert.Equal(t, []string{"RY.TO", "TD.TO", "BCE.TO", "ENB.TO"}, got)
	assert.Nil(t, Union())
}

func TestNewValidation(t *testing.T) {
	_, err := New([]Sector{{Key: "a", Symbols: []string{"X"}}, {Key: "A", Symbols: []string{"Y"}}})
	assert.Error(t, err)

	_, err = New([]Sector{{Key: "empty", Symbols: []string{" "}}})
	assert.Error(t, err)

	_, err = New([]Sector{{Key: "", Symbols: []string{"X"}}})
	assert.Error(t, err)

	u, err := New([]Sector{{Key: "banks", Name: "Big Banks", Symbols: []string{"RY.TO"}}})
	require.NoError(t, err)
	s, ok := u.Sector("banks")
	require.True(t, ok)
	assert.Equal(t, "Big Banks", s.Name)
}
