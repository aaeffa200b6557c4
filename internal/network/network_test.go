package network

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `# patch plant insect weight
0 Lotus Bombus 0.8
0 Lotus Apis 0.2
1 Thymus Bombus 1.5

2 Lotus Apis 0.4
`

func TestParse(t *testing.T) {
	n, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, []string{"Lotus", "Thymus"}, n.Plants)
	assert.Equal(t, []string{"Bombus", "Apis"}, n.Insects)
	assert.Equal(t, 3, n.Patches())
	assert.Equal(t, 0, n.Skipped)
	assert.Len(t, n.Records, 4)

	lotus, thymus := n.PlantIndex["Lotus"], n.PlantIndex["Thymus"]
	bombus, apis := n.InsectIndex["Bombus"], n.InsectIndex["Apis"]
	assert.Equal(t, 0.8, n.Gamma.At(0, lotus, bombus))
	assert.Equal(t, 0.2, n.Gamma.At(0, lotus, apis))
	assert.Equal(t, 1.5, n.Gamma.At(1, thymus, bombus))
	assert.Equal(t, 0.4, n.Gamma.At(2, lotus, apis))
	assert.Equal(t, 0.0, n.Gamma.At(1, lotus, bombus))
}

func TestParseSkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		"0 A X 1",
		"0 A X",       // too few fields
		"x A X 1",     // bad patch
		"-1 A X 1",    // negative patch
		"0 A X heavy", // bad weight
		"0 B Y -0.5",  // negative weight
		"0 B Y NaN",
		"0 B Y +Inf",
		"1 A Y 2 extra", // extra fields are ignored
	}, "\n")

	n, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 7, n.Skipped)
	assert.Equal(t, []string{"A"}, n.Plants, "skipped lines must not register species")
	assert.Equal(t, []string{"X", "Y"}, n.Insects)
	assert.Equal(t, 2, n.Patches())
	assert.Equal(t, 2.0, n.Gamma.At(1, 0, 1))
}

func TestParseLaterDuplicateWins(t *testing.T) {
	n, err := Parse(strings.NewReader("0 A X 1\n0 A X 3\n"))
	require.NoError(t, err)
	assert.Equal(t, 3.0, n.Gamma.At(0, 0, 0))
}

func TestParseEmpty(t *testing.T) {
	n, err := Parse(strings.NewReader("# nothing here\n\n"))
	require.NoError(t, err)
	assert.Empty(t, n.Plants)
	assert.Empty(t, n.Insects)
	assert.Equal(t, 0, n.Patches())
}

func TestParseRecord(t *testing.T) {
	rec, ok := ParseRecord("  3\tSalvia   Xylocopa 0.25 ")
	require.True(t, ok)
	assert.Equal(t, Record{Patch: 3, Plant: "Salvia", Insect: "Xylocopa", Weight: 0.25}, rec)

	_, ok = ParseRecord("3 Salvia")
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interactions.txt")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))

	n, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, n.Plants, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
