package projection

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/threadlens/pkg/threadlens/internalerr"
	"github.com/cognicore/threadlens/pkg/threadlens/sparse"
)

var termLabels = []string{"climate", "change", "game", "sports", "results"}

// 4 documents x 5 terms: two climate posts, two sports posts.
func fixture(t *testing.T) *sparse.CSR {
	t.Helper()
	b := sparse.NewBuilder(5)
	require.NoError(t, b.AddRow(map[int]float64{0: 1, 1: 1}))
	require.NoError(t, b.AddRow(map[int]float64{0: 1, 1: 0.9}))
	require.NoError(t, b.AddRow(map[int]float64{2: 1, 3: 1}))
	require.NoError(t, b.AddRow(map[int]float64{3: 1, 4: 1}))
	return b.Build()
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.TSNE.MaxIter = 300
	cfg.TSNE.ExaggerationIter = 100
	return cfg
}

func TestCosine(t *testing.T) {
	sim := Cosine(fixture(t))
	n := sim.SymmetricDim()
	require.Equal(t, 4, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, 1.0, sim.At(i, i))
	}
	assert.InDelta(t, 0.5, sim.At(2, 3), 1e-12)
	assert.Equal(t, 0.0, sim.At(0, 2))
	assert.Greater(t, sim.At(0, 1), 0.99)
}

func TestCosineZeroRow(t *testing.T) {
	b := sparse.NewBuilder(2)
	require.NoError(t, b.AddRow(map[int]float64{0: 1}))
	require.NoError(t, b.AddRow(map[int]float64{}))
	sim := Cosine(b.Build())
	assert.Equal(t, 1.0, sim.At(1, 1))
	assert.Equal(t, 0.0, sim.At(0, 1))
}

func TestSquaredDistancesMatchDense(t *testing.T) {
	m := fixture(t)
	dense := m.Dense()
	d := squaredDistances(m)
	n, _ := m.Dims()
	require.Len(t, d, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, 0.0, d[i][i])
		for j := 0; j < n; j++ {
			var diff mat.VecDense
			diff.SubVec(dense.RowView(i), dense.RowView(j))
			want := mat.Dot(&diff, &diff)
			assert.InDelta(t, want, d[i][j], 1e-12, "pair %d,%d", i, j)
			assert.GreaterOrEqual(t, d[i][j], 0.0)
		}
	}
}

func TestSquaredDistancesIdenticalRows(t *testing.T) {
	b := sparse.NewBuilder(3)
	require.NoError(t, b.AddRow(map[int]float64{0: 0.1, 2: 0.3}))
	require.NoError(t, b.AddRow(map[int]float64{0: 0.1, 2: 0.3}))
	d := squaredDistances(b.Build())
	assert.Equal(t, 0.0, d[0][1])
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod(" TSNE ")
	require.NoError(t, err)
	assert.Equal(t, MethodTSNE, m)

	m, err = ParseMethod("mds")
	require.NoError(t, err)
	assert.Equal(t, MethodMDS, m)

	_, err = ParseMethod("pca")
	assert.ErrorIs(t, err, internalerr.ErrInvalidMethod)
}

func TestProjectInvalidMethod(t *testing.T) {
	p := New(testConfig(), nil)
	_, err := p.Project(fixture(t), termLabels, Options{Method: "umap", Kind: Terms})
	assert.ErrorIs(t, err, internalerr.ErrInvalidMethod)
}

func TestProjectSingleItem(t *testing.T) {
	b := sparse.NewBuilder(3)
	require.NoError(t, b.AddRow(map[int]float64{0: 1, 2: 1}))
	m := b.Build()

	p := New(testConfig(), nil)
	for _, method := range []Method{MethodTSNE, MethodMDS} {
		_, err := p.Project(m, []string{"only post"}, Options{Method: method, Kind: Documents})
		assert.ErrorIs(t, err, internalerr.ErrInsufficientItems, method)
	}
}

func TestProjectLabelMismatch(t *testing.T) {
	p := New(testConfig(), nil)
	_, err := p.Project(fixture(t), termLabels[:2], Options{Method: MethodMDS, Kind: Terms})
	assert.ErrorIs(t, err, internalerr.ErrPrecondition)
}

func TestProjectDeterministic(t *testing.T) {
	m := fixture(t)
	for _, method := range []Method{MethodTSNE, MethodMDS} {
		t.Run(string(method), func(t *testing.T) {
			p := New(testConfig(), nil)
			a, err := p.Project(m, termLabels, Options{Method: method, Kind: Terms})
			require.NoError(t, err)
			b, err := p.Project(m, termLabels, Options{Method: method, Kind: Terms})
			require.NoError(t, err)

			require.Len(t, a.Points, 5)
			assert.Equal(t, a.Points, b.Points)
			for _, pt := range a.Points {
				assert.False(t, isNaN(pt.X) || isNaN(pt.Y), "coordinates must be finite")
			}
		})
	}
}

func TestProjectSeedChangesLayout(t *testing.T) {
	m := fixture(t)
	cfg := testConfig()
	a, err := New(cfg, nil).Project(m, termLabels, Options{Method: MethodTSNE, Kind: Terms})
	require.NoError(t, err)

	cfg.Seed = 7
	b, err := New(cfg, nil).Project(m, termLabels, Options{Method: MethodTSNE, Kind: Terms})
	require.NoError(t, err)
	assert.NotEqual(t, a.Points, b.Points)
}

func TestTermEdges(t *testing.T) {
	p := New(testConfig(), nil)
	got, err := p.Project(fixture(t), termLabels, Options{Method: MethodMDS, Kind: Terms})
	require.NoError(t, err)

	require.NotNil(t, got.Threshold)
	assert.Equal(t, 0.3, *got.Threshold)

	var pairs [][2]int
	for _, e := range got.Edges {
		assert.Greater(t, e.Similarity, 0.3)
		pairs = append(pairs, [2]int{e.A, e.B})
	}
	assert.Equal(t, [][2]int{{0, 1}, {2, 3}, {3, 4}}, pairs)

	for i, row := range got.Similarity {
		assert.Equal(t, 1.0, row[i])
	}
}

func TestEdgesStrictlyAboveThreshold(t *testing.T) {
	p := New(testConfig(), nil)
	half := 0.5
	got, err := p.Project(fixture(t), []string{"a", "b", "c", "d"},
		Options{Method: MethodMDS, Kind: Documents, Threshold: &half})
	require.NoError(t, err)

	// docs 2 and 3 sit exactly at 0.5 and must not be connected
	require.Len(t, got.Edges, 1)
	assert.Equal(t, 0, got.Edges[0].A)
	assert.Equal(t, 1, got.Edges[0].B)
}

func TestThresholdOutOfRange(t *testing.T) {
	p := New(testConfig(), nil)
	bad := 1.5
	_, err := p.Project(fixture(t), termLabels, Options{Method: MethodMDS, Kind: Terms, Threshold: &bad})
	assert.ErrorIs(t, err, internalerr.ErrPrecondition)
}

func TestDocumentsWrapLabelsAndSkipEdges(t *testing.T) {
	p := New(testConfig(), nil)
	labels := []string{
		"Climate change policy debate heats up",
		"New climate report released",
		"Sports results and game news",
		"Game results",
	}
	got, err := p.Project(fixture(t), labels, Options{Method: MethodMDS, Kind: Documents})
	require.NoError(t, err)

	assert.Nil(t, got.Threshold)
	assert.Empty(t, got.Edges)
	assert.Contains(t, got.Points[0].Label, "\n")
	for _, line := range strings.Split(got.Points[0].Label, "\n") {
		assert.LessOrEqual(t, len([]rune(line)), 20)
	}
	assert.Equal(t, "Game results", got.Points[3].Label)
}

func TestEmphasisTop(t *testing.T) {
	p := New(testConfig(), nil)
	got, err := p.Project(fixture(t), termLabels,
		Options{Method: MethodMDS, Kind: Terms, Emphasis: Emphasis{Top: 2}})
	require.NoError(t, err)

	// climate and sports share the highest mean; ties keep index order
	assert.Equal(t, []int{0, 3}, got.Emphasis)
	require.Len(t, got.Points, 5)
	assert.Len(t, got.Similarity, 2)
	assert.Empty(t, got.Edges)

	for _, pt := range got.Points {
		switch pt.Index {
		case 0:
			assert.True(t, pt.Emphasized)
			assert.Equal(t, Palette[0], pt.Color)
		case 3:
			assert.True(t, pt.Emphasized)
			assert.Equal(t, Palette[1], pt.Color)
		default:
			assert.False(t, pt.Emphasized)
			assert.Equal(t, NeutralColor, pt.Color)
		}
	}
}

func TestEmphasisRestrict(t *testing.T) {
	p := New(testConfig(), nil)
	got, err := p.Project(fixture(t), termLabels, Options{
		Method:   MethodMDS,
		Kind:     Terms,
		Emphasis: Emphasis{Indices: []int{2, 3, 4}},
		Restrict: true,
	})
	require.NoError(t, err)

	require.Len(t, got.Points, 3)
	assert.Equal(t, []int{2, 3, 4}, []int{got.Points[0].Index, got.Points[1].Index, got.Points[2].Index})
	assert.Len(t, got.Edges, 2)
}

func TestEmphasisIndicesValidated(t *testing.T) {
	p := New(testConfig(), nil)
	for _, idx := range [][]int{{5}, {-1}, {1, 1}} {
		_, err := p.Project(fixture(t), termLabels,
			Options{Method: MethodMDS, Kind: Terms, Emphasis: Emphasis{Indices: idx}})
		assert.ErrorIs(t, err, internalerr.ErrPrecondition, idx)
	}
}

func TestColorMapSharesColourPerLabel(t *testing.T) {
	colors := colorMap([]int{0, 1, 2}, []string{"x", "y", "x"})
	assert.Equal(t, Palette[0], colors[0])
	assert.Equal(t, Palette[1], colors[1])
	assert.Equal(t, Palette[0], colors[2])
}

func TestMDSPreservesGroups(t *testing.T) {
	p := New(testConfig(), nil)
	got, err := p.Project(fixture(t), termLabels, Options{Method: MethodMDS, Kind: Terms})
	require.NoError(t, err)

	pos := mat.NewDense(5, 2, nil)
	for _, pt := range got.Points {
		pos.Set(pt.Index, 0, pt.X)
		pos.Set(pt.Index, 1, pt.Y)
	}
	// climate/change are near-duplicates; climate/results are unrelated
	assert.Less(t, pointDistance(pos, 0, 1), pointDistance(pos, 0, 4))
}

func isNaN(f float64) bool { return f != f }
