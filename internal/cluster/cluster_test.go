package cluster

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"invoice", "2024", "march", "pdf"}, Tokenize("Invoice_2024-March.pdf"))
	assert.Equal(t, []string{"img", "0042"}, Tokenize("IMG0042"))
	assert.Empty(t, Tokenize("__--"))
}

func TestNgramEmbedder_NormalizedAndStable(t *testing.T) {
	e := NgramEmbedder{Dim: 64}
	a, err := e.Embed(context.Background(), "holiday_beach.jpg")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "holiday_beach.jpg")
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)

	var norm float64
	for _, v := range a {
		norm += v * v
	}
	assert.InDelta(t, 1.0, norm, 1e-9)

	similar, _ := e.Embed(context.Background(), "holiday_city.jpg")
	different, _ := e.Embed(context.Background(), "tax_return.xlsx")
	assert.Less(t, dist2(a, similar), dist2(a, different))
}

func TestKMeans_SeparatesGroups(t *testing.T) {
	vecs := [][]float64{
		{0, 0}, {0.1, 0}, {0, 0.1},
		{10, 10}, {10.1, 10}, {10, 10.1},
	}
	labels := KMeans(vecs, 2, 10)

	assert.Equal(t, labels[0], labels[1])
	assert.Equal(t, labels[0], labels[2])
	assert.Equal(t, labels[3], labels[4])
	assert.Equal(t, labels[3], labels[5])
	assert.NotEqual(t, labels[0], labels[3])

	assert.Equal(t, labels, KMeans(vecs, 2, 10))
}

func TestKMeans_Edges(t *testing.T) {
	assert.Empty(t, KMeans(nil, 3, 10))
	assert.Equal(t, []int{0}, KMeans([][]float64{{1, 2}}, 3, 10))
}

func TestClusterCount(t *testing.T) {
	assert.Equal(t, 1, ClusterCount(1))
	assert.Equal(t, 2, ClusterCount(2))
	assert.Equal(t, 2, ClusterCount(4))
	assert.Equal(t, 3, ClusterCount(5))
	assert.Equal(t, 10, ClusterCount(100))
}

func TestTokenNamer(t *testing.T) {
	name, err := TokenNamer{}.Name(context.Background(), []string{
		"invoice_january.pdf", "invoice_february.pdf", "IMG_invoice_03.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "Invoice", name)

	name, err = TokenNamer{}.Name(context.Background(), []string{"IMG_0001.jpg", "12.png"})
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestSafeFolder(t *testing.T) {
	assert.Equal(t, "Tax Docs", SafeFolder("  Tax Docs!! "))
	assert.Equal(t, "TaxDocs", SafeFolder("Tax/Docs"))
	assert.Equal(t, "Cluster", SafeFolder("../.."))
	assert.Equal(t, "Fotos-2024", SafeFolder("Fotos-2024"))
	assert.Equal(t, "Café", SafeFolder("Café"))
}

func TestUnique(t *testing.T) {
	used := map[string]bool{}
	assert.Equal(t, "Photos", unique("Photos", used))
	assert.Equal(t, "Photos2", unique("Photos", used))
	assert.Equal(t, "Photos3", unique("Photos", used))
}

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(root, n), []byte(n), 0644))
	}
}

func TestPlanner_Unavailable(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.txt")

	_, err := New(nil, TokenNamer{}, Options{}).Plan(context.Background(), root)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = New(NgramEmbedder{}, nil, Options{}).Plan(context.Background(), root)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPlanner_GroupsEveryFile(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"invoice_january.pdf", "invoice_february.pdf", "invoice_march.pdf",
		"holiday_beach.jpg", "holiday_mountain.jpg", "holiday_city.jpg",
		"notes.part",
	)
	require.NoError(t, os.Mkdir(filepath.Join(root, "existing"), 0755))

	p := New(NgramEmbedder{Dim: 128}, TokenNamer{}, Options{Ignore: []string{"*.part"}})
	plan, err := p.Plan(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, plan.Files, 6)
	assert.LessOrEqual(t, len(plan.ByFolder), ClusterCount(6))
	for _, fp := range plan.Files {
		assert.NotEmpty(t, fp.Folder)
		assert.Equal(t, fp.Folder, SafeFolder(fp.Folder))
	}

	again, err := p.Plan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, plan.Files, again.Files)
}

type failingNamer struct{}

func (failingNamer) Name(context.Context, []string) (string, error) {
	return "", errors.New("model crashed")
}

func TestPlanner_NamerFailureFallsBack(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.txt", "b.txt", "c.jpg", "d.jpg")

	plan, err := New(NgramEmbedder{}, failingNamer{}, Options{}).Plan(context.Background(), root)
	require.NoError(t, err)

	for _, folder := range plan.Folders() {
		assert.Regexp(t, `^Group\d+$`, folder)
	}
}

func TestPlanner_EmptyRoot(t *testing.T) {
	plan, err := New(NgramEmbedder{}, TokenNamer{}, Options{}).Plan(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.True(t, plan.Empty())
}
