package files_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/gatherbot-go/internal/adapters/files"
	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

func TestLoadMaterials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "materials.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
buffer: 2
optimize: true
materials:
  - item_id: 5
    item_name: Copper Ore
    remaining: 12
  - item_id: 6
    item_name: Maple Log
    remaining: 0
`), 0644))

	file, err := files.LoadMaterials(path)
	require.NoError(t, err)
	assert.Equal(t, 2, file.Buffer)
	assert.True(t, file.Optimize)
	require.Len(t, file.Materials, 2)
	assert.Equal(t, domain.Material{ItemID: 5, ItemName: "Copper Ore", Remaining: 12}, file.Materials[0])
}

func TestParseMaterials_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty list":       "materials: []\n",
		"missing item id":  "materials:\n  - item_name: Copper Ore\n    remaining: 1\n",
		"negative buffer":  "buffer: -1\nmaterials:\n  - item_id: 5\n    item_name: Copper Ore\n",
		"not yaml mapping": "- 1\n- 2\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := files.ParseMaterials([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseCatalog(t *testing.T) {
	items, err := files.ParseCatalog([]byte(`
items:
  - item_id: 5
    name: Copper Ore
    class: MINER
    node_tier: 1
    zone: Quarry
  - item_id: 7
    name: Dawn Lily
    class: BOTANIST
    node_tier: 50
    zone: Meadow
    timed:
      start_hour: 4
      duration_hours: 2
`))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, domain.GatherClassMiner, items[0].Class)
	assert.Nil(t, items[0].Timed)
	require.NotNil(t, items[1].Timed)
	assert.Equal(t, 4, items[1].Timed.StartHour)
	assert.Equal(t, 2*time.Hour, items[1].Timed.Duration)
}

func TestParseCatalog_RejectsDuplicatesAndUnknownClass(t *testing.T) {
	_, err := files.ParseCatalog([]byte(`
items:
  - {item_id: 5, name: Copper Ore, class: MINER}
  - {item_id: 5, name: Tin Ore, class: MINER}
`))
	assert.ErrorContains(t, err, "duplicate item_id 5")

	_, err = files.ParseCatalog([]byte(`
items:
  - {item_id: 8, name: Salt, class: ALCHEMIST}
`))
	assert.Error(t, err)
}
