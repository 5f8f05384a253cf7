package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david/maintenance-analyzer/internal/models"
)

func materials(names ...string) []models.ManagedMaterialName {
	out := make([]models.ManagedMaterialName, len(names))
	for i, n := range names {
		out[i] = models.ManagedMaterialName{Name: n}
	}
	return out
}

func TestSplitSegments(t *testing.T) {
	tests := []struct {
		name      string
		narrative string
		want      []string
	}{
		{"single separator", "更換龍頭及閥", []string{"更換龍頭", "閥"}},
		{"mixed separators", "螺絲、螺帽&墊片與軟管", []string{"螺絲", "螺帽", "墊片", "軟管"}},
		{"two-character separator", "燈管以及安定器", []string{"燈管", "安定器"}},
		{"whitespace around separator", "燈管 、 燈座", []string{"燈管", "燈座"}},
		{"blocked before each", "螺絲各與螺帽", []string{"螺絲各與螺帽"}},
		{"blocked after each", "螺絲與各式墊片", []string{"螺絲與各式墊片"}},
		{"each elsewhere does not block", "螺絲與螺帽各2個", []string{"螺絲", "螺帽各2個"}},
		{"empty pieces dropped", "、燈管、、", []string{"燈管"}},
		{"no separator", "更換燈管", []string{"更換燈管"}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSegments(tt.narrative))
		})
	}
}

func TestStripAffixes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"更換龍頭", "龍頭"},
		{"已更換燈管測試正常", "燈管"},
		{"更換了插座", "插座"},
		{"安裝 排風扇完成。", "排風扇"},
		{"螺絲等材料恢復正常", "螺絲"},
		{"水管將管路重新配管", "水管"},
		{"燈管.", "燈管"},
		{"完成", ""},
		{"龍頭", "龍頭"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, StripAffixes(tt.in))
		})
	}
}

func TestExtractMaterials(t *testing.T) {
	tests := []struct {
		name              string
		narrative         string
		vocab             []models.ManagedMaterialName
		wantMaterials     []models.Material
		wantUncategorized []string
	}{
		{
			name:              "quantities aggregate under one name",
			narrative:         "螺絲*3、螺絲*2",
			vocab:             materials("螺絲"),
			wantMaterials:     []models.Material{{Name: "螺絲", Quantity: 5}},
			wantUncategorized: []string{},
		},
		{
			name:              "verb stripped before matching split fragments",
			narrative:         "更換龍頭及閥",
			vocab:             materials("龍頭", "閥"),
			wantMaterials:     []models.Material{{Name: "龍頭", Quantity: 1}, {Name: "閥", Quantity: 1}},
			wantUncategorized: []string{},
		},
		{
			name:              "substring match stores managed name",
			narrative:         "更換廁所三角凡而2個",
			vocab:             materials("三角凡而"),
			wantMaterials:     []models.Material{{Name: "三角凡而", Quantity: 2}},
			wantUncategorized: []string{},
		},
		{
			name:              "fragment contained in managed name",
			narrative:         "更換燈泡2個",
			vocab:             materials("LED燈泡"),
			wantMaterials:     []models.Material{{Name: "LED燈泡", Quantity: 2}},
			wantUncategorized: []string{},
		},
		{
			name:              "contained managed name beats containing one",
			narrative:         "更換燈管",
			vocab:             materials("T5燈管", "燈"),
			wantMaterials:     []models.Material{{Name: "燈", Quantity: 1}},
			wantUncategorized: []string{},
		},
		{
			name:              "prefix match keeps specific name",
			narrative:         `更換球閥 1/2"`,
			vocab:             materials("球閥"),
			wantMaterials:     []models.Material{{Name: `球閥 1/2"`, Quantity: 1}},
			wantUncategorized: []string{},
		},
		{
			name:              "longest managed name wins",
			narrative:         "更換T5燈管2支",
			vocab:             materials("燈管", "T5燈管"),
			wantMaterials:     []models.Material{{Name: "T5燈管", Quantity: 2}},
			wantUncategorized: []string{},
		},
		{
			name:              "exact managed name with size suffix",
			narrative:         "更換LED燈泡-10W",
			vocab:             materials("LED燈泡-10W"),
			wantMaterials:     []models.Material{{Name: "LED燈泡-10W", Quantity: 1}},
			wantUncategorized: []string{},
		},
		{
			name:              "bare stem goes to uncategorized",
			narrative:         "更換LED燈泡-",
			vocab:             materials("LED燈泡"),
			wantMaterials:     []models.Material{},
			wantUncategorized: []string{"LED燈泡-"},
		},
		{
			name:              "bare stem accepted when managed exactly",
			narrative:         "更換LED燈泡-",
			vocab:             materials("LED燈泡-"),
			wantMaterials:     []models.Material{{Name: "LED燈泡-", Quantity: 1}},
			wantUncategorized: []string{},
		},
		{
			name:              "unmatched kept verbatim",
			narrative:         "更換燈管、清理排水孔",
			vocab:             materials("燈管"),
			wantMaterials:     []models.Material{{Name: "燈管", Quantity: 1}},
			wantUncategorized: []string{"清理排水孔"},
		},
		{
			name:              "empty vocabulary",
			narrative:         "更換燈管2支",
			vocab:             nil,
			wantMaterials:     []models.Material{},
			wantUncategorized: []string{"燈管2支"},
		},
		{
			name:              "hose and wire compound split by hand",
			narrative:         `PT高壓軟管-½"白扁線-2.0mm*2C`,
			vocab:             materials(`PT高壓軟管-½"`),
			wantMaterials:     []models.Material{{Name: `PT高壓軟管-½"`, Quantity: 1}},
			wantUncategorized: []string{"白扁線-2.0mm*2C"},
		},
		{
			name:              "doubled RO phrase collapsed",
			narrative:         "更換RO管更換RO管",
			vocab:             materials("RO管"),
			wantMaterials:     []models.Material{{Name: "RO管", Quantity: 1}},
			wantUncategorized: []string{},
		},
		{
			name:              "single toilet mention forced to one",
			narrative:         "更換兩件式坐式馬桶3F",
			vocab:             materials("兩件式坐式馬桶"),
			wantMaterials:     []models.Material{{Name: "兩件式坐式馬桶", Quantity: 1}},
			wantUncategorized: []string{},
		},
		{
			name:              "two toilet mentions keep sum",
			narrative:         "兩件式坐式馬桶*1、兩件式坐式馬桶*1",
			vocab:             materials("兩件式坐式馬桶"),
			wantMaterials:     []models.Material{{Name: "兩件式坐式馬桶", Quantity: 2}},
			wantUncategorized: []string{},
		},
		{
			name:              "empty narrative",
			narrative:         "",
			vocab:             materials("燈管"),
			wantMaterials:     []models.Material{},
			wantUncategorized: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractMaterials(tt.narrative, tt.vocab)
			assert.Equal(t, tt.wantMaterials, got.Materials)
			assert.Equal(t, tt.wantUncategorized, got.Uncategorized)
		})
	}
}

func TestExtractMaterials_NamesUniqueAndNonNegative(t *testing.T) {
	got := ExtractMaterials("燈管2支、T5燈管1支、燈管*3、螺絲、螺絲5個", materials("燈管", "T5燈管", "螺絲"))

	seen := map[string]bool{}
	for _, m := range got.Materials {
		require.False(t, seen[m.Name], "duplicate material %q", m.Name)
		seen[m.Name] = true
		assert.GreaterOrEqual(t, m.Quantity, 0.0)
	}
	assert.Equal(t, []models.Material{
		{Name: "燈管", Quantity: 5},
		{Name: "T5燈管", Quantity: 1},
		{Name: "螺絲", Quantity: 6},
	}, got.Materials)
}

func TestExtractMaterials_ShortFragmentNeverDropped(t *testing.T) {
	vocab := materials("LED燈泡")
	for _, narrative := range []string{"更換燈泡", "燈泡*2", "更換LED燈泡"} {
		got := ExtractMaterials(narrative, vocab)
		require.Len(t, got.Materials, 1, narrative)
		assert.Equal(t, "LED燈泡", got.Materials[0].Name, narrative)
		assert.Empty(t, got.Uncategorized, narrative)
	}
}

func TestExtractMaterials_IndependentOfVocabularyOrder(t *testing.T) {
	a := ExtractMaterials("更換LED燈管T8 2支", materials("燈管", "LED燈管", "LED"))
	b := ExtractMaterials("更換LED燈管T8 2支", materials("LED", "LED燈管", "燈管"))
	assert.Equal(t, a, b)
}

func TestIsIncompletePrefix(t *testing.T) {
	assert.True(t, IsIncompletePrefix("LED燈泡-"))
	assert.True(t, IsIncompletePrefix("led燈泡-"))
	assert.True(t, IsIncompletePrefix("閥-"))
	assert.False(t, IsIncompletePrefix("LED燈泡-10W"))
	assert.False(t, IsIncompletePrefix("LED燈泡"))
	assert.False(t, IsIncompletePrefix("門把-"))
}
