package ingest

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/david/maintenance-analyzer/internal/models"
)

// Data-quality patches for specific inputs observed in the field. They are
// intentionally literal and should not be generalized.
const (
	duplicatedROPhrase = "更換RO管更換RO管"
	singleROPhrase     = "更換RO管"

	hoseWireCompound = "PT高壓軟管-½\"白扁線-2.0mm*2C"
)

var hoseWireConstituents = []string{"PT高壓軟管-½\"", "白扁線-2.0mm*2C"}

var (
	toiletMaterialNames = []string{"兩件式坐式馬桶", "兩件式馬桶"}
	toiletMentionRegex  = regexp.MustCompile(`(?i)兩件式(?:坐式)?馬桶`)
)

// Separators between material mentions. Longer tokens first.
var segmentSeparators = []string{"以及", "、", "&", "與", "及"}

// eachQuantifier blocks a split when adjacent to a separator ("A、B各1個").
const eachQuantifier = '各'

var (
	leadingVerbRegex  = regexp.MustCompile(`(?i)^(?:已用|已更換|更換了|更換|使用|安裝|已將|將|把|計|更新|換裝|新裝|加裝|拆換|拆除並更新|調整|清潔|修復|處理)\s*`)
	trailingJunkRegex = regexp.MustCompile(`(?i)(?:等材料|等零件)?(?:將.*?重新配管|將.*?疏通|測試正常|恢復正常|完成|修復|處理完畢|功能正常|等作業|等調整|等事項|等工作)。?$`)

	// benignRemainderRegex accepts what may follow a managed name that
	// prefixes a fragment: size specs, dashes and punctuation.
	benignRemainderRegex = regexp.MustCompile(`^[-(\s\w½¼¾"'.呎/#*:,+\\]*$`)
)

// incompletePrefixStems are material stems that are meaningless when they
// appear with a dangling dash and no completing size.
var incompletePrefixStems = []string{
	"LED燈泡", "LED燈管", "T5燈管", "日光燈", "PL燈", "BB燈", "CCFL燈", "探照燈", "緊急照明燈",
	"燈泡", "燈管", "燈座", "龍頭", "水龍頭", "閥", "球閥", "球塞閥", "馬桶", "電線", "開關",
	"插座", "風扇", "馬達", "泵浦", "油漆", "水泥", "磁磚", "玻璃", "木板", "板材", "角材",
	"螺絲", "螺帽", "墊片", "軟管", "水管", "鉄管", "鐵管", "PVC管", "ABS管", "不鏽鋼管",
	"不銹鋼管", "高壓軟管", "三角凡而", "立栓", "壁栓", "混合龍頭", "沖洗器", "沖水閥", "浮球",
	"落水頭", "排水管", "排風扇", "抽風機", "斷路器", "無熔絲開關", "電磁開關", "安定器", "啟動器",
	"變壓器", "電池", "軸承", "皮帶", "濾網", "濾心", "矽利康", "填縫劑", "黏著劑", "接著劑",
	"潤滑油", "清潔劑", "消毒水", "除草劑", "殺蟲劑", "兩件式坐式馬桶", "制水電磁閥",
}

var incompletePrefixRegex = buildIncompletePrefixRegex(incompletePrefixStems)

func buildIncompletePrefixRegex(stems []string) *regexp.Regexp {
	quoted := make([]string, len(stems))
	for i, s := range stems {
		quoted[i] = regexp.QuoteMeta(s)
	}
	return regexp.MustCompile(`(?i)^(?:` + strings.Join(quoted, "|") + `)-$`)
}

// IsIncompletePrefix reports whether name is a bare stem followed only by a dash.
func IsIncompletePrefix(name string) bool {
	return incompletePrefixRegex.MatchString(strings.TrimSpace(name))
}

// materialIndex is the per-pass view of the managed material vocabulary.
type materialIndex struct {
	sorted []models.ManagedMaterialName
	exact  map[string]string
}

func newMaterialIndex(names []models.ManagedMaterialName) materialIndex {
	idx := materialIndex{exact: make(map[string]string, len(names))}
	for _, n := range names {
		name := strings.TrimSpace(n.Name)
		if name == "" {
			continue
		}
		n.Name = name
		idx.sorted = append(idx.sorted, n)
		if _, ok := idx.exact[strings.ToLower(name)]; !ok {
			idx.exact[strings.ToLower(name)] = name
		}
	}
	// Longest first; ties broken by name so the result never depends on
	// insertion order.
	slices.SortStableFunc(idx.sorted, func(a, b models.ManagedMaterialName) int {
		if c := cmp.Compare(utf8.RuneCountInString(b.Name), utf8.RuneCountInString(a.Name)); c != 0 {
			return c
		}
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return idx
}

func (idx materialIndex) exactName(s string) (string, bool) {
	name, ok := idx.exact[strings.ToLower(strings.TrimSpace(s))]
	return name, ok
}

// match resolves a parsed name part against the vocabulary. A managed name
// that prefixes the fragment keeps the fragment's own (more specific) name;
// a plain substring hit is stored under the managed name. A managed name
// that contains the fragment is tried only after every name the fragment
// contains.
func (idx materialIndex) match(namePart string) (string, bool) {
	lowerPart := strings.ToLower(strings.TrimSpace(namePart))
	if lowerPart == "" {
		return "", false
	}
	if name, ok := idx.matchWithin(namePart, lowerPart); ok {
		return name, true
	}
	for _, m := range idx.sorted {
		if strings.Contains(strings.ToLower(m.Name), lowerPart) {
			return m.Name, true
		}
	}
	return "", false
}

func (idx materialIndex) matchWithin(namePart, lowerPart string) (string, bool) {
	for _, m := range idx.sorted {
		lowerManaged := strings.ToLower(m.Name)
		if strings.HasPrefix(lowerPart, lowerManaged) {
			remainder := strings.TrimSpace(lowerPart[len(lowerManaged):])
			if remainder == "" || benignRemainderRegex.MatchString(remainder) {
				stored := stripQuantity(namePart)
				if _, exact := idx.exactName(stored); exact || !IsIncompletePrefix(stored) {
					return stored, true
				}
			}
		}
		if strings.Contains(lowerPart, lowerManaged) {
			return m.Name, true
		}
	}
	return "", false
}

// covers reports whether a name part is already represented by the
// vocabulary. It accepts the same two directions as match.
func (idx materialIndex) covers(namePart string) bool {
	lowerPart := strings.ToLower(namePart)
	for _, m := range idx.sorted {
		lowerManaged := strings.ToLower(m.Name)
		if strings.Contains(lowerPart, lowerManaged) || strings.Contains(lowerManaged, lowerPart) {
			return true
		}
	}
	return false
}

// SplitSegments splits a handling narrative into candidate material mentions.
// A separator directly next to 各 does not split.
func SplitSegments(narrative string) []string {
	var (
		raw   []string
		start int
	)
	for i := 0; i < len(narrative); {
		sep := separatorAt(narrative, i)
		if sep == "" || adjacentToEach(narrative, i, i+len(sep)) {
			_, size := utf8.DecodeRuneInString(narrative[i:])
			i += size
			continue
		}
		raw = append(raw, narrative[start:i])
		i += len(sep)
		start = i
	}
	raw = append(raw, narrative[start:])

	segments := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

func separatorAt(s string, i int) string {
	for _, sep := range segmentSeparators {
		if strings.HasPrefix(s[i:], sep) {
			return sep
		}
	}
	return ""
}

func adjacentToEach(s string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s[:start]); r == eachQuantifier {
			return true
		}
	}
	if end < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[end:]); r == eachQuantifier {
			return true
		}
	}
	return false
}

// StripAffixes removes a leading action verb and a trailing closing phrase.
func StripAffixes(segment string) string {
	s := strings.TrimSpace(segment)
	s = strings.TrimSpace(leadingVerbRegex.ReplaceAllString(s, ""))
	if loc := trailingJunkRegex.FindStringIndex(s); loc != nil {
		s = strings.TrimSpace(s[:loc[0]])
	}
	return strings.TrimSpace(strings.TrimRight(s, ".。,，;；"))
}

func repairKnownDuplication(narrative string) string {
	return strings.ReplaceAll(narrative, duplicatedROPhrase, singleROPhrase)
}

type provisionalMaterial struct {
	name     string
	quantity float64
}

// ExtractMaterials runs the material pipeline over one handling narrative.
// It never fails: text it cannot attribute to a managed material ends up in
// Uncategorized.
func ExtractMaterials(narrative string, managed []models.ManagedMaterialName) MaterialExtraction {
	idx := newMaterialIndex(managed)
	out := MaterialExtraction{Materials: []models.Material{}, Uncategorized: []string{}}

	var found []provisionalMaterial
	for _, seg := range SplitSegments(repairKnownDuplication(narrative)) {
		seg = StripAffixes(seg)
		if seg == "" {
			continue
		}

		if seg == hoseWireCompound {
			for _, part := range hoseWireConstituents {
				if name, ok := idx.exactName(part); ok {
					found = append(found, provisionalMaterial{name: name, quantity: 1})
				} else {
					out.Uncategorized = append(out.Uncategorized, part)
				}
			}
			continue
		}

		if name, ok := idx.exactName(seg); ok {
			found = append(found, provisionalMaterial{name: name, quantity: 1})
			continue
		}

		qm := ParseQuantity(seg)
		if qm.Name == "" {
			continue
		}
		if IsIncompletePrefix(qm.Name) {
			if _, ok := idx.exactName(qm.Name); !ok {
				out.Uncategorized = append(out.Uncategorized, seg)
				continue
			}
		}
		if name, ok := idx.match(qm.Name); ok {
			found = append(found, provisionalMaterial{name: name, quantity: qm.Quantity})
			continue
		}
		out.Uncategorized = append(out.Uncategorized, seg)
	}

	out.Materials = aggregateMaterials(found, idx)
	fixSingleToiletMention(out.Materials, narrative)
	return out
}

func aggregateMaterials(found []provisionalMaterial, idx materialIndex) []models.Material {
	materials := []models.Material{}
	positions := make(map[string]int, len(found))
	for _, f := range found {
		if IsIncompletePrefix(f.name) {
			if _, ok := idx.exactName(f.name); !ok {
				continue
			}
		}
		qty := f.quantity
		if qty < 0 {
			qty = 0
		}
		if i, ok := positions[f.name]; ok {
			materials[i].Quantity += qty
			continue
		}
		positions[f.name] = len(materials)
		materials = append(materials, models.Material{Name: f.name, Quantity: qty})
	}
	return materials
}

// fixSingleToiletMention undoes over-counting when a trailing number after a
// toilet mention was mistaken for its quantity.
func fixSingleToiletMention(materials []models.Material, narrative string) {
	for i, m := range materials {
		if !slices.Contains(toiletMaterialNames, m.Name) || m.Quantity <= 1 {
			continue
		}
		if len(toiletMentionRegex.FindAllStringIndex(narrative, -1)) == 1 {
			materials[i].Quantity = 1
		}
		return
	}
}
