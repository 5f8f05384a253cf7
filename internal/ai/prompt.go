package ai

import (
	"cmp"
	"context"
	"fmt"
	"strings"

	"github.com/david/maintenance-analyzer/internal/analysis"
	"github.com/david/maintenance-analyzer/internal/ingest"
)

// NoDataMessage is returned instead of a suggestion when the filter selects
// no records.
const NoDataMessage = "目前篩選條件下無資料可供分析以產生維護建議。請調整篩選或上傳更多資料。"

// PromptFilter is the active filter as shown to the model. Empty values
// read as "all".
type PromptFilter struct {
	Year     string
	Month    string
	Venue    string
	Area     string
	WorkType string
}

const (
	promptTopN     = 5
	noDataFallback = "尚無資料"
	allValues      = "所有"
)

const maintenancePromptTemplate = `作為設施維護專家，請根據以下維修數據摘要和詳細數據，提供深入的預防性維護建議、潛在風險推論、以及可能的優化方向。請以繁體中文提供清晰的階層式條列建議，嚴格依照以下編號格式與適當縮排： 一、 (一) 1. (1) a. (a)，避免過度使用粗體。

維修數據摘要：
%s
%s

篩選條件：
- 年份：%s
- 月份：%s
- 場域：%s
- 區域：%s
- 工作類型：%s

請專注於從數據中推斷圖表可能未直接顯示的潛在問題或根本原因。例如，若某區域特定類型故障（如堵塞）頻繁，請推測可能的深層原因（如該區域管線老化或設計問題）並提出具體檢查或改進建議。

建議報告格式範例（請嚴格遵守此階層編號與縮排）：
一、潛在風險與根本原因推論
    (一) 針對 [高發故障類型A]
        1.  可能原因
            (1) [根據數據推測，例如：某區域的[高發故障類型A]可能與[推測原因1]有關]
            (2) [推測原因2]
        2.  潛在風險
            (1) [說明]
    (二) 針對熱點區域 [區域X] 的 [特定故障Y]
        1.  可能原因
            (1) [例如：D區的堵塞問題頻繁，可能指示該區域的污水幹管存在淤積或設計不良]
        2.  建議行動
            (1) [例如：建議對D區污水幹管進行內視鏡檢查]
二、預防性維護措施建議
    (一) 巡檢重點調整
        1.  針對 [高發區域A]
            (1) [建議巡檢項目]
        2.  針對 [高發故障類型B]
            (1) [建議巡檢頻率或方法]
    (二) 材料庫存與採購優化
        1.  根據 [常用材料C] 的高消耗量，建議 [庫存調整策略]
三、長期維護策略優化方向
    (一) [例如：考慮對[特定老舊設施/區域]進行預算編列以進行系統性更新]
    (二) [例如：建議引入[新技術/方法]以改善[特定問題]的維護效率]

請確保您的分析具有洞察力，而不僅僅是重複數據。
`

func joinCounts(items []analysis.Aggregation, limit int, sep string) string {
	parts := make([]string, 0, limit)
	for i, a := range items {
		if i == limit {
			break
		}
		parts = append(parts, fmt.Sprintf("%s (%d次)", a.Value, a.Count))
	}
	return strings.Join(parts, sep)
}

// BuildMaintenancePrompt renders the pre-aggregated summary and the active
// filter into the preventive maintenance prompt.
func BuildMaintenancePrompt(summary analysis.Summary, filter PromptFilter) string {
	var data strings.Builder
	fmt.Fprintf(&data, "目前分析了 %d 筆維修紀錄。\n", summary.TotalRecords)
	fmt.Fprintf(&data, "主要故障類型統計：%s\n", cmp.Or(joinCounts(summary.FaultTypes, promptTopN, "；"), noDataFallback))
	fmt.Fprintf(&data, "故障高發區域統計：%s\n", cmp.Or(joinCounts(summary.AreaHotspots, promptTopN, "；"), noDataFallback))

	materials := make([]string, 0, promptTopN)
	for i, m := range summary.Materials {
		if i == promptTopN {
			break
		}
		materials = append(materials, fmt.Sprintf("%s (用量%s)", m.Name, ingest.FormatQuantity(m.Quantity)))
	}
	fmt.Fprintf(&data, "常用維修材料統計：%s\n", cmp.Or(strings.Join(materials, "；"), noDataFallback))

	var areas strings.Builder
	areas.WriteString("故障高發熱區詳細故障類型：\n")
	for _, a := range summary.TopAreaFaults {
		fmt.Fprintf(&areas, "- %s (總計 %d 次)：%s\n", a.Area, a.TotalRepairs,
			cmp.Or(joinCounts(a.FaultTypes, len(a.FaultTypes), ", "), "無詳細故障分類"))
	}

	return fmt.Sprintf(maintenancePromptTemplate,
		data.String(), areas.String(),
		cmp.Or(filter.Year, allValues),
		cmp.Or(filter.Month, allValues),
		cmp.Or(filter.Venue, allValues),
		cmp.Or(filter.Area, allValues),
		cmp.Or(filter.WorkType, allValues))
}

// SuggestPreventiveMaintenance asks gen for preventive maintenance advice on
// the summarized records. The response is returned as is. An empty summary
// yields NoDataMessage without calling gen.
func SuggestPreventiveMaintenance(ctx context.Context, gen Generator, summary analysis.Summary, filter PromptFilter) (string, error) {
	if summary.TotalRecords == 0 {
		return NoDataMessage, nil
	}
	if gen == nil {
		return "", ErrNotConfigured
	}
	text, err := gen.GenerateCompletion(ctx, BuildMaintenancePrompt(summary, filter))
	if err != nil {
		return "", fmt.Errorf("generate maintenance suggestions: %w", err)
	}
	return text, nil
}
