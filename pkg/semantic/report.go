package semantic

// QualityReport summarizes a batch of classification results.
type QualityReport struct {
	Total          int
	Grades         map[string]int
	MeanConfidence float64
	UnknownRate    float64 // share of SyntaxUnknown results
	ReliableRate   float64 // share with confidence >= 0.60
}

// Summarize aggregates results into a quality report. An empty input
// yields a zero report with an allocated grade map.
func Summarize(results []Result) QualityReport {
	report := QualityReport{Grades: make(map[string]int)}
	if len(results) == 0 {
		return report
	}
	var sum float64
	var unknown, reliable int
	for _, r := range results {
		report.Grades[r.Grade]++
		sum += r.Confidence
		if r.Category == CategorySyntaxUnknown {
			unknown++
		}
		if r.Metrics.IsReliable() {
			reliable++
		}
	}
	report.Total = len(results)
	report.MeanConfidence = sum / float64(len(results))
	report.UnknownRate = float64(unknown) / float64(len(results))
	report.ReliableRate = float64(reliable) / float64(len(results))
	return report
}
