package html

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"sort"
	"strings"

	"github.com/pkg/errors"
	chart "github.com/wcharczuk/go-chart/v2"

	apitype "github.com/reviewdeck/reviewdeck/pkg/apis/reviews/v1"
)

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Report for {{.AppID}} ({{.Country}})</title>
<style>
body { font-family: Arial, Helvetica, sans-serif; margin: 24px; }
.grid { display: grid; grid-template-columns: 1fr 1fr; gap: 24px; }
footer { margin-top: 40px; font-size: 12px; color: #666; }
</style>
</head>
<body>
<h1>App Store Review Analysis: App {{.AppID}} / {{.CountryUpper}}</h1>
<h2>Metrics</h2>
<ul>
  <li>Total reviews: <b>{{.Count}}</b></li>
  <li>Average rating: <b>{{.AverageRating}}</b></li>
</ul>
<div class="grid">
  <div><h3>Ratings</h3>{{if .RatingChart}}<img src="data:image/png;base64,{{.RatingChart}}" />{{else}}<p>No data</p>{{end}}</div>
  <div><h3>Sentiment</h3>{{if .SentimentChart}}<img src="data:image/png;base64,{{.SentimentChart}}" />{{else}}<p>No data</p>{{end}}</div>
</div>
<h2>Top Negative Keywords</h2>
<p>{{.Keywords}}</p>
<h2>Recommendations</h2>
<ul>
{{range .Recommendations}}  <li>{{.}}</li>
{{end}}</ul>
<footer>Generated by ReviewDeck</footer>
</body>
</html>
`

var reportTmpl = template.Must(template.New("report").Parse(reportTemplate))

type reportData struct {
	AppID           string
	Country         string
	CountryUpper    string
	Count           int
	AverageRating   float64
	RatingChart     string
	SentimentChart  string
	Keywords        string
	Recommendations []string
}

// RenderReport produces a self-contained HTML report for an app/country
// pair: headline metrics, a rating distribution chart, a sentiment
// chart, negative keywords, and recommendations. Charts are embedded as
// base64 PNG data URIs so the page has no external assets.
func RenderReport(metrics apitype.MetricsOut, insights apitype.InsightsOut) ([]byte, error) {
	ratingChart, err := renderBarChart("Rating Distribution (%)", metrics.Distribution)
	if err != nil {
		return nil, errors.Wrap(err, "could not render rating chart")
	}
	sentimentChart, err := renderBarChart("Sentiment Distribution (%)", insights.SentimentPercent)
	if err != nil {
		return nil, errors.Wrap(err, "could not render sentiment chart")
	}

	keywords := strings.Join(insights.TopNegativeKeywords, ", ")
	if keywords == "" {
		keywords = "—"
	}

	data := reportData{
		AppID:           metrics.AppID,
		Country:         metrics.Country,
		CountryUpper:    strings.ToUpper(metrics.Country),
		Count:           metrics.Count,
		AverageRating:   metrics.AverageRating,
		RatingChart:     ratingChart,
		SentimentChart:  sentimentChart,
		Keywords:        keywords,
		Recommendations: insights.Recommendations,
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(err, "could not execute report template")
	}
	return buf.Bytes(), nil
}

// renderBarChart renders a labeled percentage bar chart to a base64
// PNG. An empty values map yields an empty string so the template can
// show a placeholder instead of a degenerate chart.
func renderBarChart(title string, values map[string]float64) (string, error) {
	if len(values) == 0 {
		return "", nil
	}

	labels := make([]string, 0, len(values))
	for label := range values {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	bars := make([]chart.Value, 0, len(labels))
	for _, label := range labels {
		bars = append(bars, chart.Value{Label: label, Value: values[label]})
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    512,
		Height:   384,
		BarWidth: 60,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
