// Package render turns rating aggregates into the storefront star-rating
// markup embedded by widget plugins.
package render

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/utafrali/ReviewsGo/internal/domain"
)

// Options controls the rendered summary.
type Options struct {
	// Title is shown before the stars, e.g. "Customer Ratings:".
	Title string

	// ShowRecommenders adds the share of reviewers that would recommend
	// the subject.
	ShowRecommenders bool
}

var summaryTmpl = template.Must(template.New("rating_summary").Parse(strings.TrimSpace(`
<div class="rating-summary" data-rating="{{printf "%.1f" .Rating}}">
{{- if .Title}}<span class="rating-title">{{.Title}}</span>{{end -}}
<span class="rating-stars" aria-label="{{printf "%.1f" .Rating}} out of 5">
{{- range .FullStars}}<i class="star star-full"></i>{{end -}}
{{- if .HalfStar}}<i class="star star-half"></i>{{end -}}
{{- range .EmptyStars}}<i class="star star-empty"></i>{{end -}}
</span>
<span class="rating-count">{{.ReviewCount}} review{{if ne .ReviewCount 1}}s{{end}}</span>
{{- if .ShowRecommenders}}<span class="rating-recommend">{{.RecommendPct}} would recommend</span>{{end -}}
</div>`)))

type summaryData struct {
	Title            string
	Rating           float64
	FullStars        []struct{}
	EmptyStars       []struct{}
	HalfStar         bool
	ReviewCount      int
	ShowRecommenders bool
	RecommendPct     string
}

// Summary renders the star-rating markup for an aggregate. The mean is
// rounded to one decimal here, at the display layer; the aggregate itself
// stays unrounded.
func Summary(agg *domain.RatingAggregate, opts Options) (string, error) {
	rating := agg.DisplayRating()
	stars := StarsFromRating(rating)

	data := summaryData{
		Title:            opts.Title,
		Rating:           rating,
		FullStars:        make([]struct{}, stars.Full),
		EmptyStars:       make([]struct{}, stars.Empty),
		HalfStar:         stars.Half,
		ReviewCount:      agg.ReviewCount,
		ShowRecommenders: opts.ShowRecommenders,
		RecommendPct:     fmt.Sprintf("%.0f%%", agg.RecommendPercent()*100),
	}

	var buf strings.Builder
	if err := summaryTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render rating summary: %w", err)
	}

	return buf.String(), nil
}
