package plot

import (
	"github.com/akolanti/MLServe/internal/config"
	"gonum.org/v1/gonum/stat"
)

// Figure is the subset of the plotly figure schema the dashboard renders
type Figure struct {
	Data   []Scatter `json:"data"`
	Layout Layout    `json:"layout"`
}

type Scatter struct {
	Type      string    `json:"type"`
	X         []float64 `json:"x"`
	Y         []float64 `json:"y"`
	Mode      string    `json:"mode"`
	Marker    Marker    `json:"marker"`
	Text      []string  `json:"text"`
	HoverInfo string    `json:"hoverinfo"`
	Name      string    `json:"name"`
}

type Marker struct {
	Color   string  `json:"color"`
	Size    int     `json:"size"`
	Line    Line    `json:"line"`
	Opacity float64 `json:"opacity"`
}

type Line struct {
	Color string `json:"color"`
	Width int    `json:"width"`
}

type Font struct {
	Size  int    `json:"size"`
	Color string `json:"color"`
}

type Annotation struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	XRef      string  `json:"xref"`
	YRef      string  `json:"yref"`
	Text      string  `json:"text"`
	ShowArrow bool    `json:"showarrow"`
	Font      Font    `json:"font"`
}

type Title struct {
	Text string `json:"text"`
}

type Axis struct {
	GridColor      string `json:"gridcolor"`
	ZeroLineColor  string `json:"zerolinecolor"`
	ShowGrid       bool   `json:"showgrid"`
	ShowTickLabels bool   `json:"showticklabels"`
	Title          Title  `json:"title"`
}

type Layout struct {
	Title       Title        `json:"title"`
	HoverMode   string       `json:"hovermode"`
	XAxis       Axis         `json:"xaxis"`
	YAxis       Axis         `json:"yaxis"`
	ShowLegend  bool         `json:"showlegend"`
	Annotations []Annotation `json:"annotations"`
}

const white = "rgb(255, 255, 255)"

func hiddenAxis() Axis {
	return Axis{GridColor: white, ZeroLineColor: white, ShowGrid: true, ShowTickLabels: false}
}

// TracesAndAnnotations builds one scatter trace per query word. Each similar
// word is labelled at its point and the query word is placed at 1.2x the
// cluster mean in the cluster colour. Inputs are zipped to the shortest.
func TracesAndAnnotations(words []string, clusters [][]string, points [][][2]float64, colors []string) ([]Scatter, []Annotation) {
	n := min(len(words), len(clusters), len(points), len(colors))
	data := make([]Scatter, 0, n)
	annotations := make([]Annotation, 0)

	for c := 0; c < n; c++ {
		x := make([]float64, len(points[c]))
		y := make([]float64, len(points[c]))
		for i, p := range points[c] {
			x[i], y[i] = p[0], p[1]
		}

		data = append(data, Scatter{
			Type: "scatter",
			X:    x,
			Y:    y,
			Mode: "markers",
			Marker: Marker{
				Color:   colors[c],
				Size:    10,
				Line:    Line{Color: "Black", Width: 2},
				Opacity: 0.7,
			},
			Text:      clusters[c],
			HoverInfo: "text",
			Name:      words[c],
		})

		for i, similar := range clusters[c] {
			if i >= len(x) {
				break
			}
			annotations = append(annotations, Annotation{
				X: x[i], Y: y[i], XRef: "x", YRef: "y",
				Text: similar,
				Font: Font{Size: 12, Color: "black"},
			})
		}

		if len(x) > 0 {
			r := config.AnnotationOffsetFraction
			annotations = append(annotations, Annotation{
				X: (1 + r) * stat.Mean(x, nil), Y: (1 + r) * stat.Mean(y, nil), XRef: "x", YRef: "y",
				Text: words[c],
				Font: Font{Size: 20, Color: colors[c]},
			})
		}
	}
	return data, annotations
}

func NewFigure(words []string, clusters [][]string, points [][][2]float64) Figure {
	data, annotations := TracesAndAnnotations(words, clusters, points, Colors(len(words)))
	return Figure{
		Data: data,
		Layout: Layout{
			Title:       Title{Text: config.FigureTitle},
			HoverMode:   "closest",
			XAxis:       hiddenAxis(),
			YAxis:       hiddenAxis(),
			ShowLegend:  true,
			Annotations: annotations,
		},
	}
}
