package plot

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestColors(t *testing.T) {
	tests := []struct {
		n    int
		want []string
	}{
		{0, []string{}},
		{1, []string{"rgba(127,0,255,1)"}},
		{2, []string{"rgba(127,0,255,1)", "rgba(255,0,0,1)"}},
	}
	for _, tt := range tests {
		got := Colors(tt.n)
		if strings.Join(got, ";") != strings.Join(tt.want, ";") {
			t.Errorf("Colors(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}

	// the midpoint of an odd sample is near the green peak
	mid := Colors(3)[1]
	if !strings.HasPrefix(mid, "rgba(") || !strings.Contains(mid, ",255,") {
		t.Errorf("unexpected midpoint colour %s", mid)
	}
}

func TestRainbowLUT_Endpoints(t *testing.T) {
	first, last := rainbowLUT[0], rainbowLUT[lutSize-1]
	if first != [3]float64{0.5, 0, 1} {
		t.Errorf("first entry %v", first)
	}
	if last[0] != 1 || math.Abs(last[1]) > 1e-9 || math.Abs(last[2]) > 1e-9 {
		t.Errorf("last entry %v", last)
	}
}

func TestTracesAndAnnotations(t *testing.T) {
	words := []string{"Paris", "war"}
	clusters := [][]string{{"France", "London"}, {"battle", "conflict"}}
	points := [][][2]float64{
		{{1, 2}, {3, 4}},
		{{-1, -1}, {-3, -3}},
	}
	data, annotations := TracesAndAnnotations(words, clusters, points, Colors(2))

	if len(data) != 2 {
		t.Fatalf("expected 2 traces, got %d", len(data))
	}
	if data[0].Name != "Paris" || data[0].Marker.Size != 10 || data[0].Marker.Line.Width != 2 || data[0].Marker.Opacity != 0.7 {
		t.Errorf("unexpected trace %+v", data[0])
	}
	if strings.Join(data[1].Text, ",") != "battle,conflict" {
		t.Errorf("hover text should list similar words, got %v", data[1].Text)
	}

	// two similar words plus one cluster label per query word
	if len(annotations) != 6 {
		t.Fatalf("expected 6 annotations, got %d", len(annotations))
	}
	label := annotations[2]
	if label.Text != "Paris" || label.Font.Size != 20 || label.Font.Color != data[0].Marker.Color {
		t.Errorf("unexpected cluster label %+v", label)
	}
	if math.Abs(label.X-2.4) > 1e-9 || math.Abs(label.Y-3.6) > 1e-9 {
		t.Errorf("cluster label should sit at 1.2x the mean, got (%f,%f)", label.X, label.Y)
	}
	if annotations[0].Font.Size != 12 || annotations[0].Font.Color != "black" {
		t.Errorf("unexpected word annotation %+v", annotations[0])
	}
}

func TestNewFigure_JSON(t *testing.T) {
	fig := NewFigure([]string{"peace"}, [][]string{{"harmony"}}, [][][2]float64{{{0.5, 0.5}}})
	raw, err := json.Marshal(fig)
	if err != nil {
		t.Fatal(err)
	}
	s := string(raw)
	for _, want := range []string{
		`"title":{"text":"Similar Words from Google News"}`,
		`"hovermode":"closest"`,
		`"showticklabels":false`,
		`"mode":"markers"`,
		`"showlegend":true`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("figure json missing %s", want)
		}
	}
}
