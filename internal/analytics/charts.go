package analytics

// ChartType is the kind of mark a chart is drawn with.
type ChartType string

const (
	ChartBar   ChartType = "bar"
	ChartDonut ChartType = "donut"
)

// Orientation of a bar chart.
type Orientation string

const (
	Horizontal Orientation = "h"
	Vertical   Orientation = "v"
)

// stagePalette colours the stage donut slices in order.
var stagePalette = []string{"#66c2a5", "#fc8d62", "#8da0cb", "#e78ac3", "#999999"}

// ChartPoint is one labelled value.
type ChartPoint struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// ChartConfig is a render-ready description of one dashboard chart.
// Bar charts carry a continuous colour scale; donuts carry a discrete palette.
type ChartConfig struct {
	ID          ViewName     `json:"id"`
	Type        ChartType    `json:"type"`
	Orientation Orientation  `json:"orientation,omitempty"`
	Title       string       `json:"title"`
	XAxis       string       `json:"x_axis,omitempty"`
	YAxis       string       `json:"y_axis,omitempty"`
	Points      []ChartPoint `json:"points"`
	ColorScale  string       `json:"color_scale,omitempty"`
	Colors      []string     `json:"colors,omitempty"`
	Hole        float64      `json:"hole,omitempty"`
	Height      int          `json:"height"`
}

// Charts lays out the five grouped views as dashboard charts.
func Charts(v Views) []ChartConfig {
	return []ChartConfig{
		{
			ID:          ViewAccelerators,
			Type:        ChartBar,
			Orientation: Horizontal,
			Title:       "Accelerator → Startups",
			XAxis:       "# Startups",
			YAxis:       "Accelerator",
			Points:      points(v.Accelerators, 0),
			ColorScale:  "Tealgrn",
			Height:      450,
		},
		{
			ID:          ViewSectors,
			Type:        ChartBar,
			Orientation: Horizontal,
			Title:       "Top Sectors",
			XAxis:       "# Startups",
			YAxis:       "Sector",
			Points:      points(v.Sectors, 0),
			ColorScale:  "Magenta",
			Height:      500,
		},
		{
			ID:         ViewTRL,
			Type:       ChartDonut,
			Title:      "TRL Distribution",
			Points:     points(v.TRL, 0),
			ColorScale: "Viridis",
			Hole:       0.5,
			Height:     500,
		},
		{
			ID:     ViewStages,
			Type:   ChartDonut,
			Title:  "Stage of Startups",
			Points: points(v.Stages, 0),
			Colors: append([]string(nil), stagePalette...),
			Hole:   0.5,
			Height: 500,
		},
		{
			ID:          ViewStates,
			Type:        ChartBar,
			Orientation: Vertical,
			Title:       "Geography (States)",
			XAxis:       "State",
			YAxis:       "# Startups",
			Points:      points(v.States, TopStatesShown),
			ColorScale:  "Teal",
			Height:      420,
		},
	}
}

// points converts groups to chart points, keeping at most n (0 for all).
func points(groups []Group, n int) []ChartPoint {
	if n > 0 && len(groups) > n {
		groups = groups[:n]
	}
	out := make([]ChartPoint, len(groups))
	for i, g := range groups {
		out[i] = ChartPoint{Label: g.Key, Value: g.Count}
	}
	return out
}
