package model

// Theme is the immutable color record consumed by the render pipeline.
// Colors are hex strings ("#rrggbb"). Switching themes repaints only; it
// never touches the viewport or the drawing list.
type Theme struct {
	Name        string `json:"name"`
	Background  string `json:"background"`
	Grid        string `json:"grid"`
	AxisText    string `json:"axisText"`
	CandleUp    string `json:"candleUp"`
	CandleDown  string `json:"candleDown"`
	WickUp      string `json:"wickUp"`
	WickDown    string `json:"wickDown"`
	VolumeUp    string `json:"volumeUp"`
	VolumeDown  string `json:"volumeDown"`
	Crosshair   string `json:"crosshair"`
	DrawingLine string `json:"drawingLine"`
}

func DarkTheme() Theme {
	return Theme{
		Name:        "dark",
		Background:  "#131722",
		Grid:        "#1f2837",
		AxisText:    "#8a94a6",
		CandleUp:    "#00da3c",
		CandleDown:  "#ec0000",
		WickUp:      "#008f28",
		WickDown:    "#8a0000",
		VolumeUp:    "#1b4332",
		VolumeDown:  "#5c1a1a",
		Crosshair:   "#8a94a6",
		DrawingLine: "#59a6ff",
	}
}

func LightTheme() Theme {
	return Theme{
		Name:        "light",
		Background:  "#ffffff",
		Grid:        "#e3e7ee",
		AxisText:    "#55607a",
		CandleUp:    "#00a02c",
		CandleDown:  "#d32f2f",
		WickUp:      "#006b1d",
		WickDown:    "#8e1f1f",
		VolumeUp:    "#bfe3cc",
		VolumeDown:  "#f0c4c4",
		Crosshair:   "#55607a",
		DrawingLine: "#2962ff",
	}
}

// ThemeByName resolves a preset by name, defaulting to dark.
func ThemeByName(name string) Theme {
	if name == "light" {
		return LightTheme()
	}
	return DarkTheme()
}
