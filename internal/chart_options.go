package internal

import "strings"

// DefaultChartOptions returns a fresh copy of the baseline chart
// rendering configuration
func DefaultChartOptions() map[string]any {
	axis := func(title string, extraTicks map[string]any) map[string]any {
		ticks := map[string]any{
			"color": "#cbd5e1",
			"font":  map[string]any{"size": 10.0},
		}
		for k, v := range extraTicks {
			ticks[k] = v
		}
		return map[string]any{
			"display": true,
			"border": map[string]any{
				"display": false,
				"color":   "rgba(100, 116, 139, 0.6)",
			},
			"grid": map[string]any{
				"display":    true,
				"color":      "rgba(71, 85, 105, 0.5)",
				"drawBorder": false,
			},
			"ticks": ticks,
			"title": map[string]any{
				"display": false,
				"text":    title,
				"color":   "#cbd5e1",
				"font":    map[string]any{"size": 11.0, "weight": "500"},
			},
		}
	}

	y := axis("Y-Axis", nil)
	y["beginAtZero"] = true

	return map[string]any{
		"responsive":          true,
		"maintainAspectRatio": false,
		"plugins": map[string]any{
			"legend": map[string]any{
				"display":  true,
				"position": "top",
				"labels": map[string]any{
					"color":    "#e2e8f0",
					"font":     map[string]any{"size": 11.0},
					"boxWidth": 12.0,
					"padding":  10.0,
				},
			},
			"title": map[string]any{
				"display": true,
				"text":    "Chart",
				"color":   "#f1f5f9",
				"font":    map[string]any{"size": 14.0, "weight": "500"},
				"padding": map[string]any{"top": 8.0, "bottom": 12.0},
			},
			"tooltip": map[string]any{
				"enabled":         true,
				"mode":            "index",
				"intersect":       false,
				"backgroundColor": "rgba(15, 23, 42, 0.9)",
				"titleColor":      "#94a3b8",
				"titleFont":       map[string]any{"weight": "bold", "size": 12.0},
				"bodyColor":       "#e2e8f0",
				"bodyFont":        map[string]any{"size": 11.0},
				"borderColor":     "rgba(51, 65, 85, 0.8)",
				"borderWidth":     1.0,
				"padding":         8.0,
				"caretPadding":    8.0,
				"cornerRadius":    4.0,
				"boxPadding":      3.0,
			},
		},
		"scales": map[string]any{
			"x": axis("X-Axis", map[string]any{"maxRotation": 45.0, "minRotation": 0.0}),
			"y": y,
		},
		"animation": map[string]any{
			"duration": 300.0,
			"easing":   "easeOutQuart",
		},
		"layout": map[string]any{
			"padding": map[string]any{"top": 0.0, "right": 5.0, "bottom": 0.0, "left": 0.0},
		},
	}
}

// MergeChartOptions deep-merges caller options over the baseline.
// Caller leaves win and absent keys inherit. An explicit nil removes the
// key. A caller value that is not an object replaces a baseline object
// and arrays replace wholesale. For pie and doughnut charts both axes
// are hidden and the legend shown unless the caller set that exact
// field.
func MergeChartOptions(chartType string, baseline, caller map[string]any) map[string]any {
	merged := mergeObjects(baseline, caller)

	switch strings.ToLower(chartType) {
	case "pie", "doughnut":
		forceUnlessSet(merged, caller, false, "scales", "x", "display")
		forceUnlessSet(merged, caller, false, "scales", "y", "display")
		forceUnlessSet(merged, caller, true, "plugins", "legend", "display")
	}
	return merged
}

// EffectiveOptions merges a chart's own options over the baseline
func (c *ChartSpec) EffectiveOptions() map[string]any {
	if c == nil {
		return DefaultChartOptions()
	}
	return MergeChartOptions(c.Type, DefaultChartOptions(), c.Options)
}

func mergeObjects(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		out[k] = cloneValue(v)
	}
	for k, v := range over {
		if v == nil {
			delete(out, k)
			continue
		}
		overObj, overIsObj := v.(map[string]any)
		baseObj, baseIsObj := out[k].(map[string]any)
		if overIsObj && baseIsObj {
			out[k] = mergeObjects(baseObj, overObj)
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		cp := make(map[string]any, len(x))
		for k, val := range x {
			cp[k] = cloneValue(val)
		}
		return cp
	case []any:
		cp := make([]any, len(x))
		for i, val := range x {
			cp[i] = cloneValue(val)
		}
		return cp
	default:
		return v
	}
}

// hasPath reports whether the caller supplied a key at path, including
// an explicit null
func hasPath(m map[string]any, path ...string) bool {
	cur := m
	for i, p := range path {
		v, ok := cur[p]
		if !ok {
			return false
		}
		if i == len(path)-1 {
			return true
		}
		next, ok := v.(map[string]any)
		if !ok {
			return false
		}
		cur = next
	}
	return false
}

func forceUnlessSet(merged, caller map[string]any, value any, path ...string) {
	if hasPath(caller, path...) {
		return
	}
	cur := merged
	for _, p := range path[:len(path)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			if _, exists := cur[p]; exists {
				// caller replaced the group with a non-object value
				return
			}
			next = make(map[string]any)
			cur[p] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = value
}

// LookupOption reads a nested option value by path
func LookupOption(opts map[string]any, path ...string) (any, bool) {
	cur := opts
	for i, p := range path {
		v, ok := cur[p]
		if !ok {
			return nil, false
		}
		if i == len(path)-1 {
			return v, true
		}
		next, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}
