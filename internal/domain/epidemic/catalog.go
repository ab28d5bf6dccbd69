package epidemic

// Parameter groups used by front-ends to lay out their controls.
const (
	GroupConstant = "constant"
	GroupAdvanced = "advanced"
	GroupStatic   = "static_social_distancing"
	GroupDynamic  = "dynamic_social_distancing"
)

// ParamSpec describes one tunable input.
type ParamSpec struct {
	Key         string  `json:"key"`
	Description string  `json:"description"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Default     float64 `json:"default"`
	IsInt       bool    `json:"is_int"`
	IsPercent   bool    `json:"is_percent"`
	Group       string  `json:"group"`
}

// IsConstant reports whether the parameter has a single admissible value.
func (s ParamSpec) IsConstant() bool { return s.Min == s.Max }

func constant(key, desc string, v float64) ParamSpec {
	return ParamSpec{Key: key, Description: desc, Min: v, Max: v, Default: v, Group: GroupConstant}
}

var catalog = []ParamSpec{
	constant("latent_days", "Mean days from exposure to becoming infectious", defaultLatentDays),
	constant("infectious_days", "Mean days an individual stays infectious", defaultInfectiousDays),
	constant("hospitalization_fraction", "Share of infections that are hospitalized", defaultHospitalizationFraction),
	constant("critical_fraction", "Share of hospitalizations that need critical care", defaultCriticalFraction),
	constant("critical_lag_days", "Days from leaving the infectious class to entering critical care", defaultCriticalLagDays),
	constant("critical_stay_days", "Days spent in critical care", defaultCriticalStayDays),
	{Key: "r0", Description: "Mean basic reproduction number", Min: 1.5, Max: 3, Default: defaultR0, Group: GroupAdvanced},
	{Key: "immunity_days", Description: "Mean duration of immunity", Min: 40, Max: 730, Default: defaultImmunityDays, IsInt: true, Group: GroupAdvanced},
	{Key: "seasonal_amplitude", Description: "Relative seasonal swing of transmission", Min: 0, Max: 0.3, Default: 0, IsPercent: true, Group: GroupAdvanced},
	{Key: "seasonal_phase", Description: "Day of year of peak transmission", Min: 0, Max: 364, Default: 0, IsInt: true, Group: GroupAdvanced},
	{Key: "static.start_day", Description: "Day social distancing starts", Min: 0, Max: 140, Default: 14, IsInt: true, Group: GroupStatic},
	{Key: "static.duration_days", Description: "Days social distancing lasts", Min: 0, Max: 280, Default: 28, IsInt: true, Group: GroupStatic},
	{Key: "static.intensity", Description: "Contact multiplier while distancing", Min: 0, Max: 1, Default: 0.6, IsPercent: true, Group: GroupStatic},
	{Key: "dynamic.on_threshold", Description: "Critical occupancy that switches distancing on", Min: 0, Max: 100, Default: 3.8, Group: GroupDynamic},
	{Key: "dynamic.off_threshold", Description: "Critical occupancy that switches distancing off", Min: 0, Max: 100, Default: 1, Group: GroupDynamic},
	{Key: "dynamic.intensity", Description: "Contact multiplier while distancing", Min: 0, Max: 1, Default: 0.6, IsPercent: true, Group: GroupDynamic},
}

// Catalog returns a copy of the parameter metadata, in display order.
func Catalog() []ParamSpec {
	out := make([]ParamSpec, len(catalog))
	copy(out, catalog)
	return out
}

// Tunable returns the non-constant parameters of a group; an empty group matches all.
func Tunable(group string) []ParamSpec {
	var out []ParamSpec
	for _, s := range catalog {
		if s.IsConstant() {
			continue
		}
		if group == "" || s.Group == group {
			out = append(out, s)
		}
	}
	return out
}
