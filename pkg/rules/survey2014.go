// pkg/rules/survey2014.go
package rules

// Builtin encodings for the 2014 all-participants survey. Each rule mirrors
// the manual recoding the survey analysis applies before modeling; labels are
// the exact strings stored by the survey platform.

// Survey2014 returns the default rule table for the 2014 household survey.
func Survey2014() *Set {
	set := &Set{}

	// Foundation is recorded as two columns that can both be set. "Both"
	// ranks above either alone.
	set.Rules = append(set.Rules, Rule{
		Field: "foundation_type",
		Kind:  KindOrdered,
		Mappings: []Mapping{
			{When: []Match{
				{Column: "foundation_pier_beam", Label: "Pier and beam"},
				{Column: "foundation_slab", Label: "Slab"},
			}, Code: 3},
			{When: []Match{{Column: "foundation_pier_beam", Label: "Pier and beam"}}, Code: 2},
			{When: []Match{{Column: "foundation_slab", Label: "Slab"}}, Code: 1},
		},
		Fallback: FallbackNull,
	})

	// Resident head counts per age band. Empty means zero residents, and
	// "5 or more" is censored at five.
	residents := []struct{ column, field string }{
		{"residents_under_5", "residents_under05"},
		{"residents_6_to_12", "residents_0612"},
		{"residents_13_to_18", "residents_1318"},
		{"residents_19_to_24", "residents_1924"},
		{"residents_25_to_34", "residents_2534"},
		{"residents_35_to_49", "residents_3549"},
		{"residents_50_to_64", "residents_5064"},
		{"residents_65_and_older", "residents_65plus"},
	}
	for _, r := range residents {
		set.Rules = append(set.Rules, countRule(r.field, r.column))
	}

	// Always-on electronic device counts, same censoring as residents.
	devices := []struct{ column, field string }{
		{"electronic_devices_computers", "devices_computers"},
		{"electronic_devices_tvs", "devices_tvs"},
		{"electronic_devices_game_systems", "devices_game_systems"},
		{"electronic_devices_dvrs", "devices_dvrs"},
		{"electronic_devices_tablets", "devices_tablets"},
		{"electronic_devices_smartphones", "devices_smartphones"},
	}
	for _, d := range devices {
		set.Rules = append(set.Rules, countRule(d.field, d.column))
	}

	set.Rules = append(set.Rules,
		countRule("ceiling_fans_count", "ceiling_fans_count"),
		countRule("compressors_count", "compressors_count"),
	)

	// Education attainment, ascending.
	set.Rules = append(set.Rules, Rule{
		Field: "education_level",
		Kind:  KindOrdered,
		Mappings: []Mapping{
			{When: []Match{{Column: "education_level", Label: "High School graduate"}}, Code: 1},
			{When: []Match{{Column: "education_level", Label: "Some college/trade/vocational school"}}, Code: 2},
			{When: []Match{{Column: "education_level", Label: "College graduate"}}, Code: 3},
			{When: []Match{{Column: "education_level", Label: "Postgraduate degree"}}, Code: 4},
		},
		Fallback: FallbackNull,
	})

	// Household income brackets, ascending.
	incomes := []string{
		"Less than $10,000",
		"$10,000 - $19,999",
		"$20,000 - $34,999",
		"$35,000 - $49,999",
		"$50,000 - $74,999",
		"$75,000 - $99,999",
		"$100,000 - $149,999",
		"$150,000 - $299,000",
		"$300,000 - $1,000,000",
		"more than $1,000,000",
	}
	income := Rule{Field: "income_level", Kind: KindOrdered, Fallback: FallbackNull}
	for i, label := range incomes {
		income.Mappings = append(income.Mappings, Mapping{
			When: []Match{{Column: "total_annual_income", Label: label}},
			Code: int64(i + 1),
		})
	}
	set.Rules = append(set.Rules, income)

	// HVAC system type is spread across seven yes/no columns. Priority
	// order below resolves multi-system households; the integer codes are
	// arbitrary labels, not ranks.
	set.Rules = append(set.Rules, Rule{
		Field: "hvac",
		Kind:  KindUnordered,
		Indicators: []Indicator{
			{Column: "hvac_central_ac", Label: "Central air conditioning", Code: 1},
			{Column: "hvac_heat_pump", Label: "Heat pump", Code: 2},
			{Column: "hvac_window_units", Label: "Window air conditioning unit(s)", Code: 3},
			{Column: "hvac_evaporative_cooler", Label: "Evaporative (swamp) cooler", Code: 4},
			{Column: "hvac_whole_house_fan", Label: "Whole house fan", Code: 5},
			{Column: "hvac_portable_units", Label: "Portable air conditioning unit(s)", Code: 6},
			{Column: "hvac_none", Label: "None of the above", Code: 7},
		},
		Fallback: FallbackZero,
		Note:     "code 0 covers both an explicit don't-know response and no signal at all; the source encoding does not distinguish them",
	})

	// Photovoltaics: ownership gates the satisfaction score.
	set.Rules = append(set.Rules, Rule{
		Field:  "pv_own",
		Kind:   KindBool,
		Column: "pv_system_own",
		Label:  "Yes",
	})
	set.Rules = append(set.Rules, Rule{
		Field: "pv_satisfied",
		Kind:  KindOrdered,
		Mappings: []Mapping{
			{When: []Match{{Column: "pv_system_satisfied", Label: "Very dissatisfied"}}, Code: 1},
			{When: []Match{{Column: "pv_system_satisfied", Label: "Somewhat dissatisfied"}}, Code: 2},
			{When: []Match{{Column: "pv_system_satisfied", Label: "Neutral"}}, Code: 3},
			{When: []Match{{Column: "pv_system_satisfied", Label: "Somewhat satisfied"}}, Code: 4},
			{When: []Match{{Column: "pv_system_satisfied", Label: "Very"}}, Code: 5},
		},
		Fallback:  FallbackZero,
		Condition: "pv_own",
	})

	// Ethnicity is a multi-select: several indicators can be true for one
	// participant, so each stays an independent boolean. Do not collapse
	// these into a single categorical code.
	ethnicities := []struct{ column, label, field string }{
		{"ethnicity_white", "White", "ethnicity_white"},
		{"ethnicity_black", "Black or African American", "ethnicity_black"},
		{"ethnicity_asian", "Asian", "ethnicity_asian"},
		{"ethnicity_hispanic", "Hispanic or Latino", "ethnicity_hispanic"},
		{"ethnicity_native_american", "American Indian or Alaska Native", "ethnicity_native_american"},
		{"ethnicity_other", "Other", "ethnicity_other"},
	}
	for _, e := range ethnicities {
		set.Rules = append(set.Rules, Rule{
			Field: e.field, Kind: KindBool, Column: e.column, Label: e.label,
		})
	}

	// Occupancy checkboxes.
	occupancy := []struct{ column, label, field string }{
		{"spend_time_at_home_morning", "Morning", "home_morning"},
		{"spend_time_at_home_afternoon", "Afternoon", "home_afternoon"},
		{"spend_time_at_home_evening", "Evening", "home_evening"},
		{"spend_time_at_home_all_day", "All day", "home_all_day"},
	}
	for _, o := range occupancy {
		set.Rules = append(set.Rules, Rule{
			Field: o.field, Kind: KindBool, Column: o.column, Label: o.label,
		})
	}

	// Thermostat setpoints are free text that is usually a number.
	temps := []string{
		"temp_summer_weekday_workday",
		"temp_summer_weekday_morning",
		"temp_summer_weekday_evening",
		"temp_summer_sleeping_hours",
		"temp_summer_weekend",
		"temp_winter_weekday_workday",
		"temp_winter_weekday_morning",
		"temp_winter_weekday_evening",
		"temp_winter_sleeping_hours",
		"temp_winter_weekend",
	}
	for _, t := range temps {
		set.Rules = append(set.Rules, Rule{
			Field: t, Kind: KindNumeric, Column: t, Fallback: FallbackNull,
		})
	}

	// Plain Yes/No questions.
	yesNo := []struct{ column, field string }{
		{"smartphone_own", "smartphone_own"},
		{"tablet_own", "tablet_own"},
		{"irrigation_system", "irrigation_system"},
		{"retrofits", "retrofits"},
		{"pets", "pets"},
		{"care_energy_cost", "care_energy_cost"},
		{"reduce_energy_cost", "reduce_energy_cost"},
		{"modify_routines", "modify_routines"},
		{"ac_service_package", "ac_service_package"},
		{"water_heater_tankless", "water_heater_tankless"},
		{"programmable_thermostat_currently_programmed", "programmed"},
	}
	for _, q := range yesNo {
		set.Rules = append(set.Rules, Rule{
			Field: q.field, Kind: KindBool, Column: q.column, Label: "Yes",
		})
	}

	return set
}

// countRule builds the standard survey count encoding: empty -> 0,
// "5 or more" -> 5, otherwise parse as integer with malformed content
// falling back to 0.
func countRule(field, column string) Rule {
	return Rule{
		Field:        field,
		Kind:         KindCount,
		Column:       column,
		Fallback:     FallbackZero,
		Ceiling:      5,
		CeilingLabel: "5 or more",
	}
}
