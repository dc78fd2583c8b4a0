package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"rfq/internal"
	"rfq/internal/util"
)

// SpecFields are the fields two units must agree on to be engineering-equivalent.
var SpecFields = []string{
	"range_of_use",
	"rated_load_q_kg",
	"rated_speed_v_m_s",
	"number_of_floors",
	"car_entrance_type",
	"door_type",
	"car_shell_width_bb_mm",
	"car_shell_depth_dd_mm",
	"car_clear_intern_height_ch_mm",
	"shaft_width_ww_mm",
	"shaft_depth_wd_mm",
	"min_shaft_pit_depth_ph_mm",
	"shaft_headroom_height_sh_mm",
	"fire_class_country",
	internal.KeySafetyGear,
	"control_system",
}

var reMachineRoom = regexp.MustCompile(`[PGB]([WTSU])`)

// MachineRoomType extracts the machine room letter from a network
// description such as "PW-1200" -> "W". Empty when nothing matches.
func MachineRoomType(description string) string {
	m := reMachineRoom.FindStringSubmatch(strings.ToUpper(description))
	if m == nil {
		return ""
	}
	return m[1]
}

// GroupBySpec partitions units by SpecFields.
func GroupBySpec(units []internal.Record) []internal.SpecGroup {
	groups := partition(units, SpecFields)
	for i := range groups {
		g := &groups[i]
		mrType := MachineRoomType(g.Representative[internal.KeyNetworkDescription])
		if mrType == "" {
			continue
		}
		if g.UnitCount > 1 {
			mrType += "2"
		}
		g.MachineRoomType = mrType
		g.Representative[internal.KeyMachineRoomType] = mrType
	}
	return groups
}

// GroupByKeys partitions units by an ad hoc key list.
func GroupByKeys(units []internal.Record, keys []string) []internal.SpecGroup {
	groups := partition(units, keys)
	for i := range groups {
		rep := groups[i].Representative
		for _, k := range keys {
			if _, ok := rep[k]; !ok {
				rep[k] = ""
			}
		}
	}
	return groups
}

// partition groups units whose values at keys are identical, in order of
// first appearance. Missing keys compare as empty strings.
func partition(units []internal.Record, keys []string) []internal.SpecGroup {
	index := map[string]int{}
	members := [][]internal.Record{}
	for _, unit := range units {
		sig := signature(unit, keys)
		i, ok := index[sig]
		if !ok {
			i = len(members)
			index[sig] = i
			members = append(members, nil)
		}
		members[i] = append(members[i], unit)
	}

	out := make([]internal.SpecGroup, 0, len(members))
	for _, group := range members {
		labels := unitLabels(group)
		rep := group[0].Clone()
		rep[internal.KeyUnitCount] = strconv.Itoa(len(group))
		rep[internal.KeyUnitLabels] = strings.Join(labels, ", ")
		out = append(out, internal.SpecGroup{
			Representative: rep,
			UnitCount:      len(group),
			UnitLabels:     labels,
		})
	}
	return out
}

func signature(unit internal.Record, keys []string) string {
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(strconv.Quote(k))
		b.WriteByte('=')
		b.WriteString(strconv.Quote(unit[k]))
		b.WriteByte(';')
	}
	return b.String()
}

func unitLabels(units []internal.Record) []string {
	out := []string{}
	for _, u := range units {
		if label := util.ShortLabel(u[internal.KeyGeneralInformation]); label != "" {
			out = append(out, label)
		}
	}
	return out
}

// MergeUnits folds units into one record: the first non-blank value per key
// wins, then the global record overrides.
func MergeUnits(units []internal.Record, global internal.Record) internal.Record {
	merged := internal.Record{}
	for _, unit := range units {
		for k, v := range unit {
			key := util.NormalizeKey(k)
			if existing, ok := merged[key]; !ok || util.IsBlank(existing) {
				merged[key] = v
			}
		}
	}
	merged.Merge(global)
	return merged
}
