package google

import (
	"fmt"
	"strings"

	"ledgerdash/internal/sheets"
)

// headerState reports whether the first row of values is empty, matches the
// activity header, or is something else.
func headerState(values [][]any) (empty bool, err error) {
	if len(values) == 0 || len(values[0]) == 0 {
		return true, nil
	}
	got := toStrings(values[0])
	var missing []string
	for _, want := range sheets.ActivityHeader {
		if indexOf(got, want) == -1 {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return false, fmt.Errorf("unexpected activity header: missing %s; got headers=%v", strings.Join(missing, ","), got)
	}
	return false, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(v, target) {
			return i
		}
	}
	return -1
}
