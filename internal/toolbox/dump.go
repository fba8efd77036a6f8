// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package toolbox

import (
	"fmt"
	"strings"
)

// KV is one counter in a stats dump.
type KV struct {
	Key   string
	Value uint64
}

// DumpString renders counters as a stable, human-readable key/value list,
// in the same brace-delimited shape as monitor.VarsToString.
func DumpString(counters []KV) string {
	var sb strings.Builder
	sb.WriteString("{\n")
	for i, kv := range counters {
		if i > 0 {
			sb.WriteString(",\n")
		}
		fmt.Fprintf(&sb, "\t%q: %d", kv.Key, kv.Value)
	}
	sb.WriteString("\n}")
	return sb.String()
}
