package config

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"lukechampine.com/blake3"
)

// ConfigHash returns the deterministic digest over the fields that decide
// what "running this check" means: command, the set of cache_paths,
// timeout, the per_file flag, and the metadata patterns. name and
// depends_on are explicitly excluded (spec.md §3) — rewiring a check's
// dependencies doesn't change what it checks.
func (c *Check) ConfigHash() string {
	var sb strings.Builder

	sb.WriteString("command=")
	sb.WriteString(c.Command)
	sb.WriteByte('\n')

	paths := append([]string(nil), c.CachePaths...)
	sort.Strings(paths)
	sb.WriteString("cache_paths=")
	sb.WriteString(strings.Join(paths, ","))
	sb.WriteByte('\n')

	sb.WriteString("timeout=")
	if c.TimeoutSecs != nil {
		sb.WriteString(strconv.Itoa(*c.TimeoutSecs))
	}
	sb.WriteByte('\n')

	sb.WriteString("per_file=")
	sb.WriteString(strconv.FormatBool(c.PerFile))
	sb.WriteByte('\n')

	keys := make([]string, 0, len(c.MetadataPatterns))
	for k := range c.MetadataPatterns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p := c.MetadataPatterns[k]
		fmt.Fprintf(&sb, "metadata[%s]=%s|%s\n", k, p.Regex, p.Template)
	}

	sum := blake3.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
