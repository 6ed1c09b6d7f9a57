package vermclient

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
)

func TestParseLocation(t *testing.T) {
	datadriven.RunTest(t, "testdata/location", func(t *testing.T, d *datadriven.TestData) string {
		switch d.Cmd {
		case "normalize":
			// Normalize each input line as a request path.
			var buf strings.Builder
			for _, line := range strings.Split(strings.TrimSpace(d.Input), "\n") {
				fmt.Fprintf(&buf, "%q -> %q\n", line, normalizePath(line))
			}
			return buf.String()

		case "parse":
			loc, err := ParseLocation(strings.TrimSpace(d.Input))
			if err != nil {
				return fmt.Sprintf("error: %v", err)
			}

			var buf strings.Builder
			fmt.Fprintf(&buf, "dir: %s\n", loc.Directory)
			fmt.Fprintf(&buf, "shard: %s\n", loc.Shard)
			fmt.Fprintf(&buf, "name: %s\n", loc.Name)
			fmt.Fprintf(&buf, "ext: %q\n", loc.Extension)
			fmt.Fprintf(&buf, "string: %s", loc.String())
			return buf.String()

		default:
			t.Fatalf("unknown command: %s", d.Cmd)
			return ""
		}
	})
}
