package tokenizer

import (
	"bytes"
	"strings"
)

// extractShebang returns the normalized interpreter name of a #! line.
//
//	#!/usr/bin/ruby                    => ruby
//	#!/usr/bin/env node                => node
//	#!/usr/bin/env A=B foo=bar awk -f  => awk
//	#!/usr/bin/env python3             => python
func extractShebang(line []byte) (string, bool) {
	if !bytes.HasPrefix(line, []byte("#!")) {
		return "", false
	}

	fields := strings.Fields(string(line[2:]))
	if len(fields) == 0 {
		return "", false
	}

	path := strings.TrimRight(fields[0], "/")
	script := path[strings.LastIndex(path, "/")+1:]

	if script == "env" {
		script = ""
		for _, arg := range fields[1:] {
			if strings.Contains(arg, "=") {
				continue
			}
			script = arg
			break
		}
	}

	script = stripVersion(script)
	if script == "" {
		return "", false
	}
	return script, true
}

// stripVersion keeps the first run of non-digit characters so that
// python3, python2.7 and ruby2 collapse to python and ruby
func stripVersion(name string) string {
	name = strings.TrimLeft(name, "0123456789")
	if i := strings.IndexAny(name, "0123456789"); i >= 0 {
		name = name[:i]
	}
	return name
}
