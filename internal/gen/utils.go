package gen

import (
	"fmt"
	"strings"
)

func write(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
}

func writeln(sb *strings.Builder, s ...string) {
	write(sb, s...)
	sb.WriteByte('\n')
}

func writef(sb *strings.Builder, format string, args ...any) {
	fmt.Fprintf(sb, format, args...)
}
