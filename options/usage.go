package options

import (
	"flag"
	"fmt"
	"io"

	"github.com/jimni/smppsend/tlv"
)

// Usage writes the option reference to w.
func Usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: smppsend --bind-mode tx|rx|trx --host HOST --port PORT \\")
	fmt.Fprintln(w, "                --system-id ID --password PASSWORD [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	newFlagSet(new(Config)).VisitAll(func(f *flag.Flag) {
		name, usage := flag.UnquoteUsage(f)
		if isBoolFlag(f) {
			name = ""
		}
		fmt.Fprintf(w, "  --%s %s\n    \t%s", f.Name, name, usage)
		if def, ok := defaults[f.Name]; ok && def != "" && def != "false" {
			fmt.Fprintf(w, " (default %s)", def)
		}
		fmt.Fprintln(w)
	})
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Optional parameters (TLV):")
	for _, name := range tlv.Names() {
		e, _ := tlv.Lookup(name)
		fmt.Fprintf(w, "  %s %s\n    \ttag %#04x\n", Dashed(name), e.Type, e.Tag)
	}
	fmt.Fprintln(w, "  --tlv-TAG-TYPE VALUE")
	fmt.Fprintln(w, "    \tany tag, TYPE is one of int8, int16, int32, string, cstring, hex")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes: 0 ok, 1 bad options, 3 bind failed, 4 build or receipt wait failed,")
	fmt.Fprintln(w, "6 submit failed, 7 encoding failed.")
}
