package cli

import (
	"flag"
)

// CommonFlags are shared by every command.
type CommonFlags struct {
	ConfigPath string
	Verbose    bool
}

func (f *CommonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "Configuration file path (default: config.yaml if present)")
	fs.BoolVar(&f.Verbose, "verbose", false, "Verbose output")
}

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	CommonFlags
	Port int
}

// ParseServeFlags parses command line flags for the serve command. A zero
// port keeps the configured one.
func ParseServeFlags(args []string) (*ServeFlags, error) {
	flags := &ServeFlags{}
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	flags.register(fs)
	fs.IntVar(&flags.Port, "port", 0, "Port to listen on (overrides config)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// CalculateFlags holds the CLI flags for the calculate command.
type CalculateFlags struct {
	CommonFlags
	Input  string
	Policy string
	Save   bool
	JSON   bool
}

// ParseCalculateFlags parses command line flags for the calculate command.
// The input file may also be given as the first positional argument.
func ParseCalculateFlags(args []string) (*CalculateFlags, error) {
	flags := &CalculateFlags{}
	fs := flag.NewFlagSet("calculate", flag.ContinueOnError)
	flags.register(fs)
	fs.StringVar(&flags.Input, "input", "", "Working set YAML file")
	fs.StringVar(&flags.Policy, "policy", "", "Shared counter policy: exclude or include (overrides config)")
	fs.BoolVar(&flags.Save, "save", false, "Persist the result to the configured store")
	fs.BoolVar(&flags.JSON, "json", false, "Print the result as JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if flags.Input == "" && fs.NArg() > 0 {
		flags.Input = fs.Arg(0)
	}
	return flags, nil
}
